package manifest

import (
	"fmt"
	"io/ioutil"
	"regexp"
	"strings"

	bcErrors "github.com/appministry/stevedore/pkg/build/errors"
	"github.com/hashicorp/go-multierror"
)

// requirement lines are name only or name with a single version constraint
var requirementPattern = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._\-]*)\s*(?:(==|>=|<=)\s*([A-Za-z0-9][A-Za-z0-9._\-]*))?$`)

// Requirement is a single entry of the dependency manifest.
type Requirement struct {
	Name       string `json:"Name" mapstructure:"Name"`
	Constraint string `json:"Constraint" mapstructure:"Constraint"`
	Version    string `json:"Version" mapstructure:"Version"`
}

// String renders the requirement back in manifest form.
func (r Requirement) String() string {
	if r.Constraint == "" {
		return r.Name
	}
	return r.Name + r.Constraint + r.Version
}

// Manifest is a parsed dependency manifest.
type Manifest struct {
	Source       string        `json:"Source" mapstructure:"Source"`
	Requirements []Requirement `json:"Requirements" mapstructure:"Requirements"`
}

// Parse parses manifest content. A single malformed entry fails the whole
// parse, there is no partial result. All malformed entries are reported.
func Parse(source string, input []byte) (*Manifest, error) {
	manifest := &Manifest{Source: source, Requirements: []Requirement{}}
	var lineErrors *multierror.Error
	for lineno, line := range strings.Split(string(input), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		matches := requirementPattern.FindStringSubmatch(line)
		if matches == nil {
			lineErrors = multierror.Append(lineErrors, fmt.Errorf("malformed requirement at line %d: %q", lineno+1, line))
			continue
		}
		manifest.Requirements = append(manifest.Requirements, Requirement{
			Name:       matches[1],
			Constraint: matches[2],
			Version:    matches[3],
		})
	}
	if err := lineErrors.ErrorOrNil(); err != nil {
		return nil, &bcErrors.DependencyResolutionError{Manifest: source, Reason: err}
	}
	return manifest, nil
}

// ParseFile reads and parses a manifest file.
func ParseFile(path string) (*Manifest, error) {
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, &bcErrors.DependencyResolutionError{Manifest: path, Reason: err}
	}
	return Parse(path, bytes)
}

// InstallCommand renders the install instruction executed during the build.
// The manifest file itself is referenced so the install step caches on the
// manifest content, not on the payload.
func InstallCommand(manifestFileName string) string {
	return fmt.Sprintf("pip install --no-cache-dir -r %s", manifestFileName)
}
