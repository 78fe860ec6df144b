package recipe

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/appministry/stevedore/pkg/build/commands"
	"github.com/appministry/stevedore/pkg/build/env"
	bcErrors "github.com/appministry/stevedore/pkg/build/errors"
	"github.com/appministry/stevedore/pkg/build/launch"
	"github.com/appministry/stevedore/pkg/build/manifest"
	"github.com/appministry/stevedore/pkg/utils"
)

var baseImagePattern = regexp.MustCompile(`^[a-z0-9]+([._\-/:][a-zA-Z0-9._\-]+)*$`)

// Recipe records the build of a service image as an ordered sequence of
// operations. The operations must be recorded in order: base first,
// dependencies before the payload, environment and launch after the payload.
type Recipe struct {
	from          *commands.From
	workdir       *commands.Workdir
	manifestPath  string
	payloadSource string
	payloadTarget string
	env           []commands.Env
	launch        *launch.Command
}

// New returns an empty recipe.
func New() *Recipe {
	return &Recipe{env: []commands.Env{}}
}

// SelectBase records the base image. Must be the first recorded operation.
func (r *Recipe) SelectBase(imageRef string) error {
	if r.from != nil {
		return fmt.Errorf("base already selected: %s", r.from.BaseImage)
	}
	if r.workdir != nil || r.manifestPath != "" || r.payloadSource != "" || len(r.env) > 0 || r.launch != nil {
		return fmt.Errorf("base must be selected first")
	}
	r.from = &commands.From{BaseImage: imageRef}
	return nil
}

// SetWorkingDirectory records the image working directory.
func (r *Recipe) SetWorkingDirectory(path string) error {
	if r.from == nil {
		return fmt.Errorf("no base selected")
	}
	r.workdir = &commands.Workdir{Value: path}
	return nil
}

// InstallDependencies records the dependency manifest. Dependencies install
// before the payload copy so the install layer caches on manifest content.
func (r *Recipe) InstallDependencies(manifestPath string) error {
	if r.from == nil {
		return fmt.Errorf("no base selected")
	}
	if r.payloadSource != "" {
		return fmt.Errorf("dependencies must install before the payload copy")
	}
	r.manifestPath = manifestPath
	return nil
}

// CopyPayload records the application payload copy.
func (r *Recipe) CopyPayload(source, target string) error {
	if r.from == nil {
		return fmt.Errorf("no base selected")
	}
	if r.manifestPath == "" {
		return fmt.Errorf("no dependency manifest recorded")
	}
	r.payloadSource = source
	r.payloadTarget = target
	return nil
}

// SetEnvironment records a run time environment default. The value is only
// a default, the variable stays overridable at container start.
func (r *Recipe) SetEnvironment(name, value string) error {
	if r.payloadSource == "" {
		return fmt.Errorf("no payload recorded")
	}
	for idx, env := range r.env {
		if env.Name == name {
			r.env[idx].Value = value
			return nil
		}
	}
	r.env = append(r.env, commands.Env{Name: name, Value: value})
	return nil
}

// DefineLaunch records the service launch command. Must come after the
// payload copy.
func (r *Recipe) DefineLaunch(cmd *launch.Command) error {
	if r.payloadSource == "" {
		return fmt.Errorf("no payload recorded")
	}
	r.launch = cmd
	return nil
}

// Base returns the recorded base image command.
func (r *Recipe) Base() commands.From {
	if r.from == nil {
		return commands.From{}
	}
	return *r.from
}

// WorkingDirectory returns the recorded working directory, default when unset.
func (r *Recipe) WorkingDirectory() commands.Workdir {
	if r.workdir == nil {
		return commands.DefaultWorkdir()
	}
	return *r.workdir
}

// ManifestPath returns the recorded dependency manifest path.
func (r *Recipe) ManifestPath() string {
	return r.manifestPath
}

// Payload returns the recorded payload source and target.
func (r *Recipe) Payload() (string, string) {
	return r.payloadSource, r.payloadTarget
}

// Environment returns the recorded environment defaults in record order.
func (r *Recipe) Environment() []commands.Env {
	return r.env
}

// EnvironmentMap returns the recorded environment defaults as a map.
func (r *Recipe) EnvironmentMap() map[string]string {
	output := map[string]string{}
	for _, env := range r.env {
		output[env.Name] = env.Value
	}
	return output
}

// Launch returns the recorded launch command.
func (r *Recipe) Launch() *launch.Command {
	return r.launch
}

// Validate verifies the recipe against a build context directory. Checks run
// in build order and stop at the first failure:
//
//  1. resolvable base image reference, else BaseImageError,
//  2. readable, well formed dependency manifest, else DependencyResolutionError,
//  3. existing payload source, else CopyError,
//  4. launch defined with the entry point module present in the payload,
//     else LaunchError.
func (r *Recipe) Validate(contextDir string) error {
	if r.from == nil || r.from.BaseImage == "" {
		return &bcErrors.BaseImageError{Image: "", Reason: fmt.Errorf("no base image selected")}
	}
	if !baseImagePattern.MatchString(r.from.BaseImage) {
		return &bcErrors.BaseImageError{Image: r.from.BaseImage, Reason: fmt.Errorf("unresolvable reference")}
	}

	if r.manifestPath == "" {
		return &bcErrors.DependencyResolutionError{Manifest: "", Reason: fmt.Errorf("no manifest recorded")}
	}
	if _, err := manifest.ParseFile(filepath.Join(contextDir, r.manifestPath)); err != nil {
		return err
	}

	if r.payloadSource == "" {
		return &bcErrors.CopyError{Source: "", Target: "", Reason: fmt.Errorf("no payload recorded")}
	}
	payloadDir := filepath.Join(contextDir, r.payloadSource)
	_, fileErr := utils.CheckIfExistsAndIsRegular(payloadDir)
	_, dirErr := utils.CheckIfExistsAndIsDirectory(payloadDir)
	if fileErr != nil && dirErr != nil {
		return &bcErrors.CopyError{Source: r.payloadSource, Target: r.payloadTarget, Reason: fmt.Errorf("payload source does not exist")}
	}

	if r.launch == nil {
		return &bcErrors.LaunchError{Cmd: nil, Reason: fmt.Errorf("no launch command defined")}
	}
	if dirErr == nil {
		moduleFile := filepath.Join(payloadDir, r.launch.EntryPointModule()+".py")
		if _, err := utils.CheckIfExistsAndIsRegular(moduleFile); err != nil {
			return &bcErrors.LaunchError{Cmd: r.launch.Exec(),
				Reason: fmt.Errorf("entry point module not in payload: %s.py", r.launch.EntryPointModule())}
		}
	}
	return nil
}

// Render emits the recipe as a canonical Dockerfile. Equal recipes render
// byte identical output.
func (r *Recipe) Render() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("FROM %s\n", r.Base().BaseImage))
	sb.WriteString(fmt.Sprintf("WORKDIR %s\n", r.WorkingDirectory().Value))
	manifestFileName := filepath.Base(r.manifestPath)
	sb.WriteString(fmt.Sprintf("COPY %s ./\n", r.manifestPath))
	sb.WriteString(fmt.Sprintf("RUN %s\n", manifest.InstallCommand(manifestFileName)))
	sb.WriteString(fmt.Sprintf("COPY %s %s\n", r.payloadSource, r.payloadTarget))
	for _, env := range r.env {
		sb.WriteString(fmt.Sprintf("ENV %s=%s\n", env.Name, env.Value))
	}
	if r.launch != nil {
		sb.WriteString(fmt.Sprintf("CMD %s\n", r.launch.ExecString()))
	}
	return sb.String()
}

// FromCommands reconstructs a recipe from parsed recipe commands. Commands
// with no recipe equivalent surface as CommandOutOfScopeError warnings, the
// reconstruction itself does not fail on them.
func FromCommands(inputs []interface{}) (*Recipe, []error, error) {
	warnings := []error{}

	var from *commands.From
	var workdir *commands.Workdir
	manifestPath := ""
	payloadSource, payloadTarget := "", ""
	envs := []commands.Env{}
	var launchCommand *launch.Command

	// locate the manifest first, the staging copy of the manifest file
	// precedes the install instruction
	argEnv := env.NewBuildEnv()
	for _, input := range inputs {
		switch tcmd := input.(type) {
		case commands.Arg:
			if value, hadValue := tcmd.Value(); hadValue {
				argEnv.Put(tcmd.Key(), value)
			}
		case commands.Env:
			argEnv.Put(tcmd.Name, tcmd.Value)
		case commands.Run:
			if path := manifestFromInstall(argEnv.Expand(tcmd.Command)); path != "" {
				manifestPath = path
			}
		}
	}

	buildEnv := env.NewBuildEnv()
	for _, input := range inputs {
		switch tcmd := input.(type) {
		case commands.From:
			if from == nil {
				from = &commands.From{BaseImage: buildEnv.Expand(tcmd.BaseImage), StageName: tcmd.StageName}
			}
		case commands.Arg:
			if value, hadValue := tcmd.Value(); hadValue {
				buildEnv.Put(tcmd.Key(), value)
			}
		case commands.Workdir:
			workdir = &commands.Workdir{Value: buildEnv.Expand(tcmd.Value)}
		case commands.Copy:
			source, target := buildEnv.Expand(tcmd.Source), buildEnv.Expand(tcmd.Target)
			if manifestPath != "" && filepath.Base(source) == filepath.Base(manifestPath) {
				manifestPath = source
				continue
			}
			payloadSource, payloadTarget = source, target
		case commands.Run:
			if manifestFromInstall(buildEnv.Expand(tcmd.Command)) == "" {
				warnings = append(warnings, &bcErrors.CommandOutOfScopeError{Command: input})
			}
		case commands.Env:
			name, value := buildEnv.Put(tcmd.Name, tcmd.Value)
			envs = append(envs, commands.Env{Name: name, Value: value})
		case commands.Cmd:
			parsed, err := launch.FromValues(tcmd.Values)
			if err != nil {
				return nil, warnings, err
			}
			launchCommand = parsed
		case commands.Entrypoint:
			parsed, err := launch.FromValues(tcmd.Values)
			if err != nil {
				return nil, warnings, err
			}
			launchCommand = parsed
		default:
			warnings = append(warnings, &bcErrors.CommandOutOfScopeError{Command: input})
		}
	}

	recipe := New()
	if from != nil {
		if err := recipe.SelectBase(from.BaseImage); err != nil {
			return nil, warnings, err
		}
	}
	if workdir != nil {
		if err := recipe.SetWorkingDirectory(workdir.Value); err != nil {
			return nil, warnings, err
		}
	}
	if manifestPath != "" {
		if err := recipe.InstallDependencies(manifestPath); err != nil {
			return nil, warnings, err
		}
	}
	if payloadSource != "" {
		if err := recipe.CopyPayload(payloadSource, payloadTarget); err != nil {
			return nil, warnings, err
		}
	}
	for _, env := range envs {
		if err := recipe.SetEnvironment(env.Name, env.Value); err != nil {
			return nil, warnings, err
		}
	}
	if launchCommand != nil {
		if err := recipe.DefineLaunch(launchCommand); err != nil {
			return nil, warnings, err
		}
	}
	return recipe, warnings, nil
}

// manifestFromInstall extracts the manifest file reference from a pip style
// install command, empty string when the command is not an install.
func manifestFromInstall(command string) string {
	fields := strings.Fields(command)
	for idx, field := range fields {
		if field == "-r" || field == "--requirement" {
			if idx+1 < len(fields) {
				return fields[idx+1]
			}
		}
	}
	return ""
}
