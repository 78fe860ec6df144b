package manifest

import (
	"testing"

	bcErrors "github.com/appministry/stevedore/pkg/build/errors"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	input := `# web stack
Flask==2.0.1
gunicorn>=20.1.0
requests<=2.25.1

itsdangerous
`
	manifest, err := Parse("requirements.txt", []byte(input))
	assert.Nil(t, err)
	assert.Len(t, manifest.Requirements, 4)
	assert.Equal(t, Requirement{Name: "Flask", Constraint: "==", Version: "2.0.1"}, manifest.Requirements[0])
	assert.Equal(t, Requirement{Name: "gunicorn", Constraint: ">=", Version: "20.1.0"}, manifest.Requirements[1])
	assert.Equal(t, Requirement{Name: "itsdangerous"}, manifest.Requirements[3])
	assert.Equal(t, "Flask==2.0.1", manifest.Requirements[0].String())
}

func TestParseMalformed(t *testing.T) {
	for _, input := range []string{
		"Flask===2.0.1",
		"Flask ~ 2.0",
		"==2.0.1",
		"Flask==2.0.1 requests",
	} {
		_, err := Parse("requirements.txt", []byte(input))
		if err == nil {
			t.Fatalf("Expected %q to fail parsing", input)
		}
		if _, ok := err.(*bcErrors.DependencyResolutionError); !ok {
			t.Fatalf("Expected a dependency resolution error for %q, got %+v", input, err)
		}
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile("/nonexistent/requirements.txt")
	assert.NotNil(t, err)
	_, ok := err.(*bcErrors.DependencyResolutionError)
	assert.True(t, ok)
}

func TestInstallCommand(t *testing.T) {
	assert.Equal(t, "pip install --no-cache-dir -r requirements.txt", InstallCommand("requirements.txt"))
}
