package recipe

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	bcErrors "github.com/appministry/stevedore/pkg/build/errors"
	"github.com/appministry/stevedore/pkg/build/launch"
	"github.com/appministry/stevedore/pkg/build/reader"
	"github.com/stretchr/testify/assert"
)

func defaultTestRecipe(t *testing.T) *Recipe {
	r := New()
	assert.Nil(t, r.SelectBase("python:3.9-slim"))
	assert.Nil(t, r.SetWorkingDirectory("/app"))
	assert.Nil(t, r.InstallDependencies("requirements.txt"))
	assert.Nil(t, r.CopyPayload(".", "./"))
	assert.Nil(t, r.SetEnvironment("PORT", "8080"))
	assert.Nil(t, r.DefineLaunch(launch.DefaultCommand("main:app")))
	return r
}

func writeTestContext(t *testing.T, manifestContent string, payloadFiles ...string) string {
	contextDir, err := ioutil.TempDir("", "recipe-test")
	if err != nil {
		t.Fatal("Expected temp directory, got error", err)
	}
	t.Cleanup(func() { os.RemoveAll(contextDir) })
	if err := ioutil.WriteFile(filepath.Join(contextDir, "requirements.txt"), []byte(manifestContent), 0644); err != nil {
		t.Fatal("Expected manifest to write, got error", err)
	}
	for _, name := range payloadFiles {
		if err := ioutil.WriteFile(filepath.Join(contextDir, name), []byte("app = None\n"), 0644); err != nil {
			t.Fatal("Expected payload file to write, got error", err)
		}
	}
	return contextDir
}

func TestOperationOrdering(t *testing.T) {
	r := New()
	assert.NotNil(t, r.SetWorkingDirectory("/app"))
	assert.NotNil(t, r.InstallDependencies("requirements.txt"))
	assert.NotNil(t, r.CopyPayload(".", "./"))
	assert.NotNil(t, r.SetEnvironment("PORT", "8080"))
	assert.NotNil(t, r.DefineLaunch(launch.DefaultCommand("main:app")))

	assert.Nil(t, r.SelectBase("python:3.9-slim"))
	assert.NotNil(t, r.SelectBase("python:3.8-slim"))

	// the payload copy requires a recorded manifest:
	assert.NotNil(t, r.CopyPayload(".", "./"))
	assert.Nil(t, r.InstallDependencies("requirements.txt"))
	assert.Nil(t, r.CopyPayload(".", "./"))

	// dependencies do not install after the payload copy:
	assert.NotNil(t, r.InstallDependencies("other.txt"))
}

func TestValidateOrdering(t *testing.T) {
	contextDir := writeTestContext(t, "flask==2.0.1\ngunicorn\n", "main.py")

	r := defaultTestRecipe(t)
	assert.Nil(t, r.Validate(contextDir))

	// malformed manifest fails before any payload check, even with the
	// payload intact:
	brokenManifestDir := writeTestContext(t, "flask ~= broken entry\n", "main.py")
	err := defaultTestRecipe(t).Validate(brokenManifestDir)
	assert.NotNil(t, err)
	_, ok := err.(*bcErrors.DependencyResolutionError)
	assert.True(t, ok)

	// missing entry point module fails the launch check:
	noModuleDir := writeTestContext(t, "gunicorn\n")
	err = defaultTestRecipe(t).Validate(noModuleDir)
	assert.NotNil(t, err)
	_, ok = err.(*bcErrors.LaunchError)
	assert.True(t, ok)
}

func TestValidateMissingPayload(t *testing.T) {
	contextDir := writeTestContext(t, "gunicorn\n", "main.py")

	r := New()
	assert.Nil(t, r.SelectBase("python:3.9-slim"))
	assert.Nil(t, r.SetWorkingDirectory("/app"))
	assert.Nil(t, r.InstallDependencies("requirements.txt"))
	assert.Nil(t, r.CopyPayload("missing-dir", "./"))
	assert.Nil(t, r.SetEnvironment("PORT", "8080"))
	assert.Nil(t, r.DefineLaunch(launch.DefaultCommand("main:app")))

	err := r.Validate(contextDir)
	assert.NotNil(t, err)
	_, ok := err.(*bcErrors.CopyError)
	assert.True(t, ok)
}

func TestValidateBadBase(t *testing.T) {
	contextDir := writeTestContext(t, "gunicorn\n", "main.py")
	r := New()
	assert.Nil(t, r.SelectBase("???not-an-image"))
	assert.Nil(t, r.InstallDependencies("requirements.txt"))
	assert.Nil(t, r.CopyPayload(".", "./"))
	err := r.Validate(contextDir)
	assert.NotNil(t, err)
	_, ok := err.(*bcErrors.BaseImageError)
	assert.True(t, ok)
}

func TestRenderStable(t *testing.T) {
	first := defaultTestRecipe(t).Render()
	second := defaultTestRecipe(t).Render()
	assert.Equal(t, first, second)
	assert.Equal(t, `FROM python:3.9-slim
WORKDIR /app
COPY requirements.txt ./
RUN pip install --no-cache-dir -r requirements.txt
COPY . ./
ENV PORT=8080
CMD exec gunicorn --bind :$PORT --workers 1 --threads 8 --timeout 0 main:app
`, first)
}

func TestRenderFixedWorkerSettings(t *testing.T) {
	for _, port := range []string{"8080", "9090", "3000"} {
		r := defaultTestRecipe(t)
		assert.Nil(t, r.SetEnvironment("PORT", port))
		assert.True(t, strings.Contains(r.Render(), "--workers 1 --threads 8 --timeout 0"))
	}
}

func TestOutOfScopeWarningCarriesOriginalLine(t *testing.T) {
	cmds, err := reader.ReadFromBytes([]byte(`FROM python:3.9-slim
RUN apt-get update
COPY requirements.txt ./
RUN pip install --no-cache-dir -r requirements.txt
COPY . ./
CMD exec gunicorn --bind :$PORT --workers 1 --threads 8 --timeout 0 main:app
`))
	assert.Nil(t, err)
	_, warnings, err := FromCommands(cmds)
	assert.Nil(t, err)
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Error(), "RUN apt-get update")
}

func TestRoundTrip(t *testing.T) {
	rendered := defaultTestRecipe(t).Render()
	cmds, err := reader.ReadFromBytes([]byte(rendered))
	assert.Nil(t, err)
	rebuilt, warnings, err := FromCommands(cmds)
	assert.Nil(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, rendered, rebuilt.Render())
	assert.Equal(t, "python:3.9-slim", rebuilt.Base().BaseImage)
	assert.Equal(t, "/app", rebuilt.WorkingDirectory().Value)
	assert.Equal(t, "requirements.txt", rebuilt.ManifestPath())
	source, target := rebuilt.Payload()
	assert.Equal(t, ".", source)
	assert.Equal(t, "./", target)
	assert.Equal(t, launch.DefaultCommand("main:app"), rebuilt.Launch())
}
