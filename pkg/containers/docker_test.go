package containers

import (
	"io/ioutil"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
)

func TestDockerfileFromHistory(t *testing.T) {

	history := []*DockerImageHistoryEntry{
		{CreatedBy: "/bin/sh -c #(nop)  ENV PORT=8080"},
		{CreatedBy: "/bin/sh -c #(nop) WORKDIR /app"},
		{CreatedBy: "/bin/sh -c pip install --no-cache-dir -r requirements.txt"},
		{CreatedBy: "/bin/sh -c #(nop) COPY file:" + strings.Repeat("a", 64) + " in /app/main.py"},
		{CreatedBy: "/bin/sh -c #(nop)  CMD [\"/bin/sh\" \"-c\" \"exec gunicorn --bind :$PORT --workers 1 --threads 8 --timeout 0 main:app\"]"},
	}

	lines := HistoryToDockerfile(history, "python:3.9-slim")
	assert.Equal(t, []string{
		"FROM python:3.9-slim",
		"ENV PORT=8080",
		"WORKDIR /app",
		"COPY /app/main.py /app/main.py",
		"CMD [\"/bin/sh\" \"-c\" \"exec gunicorn --bind :$PORT --workers 1 --threads 8 --timeout 0 main:app\"]",
	}, lines)
}

func TestImageRecipe(t *testing.T) {

	imageMetadata := &DockerImageMetadata{
		Config: &DockerImageConfig{
			Config: &DockerImageConfigConfig{
				Image: "sha256:" + strings.Repeat("b", 64),
			},
			History: []*DockerImageHistoryEntry{
				{CreatedBy: "/bin/sh -c #(nop) WORKDIR /app"},
				{CreatedBy: "/bin/sh -c #(nop)  ENV PORT=8080"},
			},
		},
	}

	lines := ImageRecipe(imageMetadata)
	assert.Equal(t, []string{
		"FROM sha256:" + strings.Repeat("b", 64),
		"WORKDIR /app",
		"ENV PORT=8080",
	}, lines)

	assert.Empty(t, ImageRecipe(nil))
	assert.Empty(t, ImageRecipe(&DockerImageMetadata{}))
}

func TestProcessDockerOutputSurfacesError(t *testing.T) {
	logger := hclog.NewNullLogger()

	okOutput := `{"stream":"Step 1/7 : FROM python:3.9-slim"}
{"stream":" ---> abcdef012345"}
{"stream":"Successfully built abcdef012345"}`
	assert.Nil(t, processDockerOutput(logger, ioutil.NopCloser(strings.NewReader(okOutput)), dockerReaderStream()))

	failedOutput := `{"stream":"Step 5/7 : RUN pip install --no-cache-dir -r requirements.txt"}
{"error":"The command '/bin/sh -c pip install --no-cache-dir -r requirements.txt' returned a non-zero code: 1","errorDetail":{"message":"non-zero code: 1"}}`
	err := processDockerOutput(logger, ioutil.NopCloser(strings.NewReader(failedOutput)), dockerReaderStream())
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "non-zero code: 1")
}
