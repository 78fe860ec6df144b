package stage

import (
	"testing"

	"github.com/appministry/stevedore/pkg/build/reader"
	"github.com/stretchr/testify/assert"
)

func TestReadStagesMultiStage(t *testing.T) {
	cmds, err := reader.ReadFromBytes([]byte(multiStageRecipe))
	assert.Nil(t, err)
	stages, errs := ReadStages(cmds)
	assert.Empty(t, errs)
	assert.Len(t, stages.All(), 2)
	assert.Len(t, stages.Named(), 1)
	assert.Len(t, stages.Unnamed(), 1)

	builder := stages.NamedStage("builder")
	assert.NotNil(t, builder)
	assert.True(t, builder.IsValid())

	final := stages.Unnamed()[0]
	assert.Contains(t, final.DependsOn(), "builder")
}

func TestReadStagesDanglingArg(t *testing.T) {
	cmds, err := reader.ReadFromBytes([]byte(danglingArgRecipe))
	assert.Nil(t, err)
	stages, errs := ReadStages(cmds)
	assert.Empty(t, errs)
	assert.Len(t, stages.All(), 1)
	// the dangling ARG must be carried into the stage ahead of FROM
	assert.Len(t, stages.All()[0].Commands(), 3)
}

var multiStageRecipe = `FROM python:3.9 as builder
WORKDIR /build
COPY requirements.txt ./
RUN pip wheel --wheel-dir /wheels -r requirements.txt

FROM python:3.9-slim
COPY --from=builder /wheels /wheels
`

var danglingArgRecipe = `ARG PYTHON_VERSION=3.9-slim
FROM python:${PYTHON_VERSION}
WORKDIR /app
`
