package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredFrom(t *testing.T) {
	sf := From{BaseImage: "library/python:3.9-slim"}.ToStructuredFrom()
	assert.Equal(t, "library", sf.Org())
	assert.Equal(t, "python", sf.Image())
	assert.Equal(t, "3.9-slim", sf.Version())

	sf = From{BaseImage: "alpine"}.ToStructuredFrom()
	assert.Equal(t, "_", sf.Org())
	assert.Equal(t, "alpine", sf.Image())
	assert.Equal(t, "latest", sf.Version())
}

func TestRawArg(t *testing.T) {
	arg, err := NewRawArg("PIP_INDEX_URL=https://pypi.org/simple")
	assert.Nil(t, err)
	assert.Equal(t, "PIP_INDEX_URL", arg.Key())
	v, hadv := arg.Value()
	assert.True(t, hadv)
	assert.Equal(t, "https://pypi.org/simple", v)

	arg, err = NewRawArg("VERSION")
	assert.Nil(t, err)
	_, hadv = arg.Value()
	assert.False(t, hadv)
}
