package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomStageTag(t *testing.T) {
	tag := GetRandomStageTag()
	assert.Len(t, tag, 32)
	assert.Equal(t, strings.ToLower(tag), tag)
}
