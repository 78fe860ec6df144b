package resolver

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
)

func TestGetStorageImplWithProvider(t *testing.T) {
	logger := hclog.NewNullLogger()

	impl, err := GetStorageImplWithProvider(logger, "directory")
	assert.Nil(t, err)
	assert.NotNil(t, impl)

	_, err = GetStorageImplWithProvider(logger, "no-such-provider")
	assert.NotNil(t, err)
}
