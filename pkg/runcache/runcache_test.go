package runcache

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/appministry/stevedore/pkg/metadata"
	"github.com/stretchr/testify/assert"
)

func TestRunMetadataRoundTrip(t *testing.T) {
	runCache, err := ioutil.TempDir("", "runcache-test")
	if err != nil {
		t.Fatal("Expected temp directory, got error", err)
	}
	defer os.RemoveAll(runCache)

	input := &metadata.MDRun{
		Bind:         ":9090",
		ContainerID:  "abcdef012345",
		EnvKeys:      []string{"PORT"},
		Name:         "eager-darwin",
		RunCache:     runCache,
		StartedAtUTC: 1700000000,
		Tag:          "acme/video-api:1.0.0",
		Type:         metadata.MetadataTypeRun,
	}
	assert.Nil(t, WriteMetadataToFile(input))

	fetched, exists, err := FetchMetadataIfExists(filepath.Join(runCache, "eager-darwin"))
	assert.Nil(t, err)
	assert.True(t, exists)
	assert.Equal(t, input, fetched)

	_, exists, err = FetchMetadataIfExists(filepath.Join(runCache, "no-such-service"))
	assert.Nil(t, err)
	assert.False(t, exists)
}
