package directory

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/appministry/stevedore/pkg/storage"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
)

func TestDirectoryProviderRoundTrip(t *testing.T) {
	storageRoot, err := ioutil.TempDir("", "storage-test")
	if err != nil {
		t.Fatal("Expected temp directory, got error", err)
	}
	defer os.RemoveAll(storageRoot)

	stagedRecipe := filepath.Join(storageRoot, "staged-recipe")
	if err := ioutil.WriteFile(stagedRecipe, []byte("FROM python:3.9-slim\n"), 0644); err != nil {
		t.Fatal("Expected staged recipe to write, got error", err)
	}

	provider := New(hclog.NewNullLogger())
	assert.Nil(t, provider.Configure(map[string]interface{}{
		"recipe-storage-root": filepath.Join(storageRoot, "artifacts"),
	}))

	storeResult, err := provider.StoreArtifactFile(&storage.ArtifactStore{
		LocalPath: stagedRecipe,
		Metadata:  map[string]interface{}{"tag": "acme/video-api:1.0.0"},
		Org:       "acme",
		Image:     "video-api",
		Version:   "1.0.0",
	})
	assert.Nil(t, err)
	assert.Equal(t, "directory", storeResult.Provider)
	assert.NotEmpty(t, storeResult.RecipeLocation)
	assert.NotEmpty(t, storeResult.MetadataLocation)

	lookup := &storage.ArtifactLookup{Org: "acme", Image: "video-api", Version: "1.0.0"}
	fetched, err := provider.FetchArtifact(lookup)
	assert.Nil(t, err)
	assert.Equal(t, "acme/video-api:1.0.0", fetched.Metadata()["tag"])

	listed, err := provider.ListArtifacts()
	assert.Nil(t, err)
	assert.Len(t, listed, 1)
	assert.Equal(t, lookup, listed[0])

	assert.Nil(t, provider.RemoveArtifact(lookup))
	_, err = provider.FetchArtifact(lookup)
	assert.NotNil(t, err)
}
