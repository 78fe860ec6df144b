package profiles

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/appministry/stevedore/configs"
	"github.com/appministry/stevedore/pkg/profiles/model"
	"github.com/stretchr/testify/assert"
)

func TestProfileWriteReadList(t *testing.T) {
	location, err := ioutil.TempDir("", "profiles-test")
	if err != nil {
		t.Fatal("Expected temp directory, got error", err)
	}
	defer os.RemoveAll(location)

	createConfig := configs.NewProfileCreateConfig()
	createConfig.Profile = model.Profile{
		RunCache:        "/var/lib/stevedore",
		StorageProvider: "directory",
		StorageProviderConfigStrings: map[string]string{
			"recipe-storage-root": "/srv/stevedore/artifacts",
		},
	}

	assert.Nil(t, WriteProfileFile("Local", location, createConfig))

	resolved, err := ReadProfile("local", location)
	assert.Nil(t, err)
	assert.Equal(t, "directory", resolved.Profile().StorageProvider)
	assert.Equal(t, "/srv/stevedore/artifacts", resolved.GetMergedStorageConfig()["recipe-storage-root"])

	// without overwrite, a second write must fail:
	assert.NotNil(t, WriteProfileFile("local", location, createConfig))
	createConfig.Overwrite = true
	assert.Nil(t, WriteProfileFile("local", location, createConfig))

	names, err := ListProfiles(location)
	assert.Nil(t, err)
	assert.Equal(t, []string{"local"}, names)
}

func TestProfileInheritance(t *testing.T) {
	location, err := ioutil.TempDir("", "profiles-test")
	if err != nil {
		t.Fatal("Expected temp directory, got error", err)
	}
	defer os.RemoveAll(location)

	createConfig := configs.NewProfileCreateConfig()
	createConfig.Profile = model.Profile{
		RunCache:                 "/var/lib/stevedore",
		TracingEnable:            true,
		TracingCollectorHostPort: "127.0.0.1:6831",
	}
	assert.Nil(t, WriteProfileFile("tracing", location, createConfig))

	resolved, err := ReadProfile("tracing", location)
	assert.Nil(t, err)

	tracingConfig := configs.NewTracingConfig("stevedore-test")
	runCacheConfig := configs.NewRunCacheConfig()
	assert.Nil(t, resolved.UpdateConfigs(tracingConfig, runCacheConfig))
	assert.True(t, tracingConfig.Enable)
	assert.Equal(t, "127.0.0.1:6831", tracingConfig.HostPort)
	assert.Equal(t, "/var/lib/stevedore", runCacheConfig.RunCache)
}
