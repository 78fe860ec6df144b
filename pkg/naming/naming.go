package naming

import (
	"strings"

	"github.com/appministry/stevedore/pkg/utils"
)

const (
	// RecipeFileName is the name of the rendered recipe file in the artifact storage.
	RecipeFileName = "Dockerfile"
	// MetadataFileName is the name of the artifact metadata file.
	MetadataFileName = "metadata.json"
	// RunMetadataFileName is the name of the run cache entry metadata file.
	RunMetadataFileName = "run.json"
	// StorageLockFileName is the file the storage write lock is held on.
	StorageLockFileName = ".lock"
)

// GetRandomServiceName returns a random service container name.
func GetRandomServiceName() string {
	return utils.RandomHostname()
}

// GetRandomStageTag returns a random lowercase tag for an intermediate stage build.
func GetRandomStageTag() string {
	return strings.ToLower(utils.RandStringWithDigitsBytes(32))
}
