package flags

import (
	"github.com/appministry/stevedore/pkg/storage"
	"github.com/spf13/pflag"
)

type flags struct {
	RecipeStorageRoot string
}

// New returns an initialized instance of the flag provider.
func New() storage.FlagProvider {
	return &flags{}
}

func (fp *flags) GetFlags() *pflag.FlagSet {
	set := &pflag.FlagSet{}
	set.StringVar(&fp.RecipeStorageRoot, "storage-provider.directory.recipe-storage-root", "", "Full path to the root directory of the recipe and metadata storage")
	return set
}

func (fp *flags) GetInitializedConfiguration() map[string]interface{} {
	return map[string]interface{}{
		"recipe-storage-root": fp.RecipeStorageRoot,
	}
}
