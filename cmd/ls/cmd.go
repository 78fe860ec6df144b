package ls

import (
	"io/ioutil"
	"path/filepath"

	"github.com/appministry/stevedore/configs"
	"github.com/appministry/stevedore/pkg/profiles"
	"github.com/appministry/stevedore/pkg/runcache"
	"github.com/appministry/stevedore/pkg/storage/resolver"
	"github.com/appministry/stevedore/pkg/utils"
	"github.com/spf13/cobra"
)

// Command is the build command declaration.
var Command = &cobra.Command{
	Use:   "ls",
	Short: "Lists stored artifacts and cached service runs",
	Run:   run,
	Long:  ``,
}

var (
	logConfig      = configs.NewLoggingConfig()
	profilesConfig = configs.NewProfileCommandConfig()
	runCache       = configs.NewRunCacheConfig()
)

func initFlags() {
	Command.Flags().AddFlagSet(logConfig.FlagSet())
	Command.Flags().AddFlagSet(profilesConfig.FlagSet())
	Command.Flags().AddFlagSet(runCache.FlagSet())
	// Storage provider flags:
	resolver.AddStorageFlags(Command.Flags())
}

func init() {
	initFlags()
}

func run(cobraCommand *cobra.Command, _ []string) {
	cleanup := utils.NewDefers()
	defer cleanup.CallAll()

	rootLogger := logConfig.NewLogger("ls")

	storageConfigOverride := map[string]interface{}{}
	if profilesConfig.Profile != "" {
		profile, err := profiles.ReadProfile(profilesConfig.Profile, profilesConfig.ProfileConfDir)
		if err != nil {
			rootLogger.Error("failed resolving profile", "reason", err, "profile", profilesConfig.Profile)
			return
		}
		if err := profile.UpdateConfigs(runCache); err != nil {
			rootLogger.Error("error updating configuration from profile", "reason", err)
			return
		}
		if profile.Profile().StorageProvider != "" {
			resolver.StorageProvider = profile.Profile().StorageProvider
		}
		storageConfigOverride = profile.GetMergedStorageConfig()
	}

	if resolver.StorageProvider != "" {
		storageImpl, resolveErr := resolver.GetStorageImpl(rootLogger)
		if resolveErr != nil {
			rootLogger.Error("failed resolving storage provider", "reason", resolveErr)
		} else {
			if len(storageConfigOverride) > 0 {
				if err := storageImpl.Configure(storageConfigOverride); err != nil {
					rootLogger.Error("failed configuring storage provider from profile", "reason", err)
				}
			}
			artifacts, listErr := storageImpl.ListArtifacts()
			if listErr != nil {
				rootLogger.Error("error listing stored artifacts", "reason", listErr)
			}
			for _, artifact := range artifacts {
				rootLogger.Info("artifact", "org", artifact.Org, "image", artifact.Image, "version", artifact.Version)
			}
		}
	}

	fileInfos, readDirErr := ioutil.ReadDir(runCache.RunCache)
	if readDirErr != nil {
		rootLogger.Error("error listing run cache directory", "reason", readDirErr)
	}
	for _, fileInfo := range fileInfos {
		if !fileInfo.IsDir() {
			continue
		}
		serviceName := fileInfo.Name()
		runMetadata, hasMetadata, err := runcache.FetchMetadataIfExists(filepath.Join(runCache.RunCache, serviceName))
		if err != nil {
			rootLogger.Error("failed loading run metadata for possible service", "name", serviceName, "reason", err)
			continue
		}
		if hasMetadata {
			rootLogger.Info("service", "name", serviceName,
				"tag", runMetadata.Tag,
				"bind", runMetadata.Bind,
				"container-id", runMetadata.ContainerID)
		} else {
			rootLogger.Info("service", "name", serviceName, "tag", "???", "bind", "???", "container-id", "???")
		}
	}
}
