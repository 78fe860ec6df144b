package purge

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/appministry/stevedore/configs"
	"github.com/appministry/stevedore/pkg/containers"
	"github.com/appministry/stevedore/pkg/profiles"
	"github.com/appministry/stevedore/pkg/runcache"
	"github.com/appministry/stevedore/pkg/storage"
	"github.com/appministry/stevedore/pkg/storage/resolver"
	"github.com/appministry/stevedore/pkg/utils"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

// Command is the build command declaration.
var Command = &cobra.Command{
	Use:   "purge",
	Short: "Removes stored artifacts and sweeps stale run cache entries",
	Run:   run,
	Long:  ``,
}

var (
	commandConfig  = configs.NewPurgeCommandConfig()
	logConfig      = configs.NewLoggingConfig()
	profilesConfig = configs.NewProfileCommandConfig()
	runCache       = configs.NewRunCacheConfig()
)

func initFlags() {
	Command.Flags().AddFlagSet(commandConfig.FlagSet())
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
	os.Exit(processCommand())
}

func processCommand() int {

	cleanup := utils.NewDefers()
	defer cleanup.CallAll()

	rootLogger := logConfig.NewLogger("purge").With("run-cache", runCache.RunCache)

	storageConfigOverride := map[string]interface{}{}
	if profilesConfig.Profile != "" {
		profile, err := profiles.ReadProfile(profilesConfig.Profile, profilesConfig.ProfileConfDir)
		if err != nil {
			rootLogger.Error("failed resolving profile", "reason", err, "profile", profilesConfig.Profile)
			return 1
		}
		if err := profile.UpdateConfigs(runCache); err != nil {
			rootLogger.Error("error updating configuration from profile", "reason", err)
			return 1
		}
		if profile.Profile().StorageProvider != "" {
			resolver.StorageProvider = profile.Profile().StorageProvider
		}
		storageConfigOverride = profile.GetMergedStorageConfig()
	}

	validatingConfigs := []configs.ValidatingConfig{
		commandConfig,
		runCache,
	}

	for _, validatingConfig := range validatingConfigs {
		if err := validatingConfig.Validate(); err != nil {
			rootLogger.Error("configuration is invalid", "reason", err)
			return 1
		}
	}

	if commandConfig.Tag != "" {
		if err := purgeArtifact(rootLogger, storageConfigOverride); err != nil {
			rootLogger.Error("failed purging the stored artifact", "reason", err, "tag", commandConfig.Tag)
			return 1
		}
		rootLogger.Info("artifact purged", "tag", commandConfig.Tag)
	}

	sweepRunCache(rootLogger)

	return 0
}

// purgeArtifact removes the stored artifact and the local Docker image
// for the configured tag.
func purgeArtifact(logger hclog.Logger, storageConfigOverride map[string]interface{}) error {

	storageImpl, resolveErr := resolver.GetStorageImpl(logger)
	if resolveErr != nil {
		return resolveErr
	}
	if len(storageConfigOverride) > 0 {
		if err := storageImpl.Configure(storageConfigOverride); err != nil {
			return err
		}
	}

	ok, org, image, version := utils.TagDecompose(commandConfig.Tag)
	if !ok {
		return fmt.Errorf("tag defined but failed to parse: '%s'", commandConfig.Tag)
	}

	if err := storageImpl.RemoveArtifact(&storage.ArtifactLookup{Org: org, Image: image, Version: version}); err != nil {
		return err
	}

	client, clientErr := containers.GetDefaultClient()
	if clientErr != nil {
		logger.Warn("artifact removed but the Docker client is not available", "reason", clientErr)
		return nil
	}
	if err := containers.ImageRemove(context.Background(), client, logger, commandConfig.Tag); err != nil {
		logger.Warn("artifact removed but the local image was not", "reason", err)
	}

	return nil
}

// sweepRunCache removes run cache entries whose containers are gone.
func sweepRunCache(rootLogger hclog.Logger) {

	client, clientErr := containers.GetDefaultClient()
	if clientErr != nil {
		rootLogger.Error("failed creating a Docker client, not sweeping the run cache", "reason", clientErr)
		return
	}

	fileInfos, readDirErr := ioutil.ReadDir(runCache.RunCache)
	if readDirErr != nil {
		if !os.IsNotExist(readDirErr) {
			rootLogger.Error("error listing run cache directory", "reason", readDirErr)
		}
		return
	}

	for _, fileInfo := range fileInfos {
		if !fileInfo.IsDir() {
			continue
		}

		entry := fileInfo.Name()
		runMetadata, hasMetadata, err := runcache.FetchMetadataIfExists(filepath.Join(runCache.RunCache, entry))
		if err != nil {
			rootLogger.Error("metadata error for cache entry, skipping", "entry", entry, "reason", err)
			continue
		}

		if !hasMetadata {
			rootLogger.Warn("no metadata for entry, skipping", "entry", entry)
			continue
		}

		serviceLogger := rootLogger.With("name", runMetadata.Name, "container-id", runMetadata.ContainerID)

		if containers.ContainerExists(context.Background(), client, runMetadata.ContainerID) {
			serviceLogger.Debug("skipping entry with an existing container")
			continue
		}

		cacheDirectory := filepath.Join(runCache.RunCache, entry)
		if err := os.RemoveAll(cacheDirectory); err != nil {
			serviceLogger.Error("failed removing cache directory", "reason", err, "path", cacheDirectory)
			continue
		}

		serviceLogger.Info(runMetadata.Name)
	}
}
