package kill

import (
	"context"
	"os"
	"path/filepath"

	"github.com/appministry/stevedore/configs"
	"github.com/appministry/stevedore/pkg/containers"
	"github.com/appministry/stevedore/pkg/profiles"
	"github.com/appministry/stevedore/pkg/runcache"
	"github.com/appministry/stevedore/pkg/tracing"
	"github.com/appministry/stevedore/pkg/utils"
	"github.com/opentracing/opentracing-go"
	"github.com/spf13/cobra"
)

// Command is the build command declaration.
var Command = &cobra.Command{
	Use:   "kill",
	Short: "Stop and remove a running service",
	Run:   run,
	Long:  ``,
}

var (
	commandConfig  = configs.NewKillCommandConfig()
	logConfig      = configs.NewLoggingConfig()
	profilesConfig = configs.NewProfileCommandConfig()
	runCache       = configs.NewRunCacheConfig()
	tracingConfig  = configs.NewTracingConfig("stevedore-kill")
)

func initFlags() {
	Command.Flags().AddFlagSet(commandConfig.FlagSet())
	Command.Flags().AddFlagSet(logConfig.FlagSet())
	Command.Flags().AddFlagSet(profilesConfig.FlagSet())
	Command.Flags().AddFlagSet(runCache.FlagSet())
	Command.Flags().AddFlagSet(tracingConfig.FlagSet())
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

	rootLogger := logConfig.NewLogger("kill")

	if profilesConfig.Profile != "" {
		profile, err := profiles.ReadProfile(profilesConfig.Profile, profilesConfig.ProfileConfDir)
		if err != nil {
			rootLogger.Error("failed resolving profile", "reason", err, "profile", profilesConfig.Profile)
			return 1
		}
		if err := profile.UpdateConfigs(runCache, tracingConfig); err != nil {
			rootLogger.Error("error updating configuration from profile", "reason", err)
			return 1
		}
	}

	// tracing:

	rootLogger.Info("configuring tracing", "enabled", tracingConfig.Enable, "application-name", tracingConfig.ApplicationName)

	tracer, tracerCleanupFunc, tracerErr := tracing.GetTracer(rootLogger.Named("tracer"), tracingConfig)
	if tracerErr != nil {
		rootLogger.Error("failed constructing tracer", "reason", tracerErr)
		return 1
	}

	cleanup.Add(tracerCleanupFunc)

	rootLogger, spanKill := tracing.ApplyTraceLogDiscovery(rootLogger, tracer.StartSpan("kill"))
	spanKill.SetTag("name", commandConfig.Name)
	cleanup.Add(func() {
		spanKill.Finish()
	})

	validatingConfigs := []configs.ValidatingConfig{
		commandConfig,
		runCache,
	}

	for _, validatingConfig := range validatingConfigs {
		if err := validatingConfig.Validate(); err != nil {
			spanKill.SetBaggageItem("error", err.Error())
			rootLogger.Error("configuration is invalid", "reason", err)
			return 1
		}
	}

	spanFetchMetadata := tracer.StartSpan("kill-fetch-metadata", opentracing.ChildOf(spanKill.Context()))

	cacheDirectory := filepath.Join(runCache.RunCache, commandConfig.Name)
	runMetadata, hasMetadata, metadataErr := runcache.FetchMetadataIfExists(cacheDirectory)
	if metadataErr != nil {
		rootLogger.Error("failed loading run metadata", "reason", metadataErr, "run-cache", runCache.RunCache)
		spanFetchMetadata.SetBaggageItem("error", metadataErr.Error())
		spanFetchMetadata.Finish()
		return 1
	}

	spanFetchMetadata.SetTag("has-metadata", hasMetadata)

	if !hasMetadata {
		rootLogger.Error("run cache directory did not contain the service metadata", "run-cache", runCache.RunCache)
		spanFetchMetadata.Finish()
		return 1
	}

	spanFetchMetadata.Finish()

	serviceLogger := rootLogger.With("container-id", runMetadata.ContainerID, "tag", runMetadata.Tag)

	client, clientErr := containers.GetDefaultClient()
	if clientErr != nil {
		serviceLogger.Error("failed creating a Docker client", "reason", clientErr)
		spanKill.SetBaggageItem("error", clientErr.Error())
		return 1
	}

	spanServiceStop := tracer.StartSpan("kill-service-stop", opentracing.ChildOf(spanFetchMetadata.Context()))

	if containers.ContainerExists(context.Background(), client, runMetadata.ContainerID) {
		serviceLogger.Info("stopping service", "shutdown-timeout", commandConfig.ShutdownTimeout.String())
		containers.ServiceStop(context.Background(), client, serviceLogger, runMetadata.ContainerID, commandConfig.ShutdownTimeout)
		containers.ServiceRemove(context.Background(), client, serviceLogger, runMetadata.ContainerID)
	} else {
		serviceLogger.Warn("service container no longer exists, cleaning up the cache entry only")
	}

	spanServiceStop.Finish()

	if err := os.RemoveAll(cacheDirectory); err != nil {
		serviceLogger.Error("failed removing the run cache entry", "reason", err, "path", cacheDirectory)
		spanKill.SetBaggageItem("error", err.Error())
		return 1
	}

	serviceLogger.Info("service killed")

	return 0
}
