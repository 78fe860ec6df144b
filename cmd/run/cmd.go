package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/appministry/stevedore/configs"
	"github.com/appministry/stevedore/pkg/build/launch"
	"github.com/appministry/stevedore/pkg/containers"
	"github.com/appministry/stevedore/pkg/flock"
	"github.com/appministry/stevedore/pkg/metadata"
	"github.com/appministry/stevedore/pkg/naming"
	"github.com/appministry/stevedore/pkg/profiles"
	"github.com/appministry/stevedore/pkg/runcache"
	"github.com/appministry/stevedore/pkg/storage"
	"github.com/appministry/stevedore/pkg/storage/resolver"
	"github.com/appministry/stevedore/pkg/tracing"
	"github.com/appministry/stevedore/pkg/utils"
	docker "github.com/docker/docker/client"
	"github.com/hashicorp/go-hclog"
	"github.com/opentracing/opentracing-go"
	"github.com/spf13/cobra"
)

// Command is the build command declaration.
var Command = &cobra.Command{
	Use:   "run",
	Short: "Run a service container from a built image",
	Run:   run,
	Long:  ``,
}

var (
	commandConfig  = configs.NewRunCommandConfig()
	logConfig      = configs.NewLoggingConfig()
	profilesConfig = configs.NewProfileCommandConfig()
	runCache       = configs.NewRunCacheConfig()
	tracingConfig  = configs.NewTracingConfig("stevedore-run")
)

func initFlags() {
	Command.Flags().AddFlagSet(commandConfig.FlagSet())
	Command.Flags().AddFlagSet(logConfig.FlagSet())
	Command.Flags().AddFlagSet(profilesConfig.FlagSet())
	Command.Flags().AddFlagSet(runCache.FlagSet())
	Command.Flags().AddFlagSet(tracingConfig.FlagSet())
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

	rootLogger := logConfig.NewLogger("run")

	var resolvedProfile profiles.ResolvedProfile
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
		resolvedProfile = profile
	}

	// tracing:

	rootLogger.Info("configuring tracing", "enabled", tracingConfig.Enable, "application-name", tracingConfig.ApplicationName)

	tracer, tracerCleanupFunc, tracerErr := tracing.GetTracer(rootLogger.Named("tracer"), tracingConfig)
	if tracerErr != nil {
		rootLogger.Error("failed constructing tracer", "reason", tracerErr)
		return 1
	}

	cleanup.Add(tracerCleanupFunc)

	rootLogger, spanRun := tracing.ApplyTraceLogDiscovery(rootLogger, tracer.StartSpan("run"))
	spanRun.SetTag("tag", commandConfig.Tag)
	cleanup.Add(func() {
		spanRun.Finish()
	})

	validatingConfigs := []configs.ValidatingConfig{
		commandConfig,
		runCache,
	}

	for _, validatingConfig := range validatingConfigs {
		if err := validatingConfig.Validate(); err != nil {
			spanRun.SetBaggageItem("error", err.Error())
			rootLogger.Error("configuration is invalid", "reason", err)
			return 1
		}
	}

	client, clientErr := containers.GetDefaultClient()
	if clientErr != nil {
		rootLogger.Error("failed creating a Docker client", "reason", clientErr)
		spanRun.SetBaggageItem("error", clientErr.Error())
		return 1
	}

	spanResolveMetadata := tracer.StartSpan("run-resolve-metadata", opentracing.ChildOf(spanRun.Context()))

	mdBuild, resolveErr := resolveBuildMetadata(client, rootLogger, resolvedProfile)
	if resolveErr != nil {
		rootLogger.Error("failed resolving build metadata for the image", "reason", resolveErr, "tag", commandConfig.Tag)
		spanResolveMetadata.SetBaggageItem("error", resolveErr.Error())
		spanResolveMetadata.Finish()
		return 1
	}

	spanResolveMetadata.Finish()

	// the image environment is the base, the files and the individual
	// variables layer on top, --port wins over everything:
	serviceEnv := map[string]string{}
	for k, v := range mdBuild.Env {
		serviceEnv[k] = v
	}
	configuredEnv, envErr := commandConfig.MergedEnvironment()
	if envErr != nil {
		rootLogger.Error("failed resolving the configured environment", "reason", envErr)
		spanRun.SetBaggageItem("error", envErr.Error())
		return 1
	}
	for k, v := range configuredEnv {
		serviceEnv[k] = v
	}
	if commandConfig.Port > 0 {
		serviceEnv[launch.DefaultPortVariable] = strconv.Itoa(commandConfig.Port)
	}

	launchCommand, launchErr := launch.FromValues(mdBuild.LaunchExec)
	if launchErr != nil {
		rootLogger.Error("image launch command is not understood", "reason", launchErr, "launch-exec", mdBuild.LaunchExec)
		spanRun.SetBaggageItem("error", launchErr.Error())
		return 1
	}

	bind := launchCommand.EffectiveBind(serviceEnv)

	serviceName := commandConfig.Name
	if serviceName == "" {
		serviceName = naming.GetRandomServiceName()
	}

	serviceLogger := rootLogger.With("name", serviceName, "bind", bind)

	if _, findErr := containers.FindImageIDByTag(context.Background(), client, commandConfig.Tag); findErr != nil {
		serviceLogger.Info("image not found locally, pulling", "tag", commandConfig.Tag)
		if pullErr := containers.ImagePull(context.Background(), client, serviceLogger, commandConfig.Tag); pullErr != nil {
			serviceLogger.Error("failed pulling the image", "reason", pullErr, "tag", commandConfig.Tag)
			spanRun.SetBaggageItem("error", pullErr.Error())
			return 1
		}
	}

	spanServiceStart := tracer.StartSpan("run-service-start", opentracing.ChildOf(spanResolveMetadata.Context()))
	spanServiceStart.SetTag("name", serviceName)

	containerID, startErr := containers.ServiceStart(context.Background(), client, serviceLogger, containers.ServiceStartOptions{
		Bind: bind,
		Env:  serviceEnv,
		Name: serviceName,
		Tag:  commandConfig.Tag,
	})
	if startErr != nil {
		serviceLogger.Error("failed starting the service container", "reason", startErr)
		spanServiceStart.SetBaggageItem("error", startErr.Error())
		spanServiceStart.Finish()
		return 1
	}

	spanServiceStart.Finish()

	serviceLogger = serviceLogger.With("container-id", containerID)

	mdRun := &metadata.MDRun{
		Bind:         bind,
		Build:        mdBuild,
		ContainerID:  containerID,
		EnvKeys:      sortedKeys(serviceEnv),
		Name:         serviceName,
		RunCache:     runCache.RunCache,
		StartedAtUTC: time.Now().UTC().Unix(),
		Tag:          commandConfig.Tag,
		Type:         metadata.MetadataTypeRun,
	}

	if err := writeRunMetadata(mdRun); err != nil {
		serviceLogger.Error("failed writing the run cache entry, stopping the service", "reason", err)
		spanRun.SetBaggageItem("error", err.Error())
		containers.ServiceStop(context.Background(), client, serviceLogger, containerID, containers.ContainerStopTimeout)
		containers.ServiceRemove(context.Background(), client, serviceLogger, containerID)
		return 1
	}

	if commandConfig.Detach {
		serviceLogger.Info("service started in the detached mode")
		return 0
	}

	serviceLogger.Info("service started, waiting for exit or signal")

	chanSignal := make(chan os.Signal, 1)
	signal.Notify(chanSignal, os.Interrupt, syscall.SIGTERM)

	chanWait := make(chan error, 1)
	go func() {
		chanWait <- containers.ServiceWait(context.Background(), client, serviceLogger, containerID)
	}()

	exitCode := 0
	select {
	case <-chanSignal:
		serviceLogger.Info("signal received, stopping the service")
		containers.ServiceStop(context.Background(), client, serviceLogger, containerID, containers.ContainerStopTimeout)
	case waitErr := <-chanWait:
		if waitErr != nil {
			serviceLogger.Error("service finished with an error", "reason", waitErr)
			exitCode = 1
		}
	}

	containers.ServiceRemove(context.Background(), client, serviceLogger, containerID)

	cacheDirectory := filepath.Join(runCache.RunCache, serviceName)
	if err := os.RemoveAll(cacheDirectory); err != nil {
		serviceLogger.Error("failed removing the run cache entry", "reason", err, "path", cacheDirectory)
	}

	serviceLogger.Info("service stopped")

	return exitCode
}

// resolveBuildMetadata loads the stored build metadata for the configured tag.
// When no storage provider is configured or the artifact is gone, the metadata
// is reconstructed from the local Docker image config.
func resolveBuildMetadata(client *docker.Client, logger hclog.Logger, resolvedProfile profiles.ResolvedProfile) (*metadata.MDBuild, error) {

	storageProvider := resolver.StorageProvider
	if resolvedProfile != nil && resolvedProfile.Profile().StorageProvider != "" {
		storageProvider = resolvedProfile.Profile().StorageProvider
	}

	if storageProvider != "" {
		storageImpl, resolveErr := resolver.GetStorageImplWithProvider(logger, storageProvider)
		if resolveErr != nil {
			return nil, resolveErr
		}
		if resolvedProfile != nil {
			if mergedConfig := resolvedProfile.GetMergedStorageConfig(); len(mergedConfig) > 0 {
				if err := storageImpl.Configure(mergedConfig); err != nil {
					return nil, err
				}
			}
		}
		ok, org, image, version := utils.TagDecompose(commandConfig.Tag)
		if !ok {
			return nil, fmt.Errorf("tag defined but failed to parse: '%s'", commandConfig.Tag)
		}
		artifact, fetchErr := storageImpl.FetchArtifact(&storage.ArtifactLookup{Org: org, Image: image, Version: version})
		if fetchErr == nil {
			return metadata.MDBuildFromInterface(artifact.Metadata())
		}
		logger.Warn("stored artifact not resolved, falling back to the image config", "reason", fetchErr)
	}

	imageMetadata, configErr := containers.ReadImageConfig(context.Background(), client, logger, commandConfig.Tag)
	if configErr != nil {
		return nil, configErr
	}

	env := map[string]string{}
	for _, entry := range imageMetadata.Config.Config.Env {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		}
	}
	ports := []string{}
	for port := range imageMetadata.Config.Config.ExposedPorts {
		ports = append(ports, port)
	}
	sort.Strings(ports)

	return &metadata.MDBuild{
		Env:        env,
		LaunchExec: imageMetadata.Config.Config.Cmd,
		Ports:      ports,
		Tag:        commandConfig.Tag,
		Type:       metadata.MetadataTypeBuild,
	}, nil
}

func sortedKeys(env map[string]string) []string {
	keys := []string{}
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeRunMetadata persists the run cache entry under the cross process
// cache lock.
func writeRunMetadata(mdRun *metadata.MDRun) error {
	if err := os.MkdirAll(mdRun.RunCache, 0755); err != nil {
		return err
	}
	lock := flock.New(filepath.Join(mdRun.RunCache, naming.StorageLockFileName))
	if err := lock.AcquireWithTimeout(time.Second * 10); err != nil {
		return err
	}
	defer lock.Release()
	return runcache.WriteMetadataToFile(mdRun)
}
