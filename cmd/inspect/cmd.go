package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/appministry/stevedore/configs"
	"github.com/appministry/stevedore/pkg/containers"
	"github.com/appministry/stevedore/pkg/metadata"
	"github.com/appministry/stevedore/pkg/profiles"
	"github.com/appministry/stevedore/pkg/storage"
	"github.com/appministry/stevedore/pkg/storage/resolver"
	"github.com/appministry/stevedore/pkg/tracing"
	"github.com/appministry/stevedore/pkg/utils"
	"github.com/hashicorp/go-hclog"
	"github.com/opentracing/opentracing-go"
	"github.com/spf13/cobra"
)

// Command is the build command declaration.
var Command = &cobra.Command{
	Use:   "inspect",
	Short: "Inspects a stored build artifact",
	Run:   run,
	Long:  ``,
}

var (
	commandConfig  = configs.NewInspectCommandConfig()
	logConfig      = configs.NewLoggingConfig()
	profilesConfig = configs.NewProfileCommandConfig()
	tracingConfig  = configs.NewTracingConfig("stevedore-inspect")
)

func initFlags() {
	Command.Flags().AddFlagSet(commandConfig.FlagSet())
	Command.Flags().AddFlagSet(logConfig.FlagSet())
	Command.Flags().AddFlagSet(profilesConfig.FlagSet())
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

	rootLogger := logConfig.NewLogger("inspect")

	var resolvedProfile profiles.ResolvedProfile
	if profilesConfig.Profile != "" {
		profile, err := profiles.ReadProfile(profilesConfig.Profile, profilesConfig.ProfileConfDir)
		if err != nil {
			rootLogger.Error("failed resolving profile", "reason", err, "profile", profilesConfig.Profile)
			return 1
		}
		if err := profile.UpdateConfigs(tracingConfig); err != nil {
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

	rootLogger, spanInspect := tracing.ApplyTraceLogDiscovery(rootLogger, tracer.StartSpan("inspect"))
	spanInspect.SetTag("tag", commandConfig.Tag)
	cleanup.Add(func() {
		spanInspect.Finish()
	})

	validatingConfigs := []configs.ValidatingConfig{
		commandConfig,
	}

	for _, validatingConfig := range validatingConfigs {
		if err := validatingConfig.Validate(); err != nil {
			spanInspect.SetBaggageItem("error", err.Error())
			rootLogger.Error("configuration is invalid", "reason", err)
			return 1
		}
	}

	spanFetchMetadata := tracer.StartSpan("inspect-fetch-metadata", opentracing.ChildOf(spanInspect.Context()))

	output, inspectErr := inspectArtifact(rootLogger, resolvedProfile)
	if inspectErr != nil {
		rootLogger.Error("failed inspecting the artifact", "reason", inspectErr, "tag", commandConfig.Tag)
		spanFetchMetadata.SetBaggageItem("error", inspectErr.Error())
		spanFetchMetadata.Finish()
		return 1
	}

	spanFetchMetadata.Finish()

	jsonBytes, jsonErr := json.MarshalIndent(output, "", "  ")
	if jsonErr != nil {
		rootLogger.Error("failed serializing artifact metadata to JSON", "reason", jsonErr, "tag", commandConfig.Tag)
		spanInspect.SetBaggageItem("error", jsonErr.Error())
		return 1
	}

	fmt.Println(string(jsonBytes))

	return 0
}

// inspectArtifact resolves the artifact metadata. Storage is the primary
// source, the local Docker image config is the fallback.
func inspectArtifact(logger hclog.Logger, resolvedProfile profiles.ResolvedProfile) (interface{}, error) {

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

	client, clientErr := containers.GetDefaultClient()
	if clientErr != nil {
		return nil, clientErr
	}
	imageMetadata, configErr := containers.ReadImageConfig(context.Background(), client, logger, commandConfig.Tag)
	if configErr != nil {
		return nil, configErr
	}
	return &imageInspectResult{
		Image:  imageMetadata,
		Recipe: containers.ImageRecipe(imageMetadata),
	}, nil
}

// imageInspectResult is the inspect output assembled from the local image
// config when the artifact is not in storage.
type imageInspectResult struct {
	Image  *containers.DockerImageMetadata `json:"Image"`
	Recipe []string                        `json:"Recipe"`
}
