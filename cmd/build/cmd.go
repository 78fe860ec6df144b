package build

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/appministry/stevedore/configs"
	"github.com/appministry/stevedore/pkg/build/commands"
	"github.com/appministry/stevedore/pkg/build/reader"
	"github.com/appministry/stevedore/pkg/build/recipe"
	"github.com/appministry/stevedore/pkg/build/stage"
	"github.com/appministry/stevedore/pkg/containers"
	"github.com/appministry/stevedore/pkg/metadata"
	"github.com/appministry/stevedore/pkg/naming"
	"github.com/appministry/stevedore/pkg/profiles"
	"github.com/appministry/stevedore/pkg/storage"
	"github.com/appministry/stevedore/pkg/storage/resolver"
	"github.com/appministry/stevedore/pkg/tracing"
	"github.com/appministry/stevedore/pkg/utils"
	"github.com/gofrs/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/spf13/cobra"
)

// Command is the build command declaration.
var Command = &cobra.Command{
	Use:   "build",
	Short: "Build a service image from a recipe and store the artifact",
	Run:   run,
	Long:  ``,
}

var (
	commandConfig  = configs.NewBuildCommandConfig()
	logConfig      = configs.NewLoggingConfig()
	profilesConfig = configs.NewProfileCommandConfig()
	tracingConfig  = configs.NewTracingConfig("stevedore-build")
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

	rootLogger := logConfig.NewLogger("build")

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
		if profile.Profile().StorageProvider != "" {
			resolver.StorageProvider = profile.Profile().StorageProvider
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

	rootLogger, spanBuild := tracing.ApplyTraceLogDiscovery(rootLogger, tracer.StartSpan("build"))
	spanBuild.SetTag("tag", commandConfig.Tag)
	cleanup.Add(func() {
		spanBuild.Finish()
	})

	validatingConfigs := []configs.ValidatingConfig{
		commandConfig,
	}

	for _, validatingConfig := range validatingConfigs {
		if err := validatingConfig.Validate(); err != nil {
			spanBuild.SetBaggageItem("error", err.Error())
			rootLogger.Error("configuration is invalid", "reason", err)
			return 1
		}
	}

	storageImpl, resolveErr := resolver.GetStorageImpl(rootLogger)
	if resolveErr != nil {
		rootLogger.Error("failed resolving storage provider", "reason", resolveErr)
		spanBuild.SetBaggageItem("error", resolveErr.Error())
		return 1
	}
	if resolvedProfile != nil {
		if mergedConfig := resolvedProfile.GetMergedStorageConfig(); len(mergedConfig) > 0 {
			if err := storageImpl.Configure(mergedConfig); err != nil {
				rootLogger.Error("failed configuring storage provider from profile", "reason", err)
				spanBuild.SetBaggageItem("error", err.Error())
				return 1
			}
		}
	}

	spanTempDir := tracer.StartSpan("build-temp-dir", opentracing.ChildOf(spanBuild.Context()))

	tempDirectory, err := ioutil.TempDir("", "")
	if err != nil {
		rootLogger.Error("failed creating temporary build directory", "reason", err)
		spanTempDir.SetBaggageItem("error", err.Error())
		spanTempDir.Finish()
		return 1
	}
	cleanup.Add(func() {
		if err := os.RemoveAll(tempDirectory); err != nil {
			rootLogger.Error("failed cleaning up temporary build directory", "reason", err)
		}
	})

	spanTempDir.Finish()

	spanParseRecipe := tracer.StartSpan("build-parse-recipe", opentracing.ChildOf(spanTempDir.Context()))

	readResults, err := reader.ReadFromString(commandConfig.Recipe, tempDirectory)
	if err != nil {
		rootLogger.Error("failed parsing recipe", "reason", err)
		spanParseRecipe.SetBaggageItem("error", err.Error())
		spanParseRecipe.Finish()
		return 1
	}

	scs, readErrs := stage.ReadStages(readResults.Commands())
	for _, readErr := range readErrs {
		rootLogger.Warn("stages read contained an error", "reason", readErr)
	}

	if len(scs.Unnamed()) != 1 {
		rootLogger.Error("recipe must contain exactly one unnamed FROM build stage")
		spanParseRecipe.SetBaggageItem("error", "invalid unnamed count")
		spanParseRecipe.Finish()
		return 1
	}

	if len(scs.Named()) > 0 {
		rootLogger.Error("recipe contains other named stages, this is not supported")
		spanParseRecipe.SetBaggageItem("error", "has named stages")
		spanParseRecipe.Finish()
		return 1
	}

	buildRecipe, warnings, recipeErr := recipe.FromCommands(scs.Unnamed()[0].Commands())
	if recipeErr != nil {
		rootLogger.Error("failed reconstructing the build recipe", "reason", recipeErr)
		spanParseRecipe.SetBaggageItem("error", recipeErr.Error())
		spanParseRecipe.Finish()
		return 1
	}
	for _, warning := range warnings {
		rootLogger.Warn("recipe contained an unsupported command", "reason", warning)
	}

	spanParseRecipe.Finish()

	spanValidate := tracer.StartSpan("build-validate-recipe", opentracing.ChildOf(spanParseRecipe.Context()))

	contextDirectory := resolveContextDirectory(readResults.Commands(), tempDirectory)
	spanValidate.SetTag("context-directory", contextDirectory)

	if err := buildRecipe.Validate(contextDirectory); err != nil {
		rootLogger.Error("recipe validation failed", "reason", err)
		spanValidate.SetBaggageItem("error", err.Error())
		spanValidate.Finish()
		return 1
	}

	spanValidate.Finish()

	rootLogger.Info("building service image", "base", buildRecipe.Base().BaseImage, "tag", commandConfig.Tag)

	spanDockerBuild := tracer.StartSpan("build-docker-build", opentracing.ChildOf(spanValidate.Context()))
	spanDockerBuild.SetTag("docker-tag", commandConfig.Tag)

	client, clientErr := containers.GetDefaultClient()
	if clientErr != nil {
		rootLogger.Error("failed creating a Docker client", "reason", clientErr)
		spanDockerBuild.SetBaggageItem("error", clientErr.Error())
		spanDockerBuild.Finish()
		return 1
	}

	// the canonical recipe has to live inside of the build context:
	stagedRecipeFileName := fmt.Sprintf(".%s.%s", naming.RecipeFileName, naming.GetRandomStageTag())
	stagedRecipePath := filepath.Join(contextDirectory, stagedRecipeFileName)
	if err := ioutil.WriteFile(stagedRecipePath, []byte(buildRecipe.Render()), 0644); err != nil {
		rootLogger.Error("failed staging the canonical recipe in the build context", "reason", err)
		spanDockerBuild.SetBaggageItem("error", err.Error())
		spanDockerBuild.Finish()
		return 1
	}
	cleanup.Add(func() {
		if err := os.Remove(stagedRecipePath); err != nil {
			rootLogger.Warn("failed removing the staged recipe from the build context", "reason", err)
		}
	})

	if err := containers.ImageBuild(context.Background(), client, rootLogger, contextDirectory, containers.ImageBuildOptions{
		BuildArgs:       commandConfig.BuildArgs,
		ExcludePatterns: readResults.ExcludePatterns(),
		NoCache:         commandConfig.NoCache,
		RecipePath:      stagedRecipeFileName,
		Tag:             commandConfig.Tag,
	}); err != nil {
		rootLogger.Error("failed building service image", "reason", err)
		spanDockerBuild.SetBaggageItem("error", err.Error())
		spanDockerBuild.Finish()
		return 1
	}

	spanDockerBuild.Finish()

	spanPersist := tracer.StartSpan("build-artifact-persist", opentracing.ChildOf(spanDockerBuild.Context()))

	ok, org, image, version := utils.TagDecompose(commandConfig.Tag)
	if !ok {
		rootLogger.Error("tag defined but failed to parse", "tag", commandConfig.Tag)
		spanPersist.SetBaggageItem("error", "tag defined but failed to parse")
		spanPersist.Finish()
		return 1
	}

	buildID := strings.ReplaceAll(uuid.Must(uuid.NewV4()).String(), "-", "")

	mdBuild := &metadata.MDBuild{
		BaseImage: buildRecipe.Base().BaseImage,
		BuildConfig: metadata.MDBuildConfig{
			BuildArgs:    commandConfig.BuildArgs,
			Manifest:     buildRecipe.ManifestPath(),
			NoCache:      commandConfig.NoCache,
			RecipeSource: commandConfig.Recipe,
		},
		CreatedAtUTC: time.Now().UTC().Unix(),
		Env:          buildRecipe.EnvironmentMap(),
		Image: metadata.MDImage{
			Org:     org,
			Image:   image,
			Version: version,
		},
		Labels:     map[string]string{"build-id": buildID},
		LaunchExec: buildRecipe.Launch().Exec(),
		Ports:      []string{fmt.Sprintf("%d/tcp", buildRecipe.Launch().DefaultPort)},
		Tag:        commandConfig.Tag,
		Type:       metadata.MetadataTypeBuild,
	}

	mdMap, mdErr := metadata.AsMap(mdBuild)
	if mdErr != nil {
		rootLogger.Error("failed converting build metadata", "reason", mdErr)
		spanPersist.SetBaggageItem("error", mdErr.Error())
		spanPersist.Finish()
		return 1
	}

	storedRecipePath := filepath.Join(tempDirectory, naming.RecipeFileName)
	if err := ioutil.WriteFile(storedRecipePath, []byte(buildRecipe.Render()), 0644); err != nil {
		rootLogger.Error("failed writing the canonical recipe for storage", "reason", err)
		spanPersist.SetBaggageItem("error", err.Error())
		spanPersist.Finish()
		return 1
	}

	storeResult, storeErr := storageImpl.StoreArtifactFile(&storage.ArtifactStore{
		LocalPath: storedRecipePath,
		Metadata:  mdMap,
		Org:       org,
		Image:     image,
		Version:   version,
	})
	if storeErr != nil {
		rootLogger.Error("failed storing built artifact", "reason", storeErr)
		spanPersist.SetBaggageItem("error", storeErr.Error())
		spanPersist.Finish()
		return 1
	}

	spanPersist.Finish()

	rootLogger.Info("build completed successfully, artifact stored",
		"tag", commandConfig.Tag,
		"build-id", buildID,
		"recipe-location", storeResult.RecipeLocation,
		"metadata-location", storeResult.MetadataLocation)

	return 0
}

// resolveContextDirectory finds the build context directory. The copy commands
// carry the location the recipe was actually read from, which for git sourced
// recipes is inside of the checked out tree.
func resolveContextDirectory(inputs []interface{}, fallback string) string {
	for _, input := range inputs {
		if tcmd, ok := input.(commands.Copy); ok && tcmd.OriginalSource != "" {
			if _, err := utils.CheckIfExistsAndIsRegular(tcmd.OriginalSource); err == nil {
				return filepath.Dir(tcmd.OriginalSource)
			}
		}
	}
	if _, err := utils.CheckIfExistsAndIsRegular(commandConfig.Recipe); err == nil {
		return filepath.Dir(commandConfig.Recipe)
	}
	return fallback
}
