package render

import (
	"fmt"
	"io/ioutil"
	"os"
	"strconv"

	"github.com/appministry/stevedore/configs"
	"github.com/appministry/stevedore/pkg/build/launch"
	"github.com/appministry/stevedore/pkg/build/reader"
	"github.com/appministry/stevedore/pkg/build/recipe"
	"github.com/appministry/stevedore/pkg/build/stage"
	"github.com/appministry/stevedore/pkg/utils"
	"github.com/spf13/cobra"
)

// Command is the build command declaration.
var Command = &cobra.Command{
	Use:   "render",
	Short: "Render a canonical build recipe",
	Run:   run,
	Long:  ``,
}

var (
	commandConfig = configs.NewRenderCommandConfig()
	logConfig     = configs.NewLoggingConfig()
)

func initFlags() {
	Command.Flags().AddFlagSet(commandConfig.FlagSet())
	Command.Flags().AddFlagSet(logConfig.FlagSet())
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

	rootLogger := logConfig.NewLogger("render")

	validatingConfigs := []configs.ValidatingConfig{
		commandConfig,
	}

	for _, validatingConfig := range validatingConfigs {
		if err := validatingConfig.Validate(); err != nil {
			rootLogger.Error("configuration is invalid", "reason", err)
			return 1
		}
	}

	var buildRecipe *recipe.Recipe

	if commandConfig.Recipe != "" {

		// normalize an existing recipe:

		tempDirectory, err := ioutil.TempDir("", "")
		if err != nil {
			rootLogger.Error("failed creating temporary directory", "reason", err)
			return 1
		}
		cleanup.Add(func() {
			if err := os.RemoveAll(tempDirectory); err != nil {
				rootLogger.Error("failed cleaning up temporary directory", "reason", err)
			}
		})

		readResults, err := reader.ReadFromString(commandConfig.Recipe, tempDirectory)
		if err != nil {
			rootLogger.Error("failed parsing recipe", "reason", err)
			return 1
		}

		scs, readErrs := stage.ReadStages(readResults.Commands())
		for _, readErr := range readErrs {
			rootLogger.Warn("stages read contained an error", "reason", readErr)
		}

		if len(scs.Unnamed()) != 1 {
			rootLogger.Error("recipe must contain exactly one unnamed FROM build stage")
			return 1
		}

		reconstructed, warnings, recipeErr := recipe.FromCommands(scs.Unnamed()[0].Commands())
		if recipeErr != nil {
			rootLogger.Error("failed reconstructing the build recipe", "reason", recipeErr)
			return 1
		}
		for _, warning := range warnings {
			rootLogger.Warn("recipe contained an unsupported command", "reason", warning)
		}

		buildRecipe = reconstructed

	} else {

		// compose a recipe from the individual flags, the payload directory
		// is the build context:

		buildRecipe = recipe.New()
		operations := []func() error{
			func() error { return buildRecipe.SelectBase(commandConfig.Base) },
			func() error { return buildRecipe.SetWorkingDirectory(commandConfig.Workdir) },
			func() error { return buildRecipe.InstallDependencies(commandConfig.Manifest) },
			func() error { return buildRecipe.CopyPayload(".", "./") },
			func() error {
				return buildRecipe.SetEnvironment(launch.DefaultPortVariable, strconv.Itoa(commandConfig.Port))
			},
			func() error { return buildRecipe.DefineLaunch(launch.DefaultCommand(commandConfig.EntryPoint)) },
		}
		for _, operation := range operations {
			if err := operation(); err != nil {
				rootLogger.Error("failed composing the build recipe", "reason", err)
				return 1
			}
		}

		if err := buildRecipe.Validate(commandConfig.Payload); err != nil {
			rootLogger.Error("recipe validation failed", "reason", err)
			return 1
		}

	}

	rendered := buildRecipe.Render()

	if commandConfig.Output == "" {
		fmt.Print(rendered)
		return 0
	}

	if err := ioutil.WriteFile(commandConfig.Output, []byte(rendered), 0644); err != nil {
		rootLogger.Error("failed writing the rendered recipe", "reason", err, "output", commandConfig.Output)
		return 1
	}

	rootLogger.Info("recipe rendered", "output", commandConfig.Output)

	return 0
}
