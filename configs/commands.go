package configs

import (
	"fmt"
	"os"
	"time"

	"github.com/appministry/stevedore/pkg/utils"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/subosito/gotenv"
)

// BuildCommandConfig is the build command configuration.
type BuildCommandConfig struct {
	flagBase

	BuildArgs map[string]string
	Recipe    string
	NoCache   bool
	Tag       string
}

// NewBuildCommandConfig returns new command configuration.
func NewBuildCommandConfig() *BuildCommandConfig {
	return &BuildCommandConfig{}
}

// FlagSet returns an instance of the flag set for the configuration.
func (c *BuildCommandConfig) FlagSet() *pflag.FlagSet {
	if c.initFlagSet() {
		c.flagSet.StringToStringVar(&c.BuildArgs, "build-arg", map[string]string{}, "Build arguments, multiple OK")
		c.flagSet.StringVar(&c.Recipe, "recipe", "", "Local or remote (HTTP / git) path to the build recipe; if the recipe uses ADD or COPY commands, it's recommended to use a local file")
		c.flagSet.BoolVar(&c.NoCache, "no-cache", false, "When set, the image is built without the Docker layer cache")
		c.flagSet.StringVar(&c.Tag, "tag", "", "Tag name of the build, required; must be org/name:version")
	}
	return c.flagSet
}

// Validate validates the correctness of the configuration.
func (c *BuildCommandConfig) Validate() error {
	if c.Recipe == "" {
		return fmt.Errorf("--recipe is empty")
	}
	if c.Tag == "" {
		return fmt.Errorf("--tag is empty")
	}
	if !utils.IsValidTag(c.Tag) {
		return fmt.Errorf("--tag value '%s' is invalid", c.Tag)
	}
	return nil
}

// RenderCommandConfig is the render command configuration.
// A recipe is either read from --recipe or composed from the
// --base / --workdir / --manifest / --payload / --entrypoint flags.
type RenderCommandConfig struct {
	flagBase

	Base       string
	EntryPoint string
	Manifest   string
	Output     string
	Payload    string
	Port       int
	Recipe     string
	Workdir    string
}

// NewRenderCommandConfig returns new command configuration.
func NewRenderCommandConfig() *RenderCommandConfig {
	return &RenderCommandConfig{}
}

// FlagSet returns an instance of the flag set for the configuration.
func (c *RenderCommandConfig) FlagSet() *pflag.FlagSet {
	if c.initFlagSet() {
		c.flagSet.StringVar(&c.Base, "base", "", "Base image reference, for example python:3.9-slim")
		c.flagSet.StringVar(&c.EntryPoint, "entrypoint", "main:app", "Application entry point as module:attribute")
		c.flagSet.StringVar(&c.Manifest, "manifest", "requirements.txt", "Dependency manifest path, relative to the payload directory")
		c.flagSet.StringVar(&c.Output, "output", "", "Write the rendered recipe to this file; prints to stdout when empty")
		c.flagSet.StringVar(&c.Payload, "payload", ".", "Application payload directory")
		c.flagSet.IntVar(&c.Port, "port", 8080, "Default listen port recorded in the image environment")
		c.flagSet.StringVar(&c.Recipe, "recipe", "", "Local or remote path to an existing build recipe to normalize")
		c.flagSet.StringVar(&c.Workdir, "workdir", "/app", "Working directory inside the image")
	}
	return c.flagSet
}

// Validate validates the correctness of the configuration.
func (c *RenderCommandConfig) Validate() error {
	if c.Recipe == "" && c.Base == "" {
		return fmt.Errorf("either --recipe or --base is required")
	}
	return nil
}

// RunCommandConfig is the run command configuration.
type RunCommandConfig struct {
	flagBase

	Detach   bool
	EnvFiles []string
	EnvVars  map[string]string
	Name     string
	Port     int
	Tag      string
}

// NewRunCommandConfig returns new command configuration.
func NewRunCommandConfig() *RunCommandConfig {
	return &RunCommandConfig{}
}

// FlagSet returns an instance of the flag set for the configuration.
func (c *RunCommandConfig) FlagSet() *pflag.FlagSet {
	if c.initFlagSet() {
		c.flagSet.BoolVar(&c.Detach, "detach", false, "When set, runs the service container in the detached mode")
		c.flagSet.StringArrayVar(&c.EnvFiles, "env-file", []string{}, "Full path to an environment file to apply to the service, multiple OK")
		c.flagSet.StringToStringVar(&c.EnvVars, "env", map[string]string{}, "Additional environment variables to apply to the service, multiple OK")
		c.flagSet.StringVar(&c.Name, "name", "", "Name of the service container; if empty, a random name will be assigned")
		c.flagSet.IntVar(&c.Port, "port", 0, "Overrides the PORT variable recorded in the image; 0 keeps the recorded value")
		c.flagSet.StringVar(&c.Tag, "tag", "", "The image to launch, for example: acme/video-api:1.0.0")
	}
	return c.flagSet
}

// MergedEnvironment returns merged environment declared by the configuration.
// The order of merging:
//   - parse each env file in order provided
//   - apply all individual --env values
//
// Duplicated values are always overriden.
func (c *RunCommandConfig) MergedEnvironment() (map[string]string, error) {
	env := map[string]string{}
	for _, envFile := range c.EnvFiles {
		f, openErr := os.Open(envFile)
		if openErr != nil {
			return env, errors.Wrapf(openErr, "failed opening environment file '%s' for reading", envFile)
		}
		defer f.Close()
		partialEnv, parseErr := gotenv.StrictParse(f)
		if parseErr != nil {
			return env, errors.Wrapf(parseErr, "failed parsing environment file '%s'", envFile)
		}
		for k, v := range partialEnv {
			env[k] = v
		}
	}
	for k, v := range c.EnvVars {
		env[k] = v
	}
	return env, nil
}

// Validate validates the correctness of the configuration.
func (c *RunCommandConfig) Validate() error {
	if c.Tag == "" {
		return fmt.Errorf("--tag is empty")
	}
	for _, envFile := range c.EnvFiles {
		if _, statErr := utils.CheckIfExistsAndIsRegular(envFile); statErr != nil {
			return errors.Wrapf(statErr, "environment file '%s' stat error", envFile)
		}
	}
	if !utils.IsValidHostname(c.Name) {
		return fmt.Errorf("string '%s' is not a valid service name", c.Name)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("--port value %d is out of range", c.Port)
	}
	return nil
}

// KillCommandConfig is the kill command configuration.
type KillCommandConfig struct {
	flagBase
	ValidatingConfig

	Name            string
	ShutdownTimeout time.Duration
}

// NewKillCommandConfig returns new command configuration.
func NewKillCommandConfig() *KillCommandConfig {
	return &KillCommandConfig{}
}

// FlagSet returns an instance of the flag set for the configuration.
func (c *KillCommandConfig) FlagSet() *pflag.FlagSet {
	if c.initFlagSet() {
		c.flagSet.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", time.Second*15, "If the service is running and shutdown is called, how long to wait for clean shutdown")
		c.flagSet.StringVar(&c.Name, "name", "", "Name of the service container to kill")
	}
	return c.flagSet
}

// Validate validates the correctness of the configuration.
func (c *KillCommandConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("--name can't be empty")
	}
	return nil
}

// InspectCommandConfig is the inspect command configuration.
type InspectCommandConfig struct {
	flagBase
	ValidatingConfig

	Tag string
}

// NewInspectCommandConfig returns new command configuration.
func NewInspectCommandConfig() *InspectCommandConfig {
	return &InspectCommandConfig{}
}

// FlagSet returns an instance of the flag set for the configuration.
func (c *InspectCommandConfig) FlagSet() *pflag.FlagSet {
	if c.initFlagSet() {
		c.flagSet.StringVar(&c.Tag, "tag", "", "Tag of the artifact to inspect")
	}
	return c.flagSet
}

// Validate validates the correctness of the configuration.
func (c *InspectCommandConfig) Validate() error {
	if c.Tag == "" {
		return fmt.Errorf("--tag can't be empty")
	}
	if !utils.IsValidTag(c.Tag) {
		return fmt.Errorf("--tag value '%s' is invalid", c.Tag)
	}
	return nil
}

// PurgeCommandConfig is the purge command configuration.
type PurgeCommandConfig struct {
	flagBase
	ValidatingConfig

	Tag string
}

// NewPurgeCommandConfig returns new command configuration.
func NewPurgeCommandConfig() *PurgeCommandConfig {
	return &PurgeCommandConfig{}
}

// FlagSet returns an instance of the flag set for the configuration.
func (c *PurgeCommandConfig) FlagSet() *pflag.FlagSet {
	if c.initFlagSet() {
		c.flagSet.StringVar(&c.Tag, "tag", "", "Tag of the artifact to purge; when empty, only stale run cache entries are swept")
	}
	return c.flagSet
}

// Validate validates the correctness of the configuration.
func (c *PurgeCommandConfig) Validate() error {
	if c.Tag != "" && !utils.IsValidTag(c.Tag) {
		return fmt.Errorf("--tag value '%s' is invalid", c.Tag)
	}
	return nil
}
