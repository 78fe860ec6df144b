package configs

import (
	"fmt"

	profilesModel "github.com/appministry/stevedore/pkg/profiles/model"
	"github.com/appministry/stevedore/pkg/utils"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

const defaultProfileConfDir = "/etc/stevedore/profiles"

// ProfileCommandConfig selects a profile for a command.
type ProfileCommandConfig struct {
	flagBase
	ValidatingConfig `json:"-"`

	Profile        string
	ProfileConfDir string
}

// NewProfileCommandConfig returns new command configuration.
func NewProfileCommandConfig() *ProfileCommandConfig {
	return &ProfileCommandConfig{}
}

// FlagSet returns an instance of the flag set for the configuration.
func (c *ProfileCommandConfig) FlagSet() *pflag.FlagSet {
	if c.initFlagSet() {
		c.flagSet.StringVar(&c.Profile, "profile", "", "Configuration profile to apply")
		c.flagSet.StringVar(&c.ProfileConfDir, "profile-conf-dir", defaultProfileConfDir, "Profile configuration directory")
	}
	return c.flagSet
}

// Validate validates the correctness of the configuration.
func (c *ProfileCommandConfig) Validate() error {
	if c.Profile == "" {
		return fmt.Errorf("--profile is empty")
	}
	return nil
}

// ProfileCreateConfig is the profile create command configuration.
type ProfileCreateConfig struct {
	flagBase
	ValidatingConfig `json:"-"`
	profilesModel.Profile

	Overwrite bool `json:"-"`
}

// NewProfileCreateConfig returns new command configuration.
func NewProfileCreateConfig() *ProfileCreateConfig {
	return &ProfileCreateConfig{}
}

// FlagSet returns an instance of the flag set for the configuration.
func (c *ProfileCreateConfig) FlagSet() *pflag.FlagSet {
	if c.initFlagSet() {
		c.flagSet.StringVar(&c.RunCache, "run-cache", "", "Stevedore run cache directory")
		c.flagSet.StringVar(&c.StorageProvider, "storage-provider", "", "Storage provider to use for the profile")
		c.flagSet.StringToStringVar(&c.StorageProviderConfigStrings, "storage-provider-property-string", map[string]string{}, "Storage provider configuration string property, multiple OK")
		c.flagSet.StringToInt64Var(&c.StorageProviderConfigInt64s, "storage-provider-property-int64", map[string]int64{}, "Storage provider configuration int64 property, multiple OK")
		c.flagSet.BoolVar(&c.TracingEnable, "tracing-enable", false, "Enable tracing")
		c.flagSet.StringVar(&c.TracingCollectorHostPort, "tracing-collector-host-port", "", "Host port of the tracing collector")
		c.flagSet.BoolVar(&c.TracingLogEnable, "tracing-log-enable", false, "If set, enables tracer logging")
		c.flagSet.BoolVar(&c.Overwrite, "overwrite", false, "If profile already exists, overwrite")
	}
	return c.flagSet
}

// GetMergedStorageConfig returns the merged storage provider configuration.
func (c *ProfileCreateConfig) GetMergedStorageConfig() map[string]interface{} {
	result := map[string]interface{}{}
	for k, v := range c.StorageProviderConfigStrings {
		result[k] = v
	}
	for k, v := range c.StorageProviderConfigInt64s {
		result[k] = v
	}
	return result
}

// Validate validates the correctness of the configuration.
func (c *ProfileCreateConfig) Validate() error {
	if c.RunCache == "" {
		return fmt.Errorf("--run-cache is empty")
	}
	if _, err := utils.CheckIfExistsAndIsDirectory(c.RunCache); err != nil {
		return errors.Wrap(err, "--run-cache points to a non-existing location or not a directory")
	}
	return nil
}
