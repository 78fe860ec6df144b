package metadata

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Type is the type of the metadata entry stored in a file.
type Type = string

// Metadata types.
const (
	MetadataTypeBuild = Type("build")
	MetadataTypeRun   = Type("run")
)

// MDImage is the image.
type MDImage struct {
	Org     string `json:"org" mapstructure:"org"`
	Image   string `json:"image" mapstructure:"image"`
	Version string `json:"version" mapstructure:"version"`
}

// Tag returns the org/image:version tag of the image.
func (i MDImage) Tag() string {
	return fmt.Sprintf("%s/%s:%s", i.Org, i.Image, i.Version)
}

// MDBuildConfig represents the image build configuration.
type MDBuildConfig struct {
	BuildArgs    map[string]string `json:"build-args" mapstructure:"build-args"`
	Manifest     string            `json:"manifest" mapstructure:"manifest"`
	NoCache      bool              `json:"no-cache" mapstructure:"no-cache"`
	RecipeSource string            `json:"recipe-source" mapstructure:"recipe-source"`
}

// MDBuild represents the metadata of a built image.
type MDBuild struct {
	BaseImage    string            `json:"base-image" mapstructure:"base-image"`
	BuildConfig  MDBuildConfig     `json:"build-config" mapstructure:"build-config"`
	CreatedAtUTC int64             `json:"created-at-utc" mapstructure:"created-at-utc"`
	Env          map[string]string `json:"env" mapstructure:"env"`
	Image        MDImage           `json:"image" mapstructure:"image"`
	Labels       map[string]string `json:"labels" mapstructure:"labels"`
	LaunchExec   []string          `json:"launch-exec" mapstructure:"launch-exec"`
	Ports        []string          `json:"ports" mapstructure:"ports"`
	Tag          string            `json:"tag" mapstructure:"tag"`
	Type         Type              `json:"type" mapstructure:"type"`
}

// MDBuildFromInterface unwraps an interface{} as *MDBuild.
func MDBuildFromInterface(input interface{}) (*MDBuild, error) {
	mdbuild := &MDBuild{}
	if err := mapstructure.Decode(input, mdbuild); err != nil {
		return nil, errors.Wrap(err, "failed decoding mdbuild")
	}
	return mdbuild, nil
}

// MDRun contains the runtime information about a started service container.
type MDRun struct {
	Bind         string   `json:"bind" mapstructure:"bind"`
	Build        *MDBuild `json:"build" mapstructure:"build"`
	ContainerID  string   `json:"container-id" mapstructure:"container-id"`
	EnvKeys      []string `json:"env-keys" mapstructure:"env-keys"`
	Name         string   `json:"name" mapstructure:"name"`
	RunCache     string   `json:"run-cache" mapstructure:"run-cache"`
	StartedAtUTC int64    `json:"started-at-utc" mapstructure:"started-at-utc"`
	Tag          string   `json:"tag" mapstructure:"tag"`
	Type         Type     `json:"type" mapstructure:"type"`
}

// AsMap converts a metadata value to its map representation for storage.
func AsMap(input interface{}) (map[string]interface{}, error) {
	output := map[string]interface{}{}
	if err := mapstructure.Decode(input, &output); err != nil {
		return nil, errors.Wrap(err, "failed converting metadata to a map")
	}
	return output, nil
}

// MDRunFromInterface unwraps an interface{} as *MDRun.
func MDRunFromInterface(input interface{}) (*MDRun, error) {
	mdrun := &MDRun{}
	if err := mapstructure.Decode(input, mdrun); err != nil {
		return nil, errors.Wrap(err, "failed decoding mdrun")
	}
	return mdrun, nil
}
