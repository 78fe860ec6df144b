package commands

import (
	"fmt"
	"strings"
)

// DockerfileSerializable is a command which retains its original recipe line.
type DockerfileSerializable interface {
	GetOriginal() string
}

// Add represents the ADD instruction.
type Add struct {
	OriginalCommand    string `json:"OriginalCommand" mapstructure:"OriginalCommand"`
	OriginalSource     string `json:"OriginalSource" mapstructure:"OriginalSource"`
	Source             string `json:"Source" mapstructure:"Source"`
	Target             string `json:"Target" mapstructure:"Target"`
	UserFromLocalChown *User  `json:"UserFromLocalChown" mapstructure:"UserFromLocalChown"`
}

// GetOriginal returns the original recipe line.
func (cmd Add) GetOriginal() string {
	return cmd.OriginalCommand
}

// Arg represents the ARG instruction.
type Arg struct {
	OriginalCommand string `json:"OriginalCommand" mapstructure:"OriginalCommand"`
	k, v            string
	hadv            bool
}

// GetOriginal returns the original recipe line.
func (cmd Arg) GetOriginal() string {
	return cmd.OriginalCommand
}

// NewRawArg returns a new parsed ARG from the raw input.
func NewRawArg(input string) (Arg, error) {
	parts := strings.Split(input, "=")
	if len(parts) == 0 {
		return Arg{}, fmt.Errorf("arg: missing name")
	}
	v, hadv := func(input []string) (string, bool) {
		if len(input) > 1 {
			return strings.Join(input[1:], "="), true
		}
		return "", false
	}(parts)
	return Arg{
		k:    parts[0],
		v:    v,
		hadv: hadv,
	}, nil
}

// Key returns the ARG key.
func (cmd Arg) Key() string {
	return cmd.k
}

// Value returns the ARG value and a boolean indicating if the value was defined in the recipe.
func (cmd Arg) Value() (string, bool) {
	return cmd.v, cmd.hadv
}

// Cmd represents the CMD instruction.
type Cmd struct {
	OriginalCommand string   `json:"OriginalCommand" mapstructure:"OriginalCommand"`
	Values          []string `json:"Values" mapstructure:"Values"`
}

// GetOriginal returns the original recipe line.
func (cmd Cmd) GetOriginal() string {
	return cmd.OriginalCommand
}

// Copy represents the COPY instruction.
type Copy struct {
	OriginalCommand    string `json:"OriginalCommand" mapstructure:"OriginalCommand"`
	OriginalSource     string `json:"OriginalSource" mapstructure:"OriginalSource"`
	Source             string `json:"Source" mapstructure:"Source"`
	Stage              string `json:"Stage" mapstructure:"Stage"`
	Target             string `json:"Target" mapstructure:"Target"`
	UserFromLocalChown *User  `json:"UserFromLocalChown" mapstructure:"UserFromLocalChown"`
}

// GetOriginal returns the original recipe line.
func (cmd Copy) GetOriginal() string {
	return cmd.OriginalCommand
}

// Entrypoint represents the ENTRYPOINT instruction.
type Entrypoint struct {
	OriginalCommand string            `json:"OriginalCommand" mapstructure:"OriginalCommand"`
	Values          []string          `json:"Values" mapstructure:"Values"`
	Env             map[string]string `json:"Env" mapstructure:"Env"`
	Shell           Shell             `json:"Shell" mapstructure:"Shell"`
	Workdir         Workdir           `json:"Workdir" mapstructure:"Workdir"`
	User            User              `json:"User" mapstructure:"User"`
}

// GetOriginal returns the original recipe line.
func (cmd Entrypoint) GetOriginal() string {
	return cmd.OriginalCommand
}

// Env represents the ENV instruction.
type Env struct {
	OriginalCommand string `json:"OriginalCommand" mapstructure:"OriginalCommand"`
	Name            string `json:"Name" mapstructure:"Name"`
	Value           string `json:"Value" mapstructure:"Value"`
}

// GetOriginal returns the original recipe line.
func (cmd Env) GetOriginal() string {
	return cmd.OriginalCommand
}

// Expose represents the EXPOSE instruction.
type Expose struct {
	OriginalCommand string `json:"OriginalCommand" mapstructure:"OriginalCommand"`
	RawValue        string `json:"RawValue" mapstructure:"RawValue"`
}

// GetOriginal returns the original recipe line.
func (cmd Expose) GetOriginal() string {
	return cmd.OriginalCommand
}

// StructuredFrom decomposes the base image of From into the org, image and version parts.
type StructuredFrom struct {
	org     string
	image   string
	version string
}

// Org returns the org component of the base image.
func (sf *StructuredFrom) Org() string {
	return sf.org
}

// Image returns the image component of the base image.
func (sf *StructuredFrom) Image() string {
	return sf.image
}

// Version returns the base image version.
func (sf *StructuredFrom) Version() string {
	return sf.version
}

// From represents the FROM instruction.
type From struct {
	OriginalCommand string `json:"OriginalCommand" mapstructure:"OriginalCommand"`
	BaseImage       string `json:"BaseImage" mapstructure:"BaseImage"`
	StageName       string `json:"StageName" mapstructure:"StageName"`
}

// GetOriginal returns the original recipe line.
func (cmd From) GetOriginal() string {
	return cmd.OriginalCommand
}

// ToStructuredFrom extracts structured info from the base image string.
func (cmd From) ToStructuredFrom() *StructuredFrom {
	structuredForm := &StructuredFrom{org: "_", version: "latest"}
	imageName := cmd.BaseImage
	if strings.Contains(cmd.BaseImage, "/") {
		structuredForm.org = strings.Split(cmd.BaseImage, "/")[0]
		imageName = strings.TrimPrefix(imageName, structuredForm.org+"/")
	}
	osAndVersion := strings.Split(imageName, ":")
	structuredForm.image = osAndVersion[0]
	if len(osAndVersion) > 1 {
		structuredForm.version = osAndVersion[1]
	}
	return structuredForm
}

// Label represents the LABEL instruction.
type Label struct {
	OriginalCommand string `json:"OriginalCommand" mapstructure:"OriginalCommand"`
	Key             string `json:"Key" mapstructure:"Key"`
	Value           string `json:"Value" mapstructure:"Value"`
}

// GetOriginal returns the original recipe line.
func (cmd Label) GetOriginal() string {
	return cmd.OriginalCommand
}

// Run represents the RUN instruction.
type Run struct {
	OriginalCommand string            `json:"OriginalCommand" mapstructure:"OriginalCommand"`
	Args            map[string]string `json:"Args" mapstructure:"Args"`
	Command         string            `json:"Command" mapstructure:"Command"`
	Env             map[string]string `json:"Env" mapstructure:"Env"`
	Shell           Shell             `json:"Shell" mapstructure:"Shell"`
	Workdir         Workdir           `json:"Workdir" mapstructure:"Workdir"`
	User            User              `json:"User" mapstructure:"User"`
}

// GetOriginal returns the original recipe line.
func (cmd Run) GetOriginal() string {
	return cmd.OriginalCommand
}

// Shell represents the SHELL instruction.
type Shell struct {
	OriginalCommand string   `json:"OriginalCommand" mapstructure:"OriginalCommand"`
	Commands        []string `json:"Commands" mapstructure:"Commands"`
}

// GetOriginal returns the original recipe line.
func (cmd Shell) GetOriginal() string {
	return cmd.OriginalCommand
}

// User represents the USER instruction.
type User struct {
	OriginalCommand string `json:"OriginalCommand" mapstructure:"OriginalCommand"`
	Value           string `json:"Value" mapstructure:"Value"`
}

// GetOriginal returns the original recipe line.
func (cmd User) GetOriginal() string {
	return cmd.OriginalCommand
}

// Volume represents the VOLUME instruction.
type Volume struct {
	OriginalCommand string   `json:"OriginalCommand" mapstructure:"OriginalCommand"`
	Values          []string `json:"Values" mapstructure:"Values"`
}

// GetOriginal returns the original recipe line.
func (cmd Volume) GetOriginal() string {
	return cmd.OriginalCommand
}

// Workdir represents the WORKDIR instruction.
type Workdir struct {
	OriginalCommand string `json:"OriginalCommand" mapstructure:"OriginalCommand"`
	Value           string `json:"Value" mapstructure:"Value"`
}

// GetOriginal returns the original recipe line.
func (cmd Workdir) GetOriginal() string {
	return cmd.OriginalCommand
}

// DefaultWorkdir returns the default workdir.
func DefaultWorkdir() Workdir {
	return Workdir{Value: "/"}
}
