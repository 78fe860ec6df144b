package errors

import (
	"fmt"

	"github.com/appministry/stevedore/pkg/build/commands"
)

// ErrorIsDirectory is a builder directory input type string error.
type ErrorIsDirectory struct {
	Input string
}

func (e *ErrorIsDirectory) Error() string {
	return fmt.Sprintf("directory: %s", e.Input)
}

// CommandOutOfScopeError is build context error.
type CommandOutOfScopeError struct {
	Command interface{}
}

func (e *CommandOutOfScopeError) Error() string {
	if serializable, ok := e.Command.(commands.DockerfileSerializable); ok && serializable.GetOriginal() != "" {
		return fmt.Sprintf("command out of scope: %s", serializable.GetOriginal())
	}
	return fmt.Sprintf("command out of scope: %v", e.Command)
}

// BaseImageError indicates that the base image could not be resolved or pulled.
type BaseImageError struct {
	Image  string
	Reason error
}

func (e *BaseImageError) Error() string {
	return fmt.Sprintf("base image '%s': %v", e.Image, e.Reason)
}

// Unwrap returns the underlying reason.
func (e *BaseImageError) Unwrap() error {
	return e.Reason
}

// DependencyResolutionError indicates that the dependency manifest could not
// be read, parsed or installed.
type DependencyResolutionError struct {
	Manifest string
	Reason   error
}

func (e *DependencyResolutionError) Error() string {
	return fmt.Sprintf("dependency manifest '%s': %v", e.Manifest, e.Reason)
}

// Unwrap returns the underlying reason.
func (e *DependencyResolutionError) Unwrap() error {
	return e.Reason
}

// CopyError indicates that the payload could not be materialized in the image.
type CopyError struct {
	Source string
	Target string
	Reason error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copy '%s' => '%s': %v", e.Source, e.Target, e.Reason)
}

// Unwrap returns the underlying reason.
func (e *CopyError) Unwrap() error {
	return e.Reason
}

// LaunchError indicates that the service process could not be started or
// terminated prematurely.
type LaunchError struct {
	Cmd    []string
	Reason error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %v: %v", e.Cmd, e.Reason)
}

// Unwrap returns the underlying reason.
func (e *LaunchError) Unwrap() error {
	return e.Reason
}
