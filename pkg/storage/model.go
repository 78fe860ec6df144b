package storage

import "github.com/spf13/pflag"

// FlagProvider defines an interface for the storage provider flag handling.
type FlagProvider interface {
	GetFlags() *pflag.FlagSet
	GetInitializedConfiguration() map[string]interface{}
}

// ArtifactLookup is the artifact query parameters configuration.
type ArtifactLookup struct {
	Org     string
	Image   string
	Version string
}

// ArtifactStore is the input of an artifact store operation.
type ArtifactStore struct {
	LocalPath string
	Metadata  map[string]interface{}

	Org     string
	Image   string
	Version string
}

// ArtifactResult contains the information about the resolved artifact.
type ArtifactResult interface {
	HostPath() string
	Metadata() map[string]interface{}
}

// ArtifactStoreResult contains the information about the stored artifact.
type ArtifactStoreResult struct {
	MetadataLocation string
	Provider         string
	RecipeLocation   string
}

// Provider represents a storage provider.
type Provider interface {
	Configure(map[string]interface{}) error

	// FetchArtifact fetches a stored build artifact by tag components.
	FetchArtifact(*ArtifactLookup) (ArtifactResult, error)
	// ListArtifacts lists all stored build artifacts.
	ListArtifacts() ([]*ArtifactLookup, error)
	// RemoveArtifact removes a stored build artifact.
	RemoveArtifact(*ArtifactLookup) error

	StoreArtifactFile(*ArtifactStore) (*ArtifactStoreResult, error)
}
