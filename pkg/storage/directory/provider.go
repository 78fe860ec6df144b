package directory

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/appministry/stevedore/pkg/flock"
	"github.com/appministry/stevedore/pkg/naming"
	"github.com/appministry/stevedore/pkg/storage"
	"github.com/appministry/stevedore/pkg/utils"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const providerName = "directory"

// writeLockTimeout is how long a writer waits for the storage root lock.
var writeLockTimeout = time.Second * 10

type providerConfig struct {
	RecipeStorageRoot string `mapstructure:"recipe-storage-root"`
}

type provider struct {
	config *providerConfig
	logger hclog.Logger
}

// New returns a new instance of the provider.
func New(logger hclog.Logger) storage.Provider {
	return &provider{
		logger: logger,
	}
}

func (p *provider) Configure(mapConfig map[string]interface{}) error {
	pConfig := &providerConfig{}
	if err := mapstructure.Decode(&mapConfig, pConfig); err != nil {
		p.logger.Error("error when decoding configuration", "reason", err)
		return errors.Wrap(err, "failed decoding provider configuration")
	}
	p.config = pConfig
	return nil
}

// FetchArtifact fetches a stored build artifact by tag components.
func (p *provider) FetchArtifact(q *storage.ArtifactLookup) (storage.ArtifactResult, error) {
	recipePath := filepath.Join(p.config.RecipeStorageRoot,
		strings.ReplaceAll(q.Org, "/", "_"), q.Image, q.Version, naming.RecipeFileName)
	if _, err := utils.CheckIfExistsAndIsRegular(recipePath); err != nil {
		return nil, errors.Wrap(err, "failed resolving recipe file")
	}
	metadata := map[string]interface{}{}
	metadataFilePath := filepath.Join(filepath.Dir(recipePath), naming.MetadataFileName)
	if _, err := utils.CheckIfExistsAndIsRegular(metadataFilePath); err == nil {
		metadataFile, err := os.OpenFile(metadataFilePath, os.O_RDONLY, 0664)
		if err != nil {
			return nil, errors.Wrap(err, "failed reading artifact metadata")
		}
		defer metadataFile.Close()
		if jsonErr := json.NewDecoder(metadataFile).Decode(&metadata); jsonErr != nil {
			return nil, errors.Wrap(jsonErr, "failed decoding artifact metadata")
		}
	}
	return &artifactResult{
		hostPath: recipePath,
		metadata: metadata,
	}, nil
}

// ListArtifacts walks the storage root and lists all stored artifacts.
func (p *provider) ListArtifacts() ([]*storage.ArtifactLookup, error) {
	result := []*storage.ArtifactLookup{}
	orgs, err := ioutil.ReadDir(p.config.RecipeStorageRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, errors.Wrap(err, "failed reading storage root")
	}
	for _, org := range orgs {
		if !org.IsDir() {
			continue
		}
		images, err := ioutil.ReadDir(filepath.Join(p.config.RecipeStorageRoot, org.Name()))
		if err != nil {
			return nil, errors.Wrap(err, "failed reading org directory")
		}
		for _, image := range images {
			if !image.IsDir() {
				continue
			}
			versions, err := ioutil.ReadDir(filepath.Join(p.config.RecipeStorageRoot, org.Name(), image.Name()))
			if err != nil {
				return nil, errors.Wrap(err, "failed reading image directory")
			}
			for _, version := range versions {
				if !version.IsDir() {
					continue
				}
				recipePath := filepath.Join(p.config.RecipeStorageRoot, org.Name(), image.Name(), version.Name(), naming.RecipeFileName)
				if _, err := utils.CheckIfExistsAndIsRegular(recipePath); err != nil {
					continue
				}
				result = append(result, &storage.ArtifactLookup{
					Org:     org.Name(),
					Image:   image.Name(),
					Version: version.Name(),
				})
			}
		}
	}
	return result, nil
}

// RemoveArtifact removes a stored build artifact.
func (p *provider) RemoveArtifact(q *storage.ArtifactLookup) error {
	artifactDir := filepath.Join(p.config.RecipeStorageRoot,
		strings.ReplaceAll(q.Org, "/", "_"), q.Image, q.Version)
	if _, err := utils.CheckIfExistsAndIsDirectory(artifactDir); err != nil {
		return errors.Wrap(err, "failed resolving artifact directory")
	}
	lock, lockErr := p.acquireWriteLock()
	if lockErr != nil {
		return lockErr
	}
	defer lock.Release()
	return os.RemoveAll(artifactDir)
}

func (p *provider) StoreArtifactFile(input *storage.ArtifactStore) (*storage.ArtifactStoreResult, error) {

	result := &storage.ArtifactStoreResult{
		Provider: providerName,
	}

	lock, lockErr := p.acquireWriteLock()
	if lockErr != nil {
		return nil, lockErr
	}
	defer lock.Release()

	targetFilePath := filepath.Join(p.config.RecipeStorageRoot,
		strings.ReplaceAll(input.Org, "/", "_"), input.Image, input.Version, naming.RecipeFileName)
	if err := os.MkdirAll(filepath.Dir(targetFilePath), 0755); err != nil {
		return nil, errors.Wrap(err, "failed creating target storage directory")
	}
	if moveErr := utils.MoveFile(input.LocalPath, targetFilePath); moveErr != nil {
		return nil, errors.Wrap(moveErr, "failed moving source to destination")
	}
	result.RecipeLocation = targetFilePath

	metadataFileName := filepath.Join(filepath.Dir(targetFilePath), naming.MetadataFileName)
	metadataJSONBytes, jsonErr := json.MarshalIndent(&input.Metadata, "", "  ")
	if jsonErr != nil {
		p.logger.Error("Build metadata could not be serialized to JSON", "metadata", input.Metadata, "reason", jsonErr)
		return result, nil
	}
	if writeErr := ioutil.WriteFile(metadataFileName, metadataJSONBytes, 0755); writeErr != nil {
		p.logger.Error("Build metadata not written to file", "metadata", input.Metadata, "reason", writeErr)
		return result, nil
	}
	result.MetadataLocation = metadataFileName

	return result, nil
}

// acquireWriteLock takes the cross process storage root write lock.
func (p *provider) acquireWriteLock() (flock.Lock, error) {
	if err := os.MkdirAll(p.config.RecipeStorageRoot, 0755); err != nil {
		return nil, errors.Wrap(err, "failed creating storage root")
	}
	lock := flock.New(filepath.Join(p.config.RecipeStorageRoot, naming.StorageLockFileName))
	if err := lock.AcquireWithTimeout(writeLockTimeout); err != nil {
		return nil, errors.Wrap(err, "failed acquiring storage write lock")
	}
	return lock, nil
}
