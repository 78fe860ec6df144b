package runcache

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/appministry/stevedore/pkg/metadata"
	"github.com/appministry/stevedore/pkg/naming"
	"github.com/appministry/stevedore/pkg/utils"
	"github.com/pkg/errors"
)

// FetchMetadataIfExists fetches the metadata from a run metadata file in the required directory, if the file exists.
// Returns a MDRun pointer, if file exists, a boolean indicating if metadata file existed and an error,
// if metadata lookup went wrong.
func FetchMetadataIfExists(cacheDirectory string) (*metadata.MDRun, bool, error) {
	metadataFile := filepath.Join(cacheDirectory, naming.RunMetadataFileName)
	if _, err := utils.CheckIfExistsAndIsRegular(metadataFile); err != nil {
		if !os.IsNotExist(err) {
			return nil, false, err
		}
		return nil, false, nil
	}
	jsonBytes, err := ioutil.ReadFile(metadataFile)
	if err != nil {
		return nil, false, err
	}
	results := &metadata.MDRun{}
	if jsonErr := json.Unmarshal(jsonBytes, results); jsonErr != nil {
		return nil, false, jsonErr
	}
	return results, true, nil
}

// WriteMetadataToFile writes a run metadata to file under the cache directory.
func WriteMetadataToFile(md *metadata.MDRun) error {
	cacheDirectory := filepath.Join(md.RunCache, md.Name)
	if err := os.MkdirAll(cacheDirectory, 0755); err != nil {
		return errors.Wrap(err, "failed creating run cache directory")
	}
	mdBytes, jsonErr := json.Marshal(md)
	if jsonErr != nil {
		return errors.Wrap(jsonErr, "failed serializing run metadata to JSON")
	}
	if err := ioutil.WriteFile(filepath.Join(cacheDirectory, naming.RunMetadataFileName), mdBytes, 0644); err != nil {
		return errors.Wrap(err, "failed writing run metadata to the cache file")
	}
	return nil
}
