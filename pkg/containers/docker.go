package containers

import (
	tar "archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	bcErrors "github.com/appministry/stevedore/pkg/build/errors"
	"github.com/hashicorp/go-hclog"

	"github.com/pkg/errors"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	docker "github.com/docker/docker/client"
	dockerArchive "github.com/docker/docker/pkg/archive"
	"github.com/docker/go-connections/nat"
)

var (
	// ContainerStopTimeout is the amount of time the container is given to stop gracefully.
	ContainerStopTimeout = time.Duration(time.Second * 30)
)

// GetDefaultClient returns a default instance of the Docker client.
func GetDefaultClient() (*docker.Client, error) {
	return docker.NewEnvClient()
}

// FindImageIDByTag looks up the Docker image ID given a tag name.
func FindImageIDByTag(ctx context.Context, client *docker.Client, requiredTag string) (string, error) {
	images, err := client.ImageList(ctx, types.ImageListOptions{All: true})
	if err != nil {
		return "", err
	}
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == requiredTag {
				return img.ID, nil
			}
		}
	}
	return "", fmt.Errorf("image not found")
}

// ImageBuildOptions is the image build input.
type ImageBuildOptions struct {
	BuildArgs       map[string]string
	ExcludePatterns []string
	NoCache         bool
	RecipePath      string
	Tag             string
}

// ImageBuild builds a Docker image in the context of the source directory,
// using the recipe file from RecipePath relative to that context,
// and tags the image.
func ImageBuild(ctx context.Context, client *docker.Client, logger hclog.Logger, source string, options ImageBuildOptions) error {

	if !strings.HasSuffix(source, "/") {
		source = fmt.Sprintf("%s/", source)
	}

	opLogger := logger.With("dir-context", source, "recipe", options.RecipePath, "tag-name", options.Tag)

	// convert the context into a tar:
	tar, err := dockerArchive.TarWithOptions(source, &dockerArchive.TarOptions{
		ExcludePatterns: options.ExcludePatterns,
	})
	if err != nil {
		opLogger.Error("failed creating tar archive as Docker build context", "reason", err)
		return err
	}
	defer tar.Close()

	// build the image:
	buildResponse, buildErr := client.ImageBuild(ctx, tar, types.ImageBuildOptions{
		BuildArgs: func() map[string]*string {
			result := map[string]*string{}
			for k := range options.BuildArgs {
				v := options.BuildArgs[k]
				result[k] = &v
			}
			return result
		}(),
		Dockerfile:  options.RecipePath,
		NoCache:     options.NoCache,
		Tags:        []string{options.Tag},
		ForceRemove: true,
		Remove:      true,
	})
	if buildErr != nil {
		opLogger.Error("failed creating Docker image", "reason", buildErr)
		return buildErr
	}

	return processDockerOutput(opLogger, buildResponse.Body, dockerReaderStream())
}

// ImagePull pulls a Docker image.
func ImagePull(ctx context.Context, client *docker.Client, logger hclog.Logger, refStr string) error {
	response, err := client.ImagePull(ctx, refStr, types.ImagePullOptions{All: false})
	if err != nil {
		return err
	}
	if err := processDockerOutput(logger.Named("image-pull"), response, dockerReaderStatus()); err != nil {
		return err
	}
	return nil
}

// ImageRemove removes the Docker image using the tag name.
func ImageRemove(ctx context.Context, client *docker.Client, logger hclog.Logger, tagName string) error {
	opLogger := logger.With("tag-name", tagName)
	opLogger.Debug("removing Docker image")
	imageID, err := FindImageIDByTag(ctx, client, tagName)
	if err != nil {
		opLogger.Error("failed fetching Docker image ID by tag", tagName, "reason", err)
		return err
	}
	responses, err := client.ImageRemove(ctx, imageID, types.ImageRemoveOptions{Force: true})
	if err != nil {
		opLogger.Error("failed removing Docker image by",
			"image-id", imageID,
			"reason", err)
		return err
	}
	for _, response := range responses {
		opLogger.Debug("Docker image removal status",
			"image-id", imageID,
			"deleted", response.Deleted,
			"untagged", response.Untagged)
	}
	return nil
}

// ServiceStartOptions is the service container start input.
type ServiceStartOptions struct {
	// Bind is the resolved service bind address, for example :8080.
	Bind string
	Env  map[string]string
	Name string
	Tag  string
}

// ServiceStart creates and starts a service container from a built image.
// The resolved service port is published on the host. A failed start
// is a launch error.
func ServiceStart(ctx context.Context, client *docker.Client, logger hclog.Logger, options ServiceStartOptions) (string, error) {

	opLogger := logger.With("tag-name", options.Tag, "name", options.Name, "bind", options.Bind)

	port := strings.TrimPrefix(options.Bind, ":")
	natPort, err := nat.NewPort("tcp", port)
	if err != nil {
		return "", &bcErrors.LaunchError{Reason: errors.Wrap(err, "invalid service port")}
	}

	containerConfig := &container.Config{
		Image: options.Tag,
		Env: func() []string {
			result := []string{}
			for k, v := range options.Env {
				result = append(result, fmt.Sprintf("%s=%s", k, v))
			}
			sort.Strings(result)
			return result
		}(),
		ExposedPorts: nat.PortSet{natPort: struct{}{}},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			natPort: []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: port}},
		},
	}

	opLogger.Debug("creating service container")

	containerCreateResponse, createErr := client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, options.Name)
	if createErr != nil {
		opLogger.Error("failed creating a Docker container", "reason", createErr)
		return "", &bcErrors.LaunchError{Reason: createErr}
	}

	opLogger = opLogger.With("container-id", containerCreateResponse.ID)

	if err := client.ContainerStart(ctx, containerCreateResponse.ID, types.ContainerStartOptions{}); err != nil {
		opLogger.Error("failed starting a Docker container", "reason", err)
		removeContainer(context.Background(), client, opLogger, containerCreateResponse.ID)
		return "", &bcErrors.LaunchError{Reason: err}
	}

	opLogger.Debug("service container started")

	return containerCreateResponse.ID, nil
}

// ServiceWait blocks until the service container exits.
// A non zero exit status is a launch error.
func ServiceWait(ctx context.Context, client *docker.Client, logger hclog.Logger, containerID string) error {
	opLogger := logger.With("container-id", containerID)
	chanWaitOK, chanWaitErr := client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case ok := <-chanWaitOK:
		if ok.StatusCode != 0 {
			opLogger.Error("service container exited with non zero status", "exit-code", ok.StatusCode)
			return &bcErrors.LaunchError{
				Reason: fmt.Errorf("service exited with status %d", ok.StatusCode),
			}
		}
		opLogger.Debug("service container exited cleanly")
	case waitErr := <-chanWaitErr:
		opLogger.Error("service container wait returned an error", "reason", waitErr)
		return &bcErrors.LaunchError{Reason: waitErr}
	}
	return nil
}

// ServiceStop stops the service container, killing it after the stop timeout.
func ServiceStop(ctx context.Context, client *docker.Client, logger hclog.Logger, containerID string, timeout time.Duration) {
	stopContainer(ctx, client, logger.With("container-id", containerID), containerID, timeout)
}

// ServiceRemove removes the service container together with its volumes.
func ServiceRemove(ctx context.Context, client *docker.Client, logger hclog.Logger, containerID string) {
	removeContainer(ctx, client, logger.With("container-id", containerID), containerID)
}

// ContainerExists checks if the container is still known to the Docker daemon.
func ContainerExists(ctx context.Context, client *docker.Client, containerID string) bool {
	_, err := client.ContainerInspect(ctx, containerID)
	return err == nil
}

// ReadImageConfig extracts the manifest and the image config from a Docker image.
func ReadImageConfig(ctx context.Context, client *docker.Client, opLogger hclog.Logger, tagName string) (*DockerImageMetadata, error) {

	imageID, err := FindImageIDByTag(ctx, client, tagName)
	if err != nil {
		opLogger.Error("failed fetching Docker image ID by tag", "reason", err)
		return nil, err
	}

	opLogger = opLogger.With("image-id", imageID)

	dockerFsReader, cleanupFunc, err := getImageReader(ctx, client, imageID)
	if err != nil {
		opLogger.Error("failed creating io.Reader for image save", "reason", err)
		return nil, err
	}
	defer cleanupFunc()

	jsonEntries := map[string]string{}

	for {
		dockerFsHeader, dockerFsError := dockerFsReader.Next()
		if dockerFsError != nil {
			if dockerFsError == io.EOF {
				break
			}
			opLogger.Error("error while reading exported Docker file system", "reason", dockerFsError)
			return nil, dockerFsError
		}

		// only interested in json files in the top directory:
		if strings.HasSuffix(dockerFsHeader.Name, ".json") {
			fullBuffer := bytes.NewBuffer([]byte{})
			targetBuf := make([]byte, 512*1024)
			for {
				read, e := dockerFsReader.Read(targetBuf)
				if read == 0 && e == io.EOF {
					break
				}
				fullBuffer.Grow(read)
				fullBuffer.Write(targetBuf[0:read])
			}
			jsonEntries[dockerFsHeader.Name] = fullBuffer.String()
		}
	}

	response := &DockerImageMetadata{}

	if manifests, ok := jsonEntries["manifest.json"]; !ok {
		return nil, fmt.Errorf("no manifest.json")
	} else {
		output := []*DockerImageManifest{}
		if err := json.NewDecoder(bytes.NewBufferString(manifests)).Decode(&output); err != nil {
			return nil, errors.Wrap(err, "failed deserializing manifest.json")
		}
		if len(output) == 0 {
			return nil, fmt.Errorf("manifest.json without manifests, invalid image?")
		}
		response.Manifest = output[0]
	}

	if imageConfig, ok := jsonEntries[response.Manifest.Config]; !ok {
		return nil, fmt.Errorf("manifest.json declared %q as config but config not found in image", response.Manifest.Config)
	} else {
		output := &DockerImageConfig{}
		if err := json.NewDecoder(bytes.NewBufferString(imageConfig)).Decode(&output); err != nil {
			return nil, errors.Wrapf(err, "failed deserializing config %q", response.Manifest.Config)
		}
		response.Config = output
	}

	return response, nil

}

func removeContainer(ctx context.Context, client *docker.Client, opLogger hclog.Logger, containerID string) {
	opLogger.Debug("removing container")
	containerRemoveOptions := types.ContainerRemoveOptions{
		RemoveVolumes: true,
		Force:         true,
	}
	go func() {
		if removeError := client.ContainerRemove(ctx, containerID, containerRemoveOptions); removeError != nil {
			opLogger.Warn("problem removing the container", "reason", removeError)
		}
	}()
	opLogger.Debug("waiting for container to be removed")
	chanRemoveOK, chanRemoveErr := client.ContainerWait(ctx, containerID, container.WaitConditionRemoved)
	select {
	case ok := <-chanRemoveOK:
		opLogger.Debug("container removed", "exit-code", ok.StatusCode, "error-message", ok.Error)
	case removeError := <-chanRemoveErr:
		opLogger.Warn("container stop wait returned an error", "reason", removeError)
	}
}

func stopContainer(ctx context.Context, client *docker.Client, opLogger hclog.Logger, containerID string, timeout time.Duration) {
	opLogger.Debug("stopping container")
	go func() {
		if stopError := client.ContainerStop(ctx, containerID, &timeout); stopError != nil {
			opLogger.Warn("problem stopping the container gracefully, killing", "reason", stopError)
			if killError := client.ContainerKill(ctx, containerID, "SIGKILL"); killError != nil {
				opLogger.Warn("container kill also returned an error", "reason", killError)
			}
		}
	}()
	opLogger.Debug("waiting for container to stop")
	chanStopOK, chanStopErr := client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case ok := <-chanStopOK:
		opLogger.Debug("container stopped", "exit-code", ok.StatusCode, "error-message", ok.Error)
	case stopErr := <-chanStopErr:
		opLogger.Warn("container stop wait returned an error", "reason", stopErr)
	}
}

func getImageReader(ctx context.Context, client *docker.Client, imageID string) (*tar.Reader, func(), error) {
	reader, err := client.ImageSave(ctx, []string{imageID})
	if err != nil {
		return nil, nil, err
	}
	return tar.NewReader(reader), func() { reader.Close() }, nil
}
