package containers

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	fileCommandExtractor = regexp.MustCompile("(ADD|COPY)\\sfile:[a-zA-Z0-9]{64}\\sin\\s")
)

// HistoryToDockerfile reconstructs the recipe from the image history.
func HistoryToDockerfile(history []*DockerImageHistoryEntry, base string) []string {
	lines := []string{fmt.Sprintf("FROM %s", base)}
	for _, entry := range history {
		// split entry line by #(nop)
		parts := strings.Split(entry.CreatedBy, "#(nop)")
		if len(parts) != 2 {
			// skip unexpected lines
			continue
		}
		dockerCommand := strings.TrimSpace(parts[1])
		// we need to take care of ADD and COPY:
		if strings.HasPrefix(dockerCommand, "ADD") || strings.HasPrefix(dockerCommand, "COPY") {

			if len(lines) == 1 && strings.HasPrefix(dockerCommand, "ADD") && strings.HasSuffix(dockerCommand, "in /") {
				// skip the 'ADD file:... in /' which represents adding the rootfs
				continue
			}

			lines = append(lines, reconstructFileCommand(dockerCommand))

		} else {
			lines = append(lines, dockerCommand)
		}
	}
	return lines
}

// ImageRecipe reconstructs the recipe lines recorded in the image metadata.
// The history does not retain the original FROM line, the parent image
// reference from the config stands in for the base.
func ImageRecipe(imageMetadata *DockerImageMetadata) []string {
	if imageMetadata == nil || imageMetadata.Config == nil {
		return []string{}
	}
	base := ""
	if imageMetadata.Config.Config != nil {
		base = imageMetadata.Config.Config.Image
	}
	return HistoryToDockerfile(imageMetadata.Config.History, base)
}

func reconstructFileCommand(input string) string {
	path := fileCommandExtractor.ReplaceAllString(input, "")
	if strings.HasPrefix(input, "ADD") {
		return fmt.Sprintf("ADD %s %s", path, path)
	}
	return fmt.Sprintf("COPY %s %s", path, path)
}
