package reader

import (
	"testing"

	"github.com/appministry/stevedore/pkg/build/commands"
)

func TestReadAddChownFromBytes(t *testing.T) {
	cmds, err := ReadFromBytes([]byte(recipeAddCopyChown))
	if err != nil {
		t.Fatal("Expected recipe to parse but received an error", err)
	}
	foundAdd := false
	foundCopy := false
	for _, cmd := range cmds {
		switch tcmd := cmd.(type) {
		case commands.Add:
			foundAdd = true
			if tcmd.UserFromLocalChown == nil {
				t.Fatal("Expected ADD command with local chown")
			}
		case commands.Copy:
			foundCopy = true
			if tcmd.UserFromLocalChown == nil {
				t.Fatal("Expected COPY command with local chown")
			}
		}
	}
	if !foundAdd {
		t.Fatal("Expected ADD command")
	}
	if !foundCopy {
		t.Fatal("Expected COPY command")
	}
}

func TestReadServiceRecipeFromBytes(t *testing.T) {
	cmds, err := ReadFromBytes([]byte(recipeService))
	if err != nil {
		t.Fatal("Expected recipe to parse but received an error", err)
	}
	expectedOrder := []string{"from", "env", "workdir", "copy", "run", "copy", "entrypoint"}
	if len(cmds) != len(expectedOrder) {
		t.Fatalf("Expected %d commands but parsed %d", len(expectedOrder), len(cmds))
	}
	for idx, cmd := range cmds {
		var kind string
		switch cmd.(type) {
		case commands.From:
			kind = "from"
		case commands.Env:
			kind = "env"
		case commands.Workdir:
			kind = "workdir"
		case commands.Copy:
			kind = "copy"
		case commands.Run:
			kind = "run"
		case commands.Entrypoint:
			kind = "entrypoint"
		default:
			kind = "unknown"
		}
		if kind != expectedOrder[idx] {
			t.Fatalf("Expected command %d to be %q, got %q", idx, expectedOrder[idx], kind)
		}
	}
}

func TestReadRetainsOriginalLines(t *testing.T) {
	cmds, err := ReadFromBytes([]byte(recipeService))
	if err != nil {
		t.Fatal("Expected recipe to parse but received an error", err)
	}
	expectedLines := []string{
		"FROM python:3.9-slim",
		"ENV PORT 8080",
		"WORKDIR /app",
		"COPY requirements.txt ./",
		"RUN pip install --no-cache-dir -r requirements.txt",
		"COPY . ./",
		`ENTRYPOINT ["/bin/sh", "-c", "exec gunicorn --bind :$PORT --workers 1 --threads 8 --timeout 0 main:app"]`,
	}
	if len(cmds) != len(expectedLines) {
		t.Fatalf("Expected %d commands but parsed %d", len(expectedLines), len(cmds))
	}
	for idx, cmd := range cmds {
		serializable, ok := cmd.(commands.DockerfileSerializable)
		if !ok {
			t.Fatalf("Expected command %d to retain its original line", idx)
		}
		if serializable.GetOriginal() != expectedLines[idx] {
			t.Fatalf("Expected command %d original %q, got %q", idx, expectedLines[idx], serializable.GetOriginal())
		}
	}
}

var recipeAddCopyChown = `FROM scracth
ADD --chown=1:2 . .
COPY --chown=1:2 . .`

var recipeService = `FROM python:3.9-slim
ENV PORT 8080
WORKDIR /app
COPY requirements.txt ./
RUN pip install --no-cache-dir -r requirements.txt
COPY . ./
ENTRYPOINT ["/bin/sh", "-c", "exec gunicorn --bind :$PORT --workers 1 --threads 8 --timeout 0 main:app"]`
