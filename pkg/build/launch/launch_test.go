package launch

import (
	"testing"

	bcErrors "github.com/appministry/stevedore/pkg/build/errors"
	"github.com/stretchr/testify/assert"
)

func TestDefaultCommandExec(t *testing.T) {
	command := DefaultCommand("main:app")
	assert.Equal(t, []string{
		"gunicorn",
		"--bind", ":$PORT",
		"--workers", "1",
		"--threads", "8",
		"--timeout", "0",
		"main:app",
	}, command.Exec())
	assert.Equal(t, "exec gunicorn --bind :$PORT --workers 1 --threads 8 --timeout 0 main:app", command.ExecString())
	assert.Equal(t, "main", command.EntryPointModule())
}

func TestEffectiveBind(t *testing.T) {
	command := DefaultCommand("main:app")
	assert.Equal(t, ":8080", command.EffectiveBind(map[string]string{}))
	assert.Equal(t, ":9090", command.EffectiveBind(map[string]string{"PORT": "9090"}))
	// resolution never mutates the command:
	assert.Equal(t, ":8080", command.EffectiveBind(map[string]string{}))
}

func TestFromValuesShellForm(t *testing.T) {
	command, err := FromValues([]string{"/bin/sh", "-c", "exec gunicorn --bind :$PORT --workers 1 --threads 8 --timeout 0 main:app"})
	assert.Nil(t, err)
	assert.Equal(t, DefaultCommand("main:app"), command)
}

func TestFromValuesLiteralPort(t *testing.T) {
	command, err := FromValues([]string{"gunicorn", "--bind", ":9090", "main:app"})
	assert.Nil(t, err)
	assert.Equal(t, "", command.PortVariable)
	assert.Equal(t, 9090, command.DefaultPort)
	assert.Equal(t, ":9090", command.EffectiveBind(map[string]string{"PORT": "1234"}))
}

func TestFromValuesMalformed(t *testing.T) {
	_, err := FromValues([]string{"gunicorn", "--workers", "one", "main:app"})
	assert.NotNil(t, err)
	_, isLaunchError := err.(*bcErrors.LaunchError)
	assert.True(t, isLaunchError)

	_, err = FromValues([]string{"gunicorn", "--bind", ":$PORT"})
	assert.NotNil(t, err)

	_, err = FromValues([]string{"gunicorn", "main.app"})
	assert.NotNil(t, err)
}
