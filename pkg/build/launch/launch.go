package launch

import (
	"fmt"
	"strconv"
	"strings"

	bcErrors "github.com/appministry/stevedore/pkg/build/errors"
)

const (
	// DefaultBinary is the process manager started inside the container.
	DefaultBinary = "gunicorn"
	// DefaultPortVariable is the environment variable the bind address resolves against.
	DefaultPortVariable = "PORT"
	// DefaultPort is used when the port variable is not set at run time.
	DefaultPort = 8080
	// DefaultWorkers is the fixed worker process count.
	DefaultWorkers = 1
	// DefaultThreads is the thread count per worker.
	DefaultThreads = 8
	// DefaultTimeoutSeconds disables the request timeout.
	DefaultTimeoutSeconds = 0
)

// Command describes the service launch process.
type Command struct {
	Binary         string `json:"Binary" mapstructure:"Binary"`
	PortVariable   string `json:"PortVariable" mapstructure:"PortVariable"`
	DefaultPort    int    `json:"DefaultPort" mapstructure:"DefaultPort"`
	Workers        int    `json:"Workers" mapstructure:"Workers"`
	Threads        int    `json:"Threads" mapstructure:"Threads"`
	TimeoutSeconds int    `json:"TimeoutSeconds" mapstructure:"TimeoutSeconds"`
	EntryPoint     string `json:"EntryPoint" mapstructure:"EntryPoint"`
}

// DefaultCommand returns the launch command for a given module:attr entry point
// with all other settings at their defaults.
func DefaultCommand(entryPoint string) *Command {
	return &Command{
		Binary:         DefaultBinary,
		PortVariable:   DefaultPortVariable,
		DefaultPort:    DefaultPort,
		Workers:        DefaultWorkers,
		Threads:        DefaultThreads,
		TimeoutSeconds: DefaultTimeoutSeconds,
		EntryPoint:     entryPoint,
	}
}

// Bind returns the bind argument with the port variable unresolved.
func (c *Command) Bind() string {
	if c.PortVariable == "" {
		return fmt.Sprintf(":%d", c.DefaultPort)
	}
	return fmt.Sprintf(":$%s", c.PortVariable)
}

// EffectiveBind resolves the bind address against a run time environment.
// The port variable wins when set, otherwise the default port applies.
// The command itself is never modified.
func (c *Command) EffectiveBind(env map[string]string) string {
	if c.PortVariable != "" {
		if v, ok := env[c.PortVariable]; ok && v != "" {
			return ":" + v
		}
	}
	return fmt.Sprintf(":%d", c.DefaultPort)
}

// Exec renders the exact launch argument vector.
func (c *Command) Exec() []string {
	return []string{
		c.Binary,
		"--bind", c.Bind(),
		"--workers", strconv.Itoa(c.Workers),
		"--threads", strconv.Itoa(c.Threads),
		"--timeout", strconv.Itoa(c.TimeoutSeconds),
		c.EntryPoint,
	}
}

// ExecString renders the launch command as a single shell command string.
func (c *Command) ExecString() string {
	return "exec " + strings.Join(c.Exec(), " ")
}

// EntryPointModule returns the module part of the module:attr entry point.
func (c *Command) EntryPointModule() string {
	return strings.Split(c.EntryPoint, ":")[0]
}

// FromValues parses a CMD / ENTRYPOINT argument vector back into a Command.
// The vector may be the shell form wrapper produced by ExecString.
func FromValues(values []string) (*Command, error) {
	args := values
	if len(args) == 3 && args[1] == "-c" {
		args = strings.Fields(args[2])
	}
	if len(args) == 1 && strings.Contains(args[0], " ") {
		// shell form CMD parses as a single value
		args = strings.Fields(args[0])
	}
	if len(args) > 0 && args[0] == "exec" {
		args = args[1:]
	}
	if len(args) < 2 {
		return nil, &bcErrors.LaunchError{Cmd: values, Reason: fmt.Errorf("vector too short")}
	}

	command := &Command{
		Binary:         args[0],
		DefaultPort:    DefaultPort,
		Workers:        DefaultWorkers,
		Threads:        DefaultThreads,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}

	i := 1
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			break
		}
		if i+1 >= len(args) {
			return nil, &bcErrors.LaunchError{Cmd: values, Reason: fmt.Errorf("flag without value: %s", arg)}
		}
		value := args[i+1]
		switch arg {
		case "--bind":
			if err := command.parseBind(value); err != nil {
				return nil, &bcErrors.LaunchError{Cmd: values, Reason: err}
			}
		case "--workers":
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return nil, &bcErrors.LaunchError{Cmd: values, Reason: fmt.Errorf("invalid workers: %s", value)}
			}
			command.Workers = parsed
		case "--threads":
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return nil, &bcErrors.LaunchError{Cmd: values, Reason: fmt.Errorf("invalid threads: %s", value)}
			}
			command.Threads = parsed
		case "--timeout":
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return nil, &bcErrors.LaunchError{Cmd: values, Reason: fmt.Errorf("invalid timeout: %s", value)}
			}
			command.TimeoutSeconds = parsed
		default:
			return nil, &bcErrors.LaunchError{Cmd: values, Reason: fmt.Errorf("unsupported flag: %s", arg)}
		}
		i = i + 2
	}

	if i != len(args)-1 {
		return nil, &bcErrors.LaunchError{Cmd: values, Reason: fmt.Errorf("expected exactly one entry point")}
	}
	entryPoint := args[i]
	if !strings.Contains(entryPoint, ":") {
		return nil, &bcErrors.LaunchError{Cmd: values, Reason: fmt.Errorf("entry point is not module:attr: %s", entryPoint)}
	}
	command.EntryPoint = entryPoint
	return command, nil
}

func (c *Command) parseBind(value string) error {
	if !strings.HasPrefix(value, ":") {
		return fmt.Errorf("invalid bind: %s", value)
	}
	value = strings.TrimPrefix(value, ":")
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		c.PortVariable = strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}")
		return nil
	}
	if strings.HasPrefix(value, "$") {
		c.PortVariable = strings.TrimPrefix(value, "$")
		return nil
	}
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid bind port: %s", value)
	}
	c.PortVariable = ""
	c.DefaultPort = port
	return nil
}
