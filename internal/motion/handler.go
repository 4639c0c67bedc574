package motion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

const (
	CommandSource = "command"
	FileSource    = "file"

	// StdinPath selects standard input as the file source
	StdinPath = "-"
)

// ConfigError is a custom error type for source configuration errors
type ConfigError struct {
	msg string
}

func NewConfigError(msg string) *ConfigError {
	return &ConfigError{msg}
}

func (e *ConfigError) Error() string {
	return e.msg
}

// RuntimeError is returned when the sensor logger binary cannot be located
type RuntimeError struct {
	msg string
	err error
}

func NewRuntimeError(msg string, err error) *RuntimeError {
	return &RuntimeError{msg, err}
}

func (e *RuntimeError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *RuntimeError) Unwrap() error {
	return e.err
}

// Config describes where motion samples come from
type Config struct {
	Type    string   `yaml:"type"`    // "command" or "file"
	Command string   `yaml:"command"` // Sensor logger binary, looked up in PATH
	Args    []string `yaml:"args"`    // Sensor logger arguments
	Path    string   `yaml:"path"`    // Recorded samples file, "-" for stdin
}

// NewHandler creates the handler described by config
func NewHandler(config *Config) (Handler, error) {
	switch config.Type {
	case CommandSource:
		return NewCommandHandler(config.Command, config.Args...)

	case FileSource:
		return NewFileHandler(config.Path)

	default:
		return nil, NewConfigError(fmt.Sprintf("unknown source type '%s'", config.Type))
	}
}

// commandHandler runs an external sensor logger and reads samples from its stdout
type commandHandler struct {
	binPath string
	args    []string
}

// NewCommandHandler creates a handler for the given sensor logger command
func NewCommandHandler(command string, args ...string) (Handler, error) {
	if command == "" {
		return nil, NewConfigError("command source requires a command")
	}

	binPath, err := findRuntime(command)
	if err != nil {
		return nil, err
	}

	return &commandHandler{binPath, args}, nil
}

func (h *commandHandler) Open(ctx context.Context) (*Stream, error) {
	cmd := exec.CommandContext(ctx, h.binPath, h.args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("error creating stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("error creating stderr pipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("error starting command: %w", err)
	}

	return &Stream{
		Stdout: stdout,
		Stderr: stderr,
		Wait:   cmd.Wait,
	}, nil
}

func (h *commandHandler) Name() string {
	return h.binPath
}

// readerHandler replays samples from a file or a caller-supplied reader
type readerHandler struct {
	name string
	open func() (io.ReadCloser, error)
}

// NewFileHandler creates a handler which reads samples from path, or from stdin when path is "-"
// Closing stdin does not interrupt a pending read from a terminal or a blocking pipe,
// so cancelling a stdin subscription takes effect with the next line.
func NewFileHandler(path string) (Handler, error) {
	switch path {
	case "":
		return nil, NewConfigError("file source requires a path")

	case StdinPath:
		return NewReaderHandler("stdin", os.Stdin), nil
	}

	return &readerHandler{
		name: path,
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// NewReaderHandler creates a handler which reads samples from r
func NewReaderHandler(name string, r io.ReadCloser) Handler {
	return &readerHandler{
		name: name,
		open: func() (io.ReadCloser, error) {
			return r, nil
		},
	}
}

func (h *readerHandler) Open(ctx context.Context) (*Stream, error) {
	r, err := h.open()
	if err != nil {
		return nil, err
	}

	// unblock a pending read once the subscription is cancelled
	stop := context.AfterFunc(ctx, func() {
		_ = r.Close()
	})

	return &Stream{
		Stdout: r,
		Close: func() error {
			if !stop() {
				return nil // already closed by the cancellation
			}
			return r.Close()
		},
	}, nil
}

func (h *readerHandler) Name() string {
	return h.name
}

func findRuntime(command string) (string, error) {
	binPath, err := exec.LookPath(command)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", NewRuntimeError(fmt.Sprintf("`%s` not found in PATH", command), err)
		}
		return "", NewRuntimeError("failed to locate binary", err)
	}

	return binPath, nil
}
