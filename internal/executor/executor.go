// Package executor runs external helper programs and captures their output.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Result holds the output and exit status of one command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs a prepared command.
type Executor interface {
	Execute(ctx context.Context, opts ...Option) (*Result, error)
}

// Options configures command execution.
type Options struct {
	// WorkingDir is the directory the command runs in; empty means the current one.
	WorkingDir string

	// Env holds variables appended to the current environment.
	Env map[string]string

	// StderrWriter additionally receives stderr as it is produced.
	StderrWriter io.Writer
}

// Option modifies Options.
type Option func(*Options)

// CommandExecutor runs one program with fixed arguments.
type CommandExecutor struct {
	program string
	args    []string
}

var _ Executor = (*CommandExecutor)(nil)

// New creates a CommandExecutor.
func New(program string, args ...string) *CommandExecutor {
	return &CommandExecutor{
		program: program,
		args:    args,
	}
}

// WrappedExecutor builds commands for a single program.
type WrappedExecutor struct {
	program string
}

// NewWrappedExecutor creates an executor for program.
func NewWrappedExecutor(program string) *WrappedExecutor {
	return &WrappedExecutor{program: program}
}

// Command creates an executor for the wrapped program with args.
func (w *WrappedExecutor) Command(args ...string) *CommandExecutor {
	return New(w.program, args...)
}

// String renders the command line for logs and errors.
func (c *CommandExecutor) String() string {
	return strings.Join(append([]string{c.program}, c.args...), " ")
}

// Execute runs the command to completion. Stdout and stderr are always
// captured; a non-zero exit returns both the Result and an error.
func (c *CommandExecutor) Execute(ctx context.Context, opts ...Option) (*Result, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	cmd := exec.CommandContext(ctx, c.program, c.args...)
	cmd.Dir = options.WorkingDir
	if len(options.Env) > 0 {
		cmd.Env = append(os.Environ(), envList(options.Env)...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if options.StderrWriter != nil {
		cmd.Stderr = io.MultiWriter(&stderr, options.StderrWriter)
	}

	err := cmd.Run()

	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
	}
	return result, fmt.Errorf("run %s: %w", c, err)
}

func envList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// WithWorkingDir sets the working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnvVar adds a single environment variable.
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

// WithStderrWriter tees stderr to w.
func WithStderrWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StderrWriter = w
	}
}
