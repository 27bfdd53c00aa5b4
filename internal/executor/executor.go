// Package executor runs the external processes the install pipeline needs:
// archive creation and extraction, and sandboxed install scripts.
package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Executor wraps subprocess execution with output capture. Commands never
// inherit the terminal; callers get stderr back for error reporting.
type Executor struct {
	verbose bool
}

// New creates a new Executor.
func New(verbose bool) *Executor {
	return &Executor{verbose: verbose}
}

// SetVerbose enables or disables command tracing.
func (e *Executor) SetVerbose(verbose bool) {
	e.verbose = verbose
}

// Run executes a command, capturing output. On failure the captured stderr
// is returned alongside the error so callers can surface it.
func (e *Executor) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.trace(name, args)
	err := cmd.Run()
	return stderr.String(), err
}

// Output runs a command and returns its stdout.
func (e *Executor) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.trace(name, args)
	if err := cmd.Run(); err != nil {
		return stdout.String(), err
	}
	return stdout.String(), nil
}

// RunIn executes a command in a working directory, capturing stderr.
func (e *Executor) RunIn(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.trace(name, args)
	err := cmd.Run()
	return stderr.String(), err
}

// RunSandboxed executes a command with exactly the given environment instead
// of the inherited one, in the given working directory. Stderr is captured
// and returned for error reporting.
func (e *Executor) RunSandboxed(ctx context.Context, dir string, env []string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.trace(name, args)
	err := cmd.Run()
	return stderr.String(), err
}

// ExitCode extracts the subprocess exit code from a Run error, -1 when the
// process never ran.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func (e *Executor) trace(name string, args []string) {
	if e.verbose {
		log.Debug("exec", "cmd", name+" "+strings.Join(args, " "))
	}
}
