// Package command runs external OS commands with a bounded timeout.
package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/nbwatchdog/nbwatchdog/internal/textdecode"
	"github.com/nbwatchdog/nbwatchdog/internal/watchdogerr"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

const (
	DefaultTimeout = 30 * time.Second
)

// Result is the outcome of an external command.
type Result struct {
	Stdout string
	Stderr string

	// ExitCode is -1 if the command did not exit normally, for example it was not found or it timed out.
	ExitCode int

	// Err is nil if the command exited with code 0, otherwise it is an error that is api.ErrCommand.
	Err error

	TimedOut bool
	Latency  time.Duration
}

// Success reports the command exited with code 0.
func (r Result) Success() bool {
	return r.Err == nil
}

// Output returns stdout, followed by stderr if it is not empty.
func (r Result) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// Runner is the interface to run an external command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Result
}

// ExecRunner runs commands as subprocesses.
type ExecRunner struct {
	// Timeout bounds every invocation. DefaultTimeout is used if it is zero.
	Timeout time.Duration
}

func isUnknownExecutionError(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, exec.ErrDot)
}

func decode(b []byte) string {
	s, err := textdecode.Bytes(b)
	if err != nil {
		s = string(b)
	}
	return strings.TrimSpace(s)
}

// Run runs the command and waits for it.
// A timed out command is killed, and reported as a failure.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) Result {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	// grandchildren may keep the pipes open after the command was killed.
	cmd.WaitDelay = time.Second

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	st := time.Now()
	err := cmd.Run()

	res := Result{
		Stdout:   decode(stdout.Bytes()),
		Stderr:   decode(stderr.Bytes()),
		ExitCode: -1,
		Latency:  time.Since(st),
	}

	switch {
	case err == nil:
		res.ExitCode = 0
	case ctx.Err() == context.DeadlineExceeded:
		res.TimedOut = true
		res.Err = watchdogerr.New(api.ErrCommand, err, "%s timed out after %s", name, timeout)
	case isUnknownExecutionError(err):
		res.Err = watchdogerr.New(api.ErrCommand, err, "")
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			res.ExitCode = exitErr.ExitCode()
		}
		res.Err = watchdogerr.New(api.ErrCommand, err, "%s", name)
	}

	return res
}
