package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/nbwatchdog/nbwatchdog/internal/command"
	"github.com/nbwatchdog/nbwatchdog/internal/watchdogerr"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

// FakeRunner is a command.Runner that replies scripted results, and records the invoked command lines.
type FakeRunner struct {
	sync.Mutex

	// Results is the scripted results keyed by the command line that joined by space.
	// The key can also be the command name only.
	Results map[string]command.Result

	Calls []string
}

// NewFakeRunner makes a FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Results: make(map[string]command.Result)}
}

// Succeed scripts the command line to succeed with stdout.
func (r *FakeRunner) Succeed(cmdline, stdout string) {
	r.Lock()
	defer r.Unlock()

	r.Results[cmdline] = command.Result{Stdout: stdout, ExitCode: 0}
}

// Fail scripts the command line to exit with code 1 and stderr.
func (r *FakeRunner) Fail(cmdline, stderr string) {
	r.Lock()
	defer r.Unlock()

	r.Results[cmdline] = command.Result{
		Stderr:   stderr,
		ExitCode: 1,
		Err:      watchdogerr.New(api.ErrCommand, nil, "%s: exit status 1", cmdline),
	}
}

// Timeout scripts the command line to time out.
func (r *FakeRunner) Timeout(cmdline string) {
	r.Lock()
	defer r.Unlock()

	r.Results[cmdline] = command.Result{
		ExitCode: -1,
		TimedOut: true,
		Err:      watchdogerr.New(api.ErrCommand, nil, "%s timed out", cmdline),
	}
}

// Run implements command.Runner.
// An unscripted command is reported as not found.
func (r *FakeRunner) Run(ctx context.Context, name string, args ...string) command.Result {
	cmdline := strings.Join(append([]string{name}, args...), " ")

	r.Lock()
	defer r.Unlock()

	r.Calls = append(r.Calls, cmdline)

	if res, ok := r.Results[cmdline]; ok {
		return res
	}
	if res, ok := r.Results[name]; ok {
		return res
	}
	return command.Result{
		ExitCode: -1,
		Err:      watchdogerr.New(api.ErrCommand, nil, "%s: executable file not found", name),
	}
}

// Called returns the recorded command lines.
func (r *FakeRunner) Called() []string {
	r.Lock()
	defer r.Unlock()

	return append([]string(nil), r.Calls...)
}
