package command_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/nbwatchdog/nbwatchdog/internal/command"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("this test uses unix shell")
	}
	t.Parallel()

	tests := []struct {
		Name     string
		Args     []string
		Stdout   string
		Stderr   string
		ExitCode int
		Success  bool
		TimedOut bool
	}{
		{"succeed", []string{"-c", "echo hello; echo world >&2"}, "hello", "world", 0, true, false},
		{"failed", []string{"-c", "echo oops >&2; exit 3"}, "", "oops", 3, false, false},
		{"timeout", []string{"-c", "sleep 10"}, "", "", -1, false, true},
	}

	r := command.ExecRunner{Timeout: 500 * time.Millisecond}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			res := r.Run(context.Background(), "sh", tt.Args...)

			if res.Stdout != tt.Stdout {
				t.Errorf("unexpected stdout: %q", res.Stdout)
			}
			if res.Stderr != tt.Stderr {
				t.Errorf("unexpected stderr: %q", res.Stderr)
			}
			if res.ExitCode != tt.ExitCode {
				t.Errorf("unexpected exit code: %d", res.ExitCode)
			}
			if res.Success() != tt.Success {
				t.Errorf("unexpected success: %v: %v", res.Success(), res.Err)
			}
			if res.TimedOut != tt.TimedOut {
				t.Errorf("unexpected timed out: %v", res.TimedOut)
			}
			if !tt.Success && !errors.Is(res.Err, api.ErrCommand) {
				t.Errorf("failed command should be ErrCommand: %v", res.Err)
			}
		})
	}
}

func TestExecRunner_notFound(t *testing.T) {
	res := command.ExecRunner{}.Run(context.Background(), "no-such-command-for-watchdog-test")

	if res.Success() {
		t.Fatalf("unknown command should fail")
	}
	if res.ExitCode != -1 {
		t.Errorf("unexpected exit code: %d", res.ExitCode)
	}
	if !errors.Is(res.Err, api.ErrCommand) {
		t.Errorf("unexpected error: %v", res.Err)
	}
}

func TestResult_Output(t *testing.T) {
	tests := []struct {
		Result command.Result
		Output string
	}{
		{command.Result{Stdout: "out"}, "out"},
		{command.Result{Stderr: "err"}, "err"},
		{command.Result{Stdout: "out", Stderr: "err"}, "out\nerr"},
		{command.Result{}, ""},
	}

	for _, tt := range tests {
		if got := tt.Result.Output(); got != tt.Output {
			t.Errorf("expected %q but got %q", tt.Output, got)
		}
	}
}
