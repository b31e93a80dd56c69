package main_test

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/nbwatchdog/nbwatchdog/cmd/nbwatchdog"
	"github.com/nbwatchdog/nbwatchdog/internal/store"
	"github.com/nbwatchdog/nbwatchdog/internal/testutil"
)

// selfName is the name of the test binary as the process table shows.
func selfName() string {
	name := strings.TrimSuffix(filepath.Base(os.Args[0]), ".exe")
	if len(name) > 15 {
		name = name[:15]
	}
	return name
}

// testEnv makes an environment that writes into a temporary directory and probes a local listener as the internet.
func testEnv(t *testing.T) map[string]string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %s", err)
	}
	t.Cleanup(func() { l.Close() })

	dir := t.TempDir()

	return map[string]string{
		"WATCHDOG_CONFIG":         filepath.Join(dir, "no-such-config.yaml"),
		"WATCHDOG_DATA_DIR":       filepath.Join(dir, "data"),
		"WATCHDOG_LOG_DIR":        filepath.Join(dir, "logs"),
		"WATCHDOG_PROCESS_NAME":   selfName(),
		"WATCHDOG_CLIENT_COMMAND": "no-such-netbird-command",
		"WATCHDOG_INTERNET_HOST":  "127.0.0.1",
		"WATCHDOG_INTERNET_PORT":  strconv.Itoa(l.Addr().(*net.TCPAddr).Port),
		"WATCHDOG_DNS_DOMAIN":     "localhost",
		"WATCHDOG_DEEP_TIMEOUT":   "5",
		"WATCHDOG_AUTO_RESTART":   "false",
	}
}

func makeCommand(env map[string]string) (*main.WatchdogCommand, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer

	return &main.WatchdogCommand{
		OutStream: &stdout,
		ErrStream: &stderr,
		LookupEnv: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
	}, &stdout, &stderr
}

func TestWatchdogCommand_ParseArgs(t *testing.T) {
	tests := []struct {
		Name     string
		Args     []string
		Env      map[string]string
		Mode     string
		Pattern  string
		ExitCode int
	}{
		{"default", []string{"nbwatchdog"}, nil, "run", `^$`, 0},
		{"oneshot", []string{"nbwatchdog", "oneshot", "--service", "svc-a"}, nil, "oneshot", `^$`, 0},
		{"version", []string{"nbwatchdog", "-v"}, nil, "run", `^$`, 0},
		{"version-command", []string{"nbwatchdog", "version"}, nil, "version", `^$`, 0},
		{"help", []string{"nbwatchdog", "report", "-h"}, nil, "report", `^$`, 0},
		{"unknown-command", []string{"nbwatchdog", "restart"}, nil, "restart", "^unknown command: restart\n", 2},
		{"unknown-flag", []string{"nbwatchdog", "--no-such-option"}, nil, "run", "^unknown flag: --no-such-option\n\nPlease see `nbwatchdog -h` for more information\\.\n$", 2},
		{"extra-argument", []string{"nbwatchdog", "run", "svc-a"}, nil, "run", "^invalid argument: unexpected argument: svc-a\n", 2},
		{"invalid-flag-value", []string{"nbwatchdog", "--threshold", "0"}, nil, "run", "^error: invalid configuration:\n  failure_threshold: must be 1 or more: 0\n$", 2},
		{"invalid-env", nil, map[string]string{"WATCHDOG_ROUTINE_INTERVAL": "soon"}, "run", "^error: invalid configuration:\n  WATCHDOG_ROUTINE_INTERVAL: invalid duration: \"soon\"\n$", 2},
		{"clear-without-yes", []string{"nbwatchdog", "clear"}, nil, "clear", "^error: clear deletes all recorded history\\. please add --yes to confirm\\.\n$", 2},
		{"clear-with-yes", []string{"nbwatchdog", "clear", "-y"}, nil, "clear", `^$`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			env := map[string]string{"WATCHDOG_CONFIG": filepath.Join(t.TempDir(), "none.yaml")}
			for k, v := range tt.Env {
				env[k] = v
			}
			args := tt.Args
			if args == nil {
				args = []string{"nbwatchdog"}
			}

			cmd, _, stderr := makeCommand(env)

			if code := cmd.ParseArgs(args); code != tt.ExitCode {
				t.Errorf("unexpected exit code: expected %d but got %d: %s", tt.ExitCode, code, stderr)
			}
			if cmd.Mode != tt.Mode {
				t.Errorf("unexpected mode: expected %q but got %q", tt.Mode, cmd.Mode)
			}
			if ok, _ := regexp.MatchString(tt.Pattern, stderr.String()); !ok {
				t.Errorf("unexpected output: expected pattern is %q\n%s", tt.Pattern, stderr)
			}
		})
	}
}

func TestWatchdogCommand_ParseArgs_layers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchdog.yaml")
	if err := os.WriteFile(path, []byte("failure_threshold: 5\nroutine_interval: 30\nservices: [from-file]\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %s", err)
	}

	cmd, _, stderr := makeCommand(map[string]string{
		"WATCHDOG_ROUTINE_INTERVAL": "45",
		"WATCHDOG_SERVICES":         "from-env",
	})

	if code := cmd.ParseArgs([]string{"nbwatchdog", "-f", path, "--service", "from-flag"}); code != 0 {
		t.Fatalf("unexpected exit code: %d: %s", code, stderr)
	}

	if cmd.Config.FailureThreshold != 5 {
		t.Errorf("threshold should come from the file: %d", cmd.Config.FailureThreshold)
	}
	if cmd.Config.RoutineInterval.String() != "45s" {
		t.Errorf("interval should come from the environment: %s", cmd.Config.RoutineInterval)
	}
	if len(cmd.Config.Services) != 1 || cmd.Config.Services[0] != "from-flag" {
		t.Errorf("services should come from the flag: %v", cmd.Config.Services)
	}
}

func TestWatchdogCommand_Run_version(t *testing.T) {
	cmd, stdout, _ := makeCommand(nil)

	if code := cmd.Run(context.Background(), []string{"nbwatchdog", "version"}); code != 0 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if ok, _ := regexp.MatchString(`^nbwatchdog version [^ ]+ \([^)]+\)\n$`, stdout.String()); !ok {
		t.Errorf("unexpected output: %q", stdout)
	}
}

func TestWatchdogCommand_Run_help(t *testing.T) {
	cmd, _, stderr := makeCommand(map[string]string{"WATCHDOG_CONFIG": filepath.Join(t.TempDir(), "none.yaml")})

	if code := cmd.Run(context.Background(), []string{"nbwatchdog", "-h"}); code != 0 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	for _, want := range []string{"Usage: nbwatchdog [COMMAND] [OPTIONS...]", "--report-schedule", "WATCHDOG_<KEY>"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("help should contain %q:\n%s", want, stderr)
		}
	}
}

func TestWatchdogCommand_Run_oneshot(t *testing.T) {
	env := testEnv(t)
	cmd, stdout, stderr := makeCommand(env)

	code := cmd.Run(context.Background(), []string{"nbwatchdog", "oneshot"})
	if code != 0 {
		t.Fatalf("unexpected exit code: %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}

	for _, want := range []string{"status: healthy\n", "process: running (pid ", "internet: ok\n", "services: 0/0 reachable\n"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("output should contain %q:\n%s", want, stdout)
		}
	}

	s, err := store.Open(filepath.Join(env["WATCHDOG_DATA_DIR"], "watchdog.db"))
	if err != nil {
		t.Fatalf("failed to open store: %s", err)
	}
	defer s.Close()

	rs, err := s.RecentHealthChecks(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to read health checks: %s", err)
	}
	if len(rs) != 1 || !rs[0].SystemHealthy {
		t.Errorf("oneshot should record a healthy check: %#v", rs)
	}
}

func TestWatchdogCommand_Run_oneshotUnhealthy(t *testing.T) {
	env := testEnv(t)
	env["WATCHDOG_PROCESS_NAME"] = "no-such-process-for-watchdog-test"
	cmd, stdout, _ := makeCommand(env)

	if code := cmd.Run(context.Background(), []string{"nbwatchdog", "oneshot"}); code != 1 {
		t.Errorf("unexpected exit code: %d", code)
	}
	if !strings.Contains(stdout.String(), "status: failed\nprocess: not running\n") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestWatchdogCommand_Run_report(t *testing.T) {
	env := testEnv(t)
	cmd, stdout, stderr := makeCommand(env)

	if code := cmd.Run(context.Background(), []string{"nbwatchdog", "report"}); code != 0 {
		t.Fatalf("unexpected exit code: %d\n%s", code, stderr)
	}

	path := strings.TrimSpace(stdout.String())
	if filepath.Dir(path) != filepath.Join(env["WATCHDOG_DATA_DIR"], "reports") {
		t.Errorf("unexpected report path: %s", path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %s", err)
	}
	if !strings.Contains(string(b), "- No health checks found yet.\n") {
		t.Errorf("unexpected report:\n%s", b)
	}
}

func TestWatchdogCommand_Run_clear(t *testing.T) {
	env := testEnv(t)

	s, err := store.Open(filepath.Join(env["WATCHDOG_DATA_DIR"], "watchdog.db"))
	if err != nil {
		t.Fatalf("failed to open store: %s", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.AddHealthCheck(context.Background(), testutil.Record(baseTime, true, nil)); err != nil {
			t.Fatalf("failed to add health check: %s", err)
		}
	}
	s.Close()

	cmd, stdout, stderr := makeCommand(env)
	if code := cmd.Run(context.Background(), []string{"nbwatchdog", "clear", "--yes"}); code != 0 {
		t.Fatalf("unexpected exit code: %d\n%s", code, stderr)
	}
	if !strings.HasPrefix(stdout.String(), "cleared all history in ") {
		t.Errorf("unexpected output: %s", stdout)
	}

	s, err = store.Open(filepath.Join(env["WATCHDOG_DATA_DIR"], "watchdog.db"))
	if err != nil {
		t.Fatalf("failed to open store: %s", err)
	}
	defer s.Close()

	rs, err := s.RecentHealthChecks(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to read health checks: %s", err)
	}
	if len(rs) != 0 {
		t.Errorf("expected no record but got %d", len(rs))
	}
}
