package recovery_test

import (
	"context"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"github.com/nbwatchdog/nbwatchdog/internal/recovery"
	"github.com/nbwatchdog/nbwatchdog/internal/testutil"
)

var strategies = []recovery.Strategy{
	{Method: "native", Steps: [][]string{{"svc", "restart", "netbird"}}},
	{Method: "stop_start", Steps: [][]string{{"ctl", "stop", "netbird"}, {"ctl", "start", "netbird"}}},
}

func newClient(r *testutil.FakeRunner) *recovery.Client {
	return &recovery.Client{
		Service:    "netbird",
		CLI:        "netbird",
		Runner:     r,
		Strategies: strategies,
		Logger:     logr.Discard(),
	}
}

func TestClient_Restart(t *testing.T) {
	tests := []struct {
		Name   string
		Script func(r *testutil.FakeRunner)
		Want   recovery.RestartResult
		Calls  []string
	}{
		{
			Name: "first-succeeded",
			Script: func(r *testutil.FakeRunner) {
				r.Succeed("svc restart netbird", "restarted")
				r.Succeed("ctl stop netbird", "")
				r.Succeed("ctl start netbird", "")
			},
			Want:  recovery.RestartResult{Success: true, Method: "native", Stdout: "restarted"},
			Calls: []string{"svc restart netbird"},
		},
		{
			Name: "fallback",
			Script: func(r *testutil.FakeRunner) {
				r.Fail("svc restart netbird", "access denied")
				r.Succeed("ctl stop netbird", "stopped")
				r.Succeed("ctl start netbird", "started")
			},
			Want:  recovery.RestartResult{Success: true, Method: "stop_start", Stdout: "stopped\nstarted"},
			Calls: []string{"svc restart netbird", "ctl stop netbird", "ctl start netbird"},
		},
		{
			Name: "fallback-after-timeout",
			Script: func(r *testutil.FakeRunner) {
				r.Timeout("svc restart netbird")
				r.Succeed("ctl stop netbird", "")
				r.Succeed("ctl start netbird", "started")
			},
			Want:  recovery.RestartResult{Success: true, Method: "stop_start", Stdout: "started"},
			Calls: []string{"svc restart netbird", "ctl stop netbird", "ctl start netbird"},
		},
		{
			Name: "start-after-failed-stop",
			Script: func(r *testutil.FakeRunner) {
				r.Fail("svc restart netbird", "access denied")
				r.Fail("ctl stop netbird", "not running")
				r.Succeed("ctl start netbird", "started")
			},
			Want: recovery.RestartResult{
				Success: false,
				Method:  recovery.MethodFailed,
				Stdout:  "started",
				Stderr:  "access denied\nnot running",
			},
			Calls: []string{"svc restart netbird", "ctl stop netbird", "ctl start netbird"},
		},
		{
			Name: "all-failed",
			Script: func(r *testutil.FakeRunner) {
				r.Fail("svc restart netbird", "access denied")
				r.Fail("ctl stop netbird", "no such service")
				r.Fail("ctl start netbird", "no such service")
			},
			Want: recovery.RestartResult{
				Success: false,
				Method:  recovery.MethodFailed,
				Stderr:  "access denied\nno such service\nno such service",
			},
			Calls: []string{"svc restart netbird", "ctl stop netbird", "ctl start netbird"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			r := testutil.NewFakeRunner()
			tt.Script(r)

			got := newClient(r).Restart(context.Background())

			if diff := cmp.Diff(tt.Want, got); diff != "" {
				t.Errorf("unexpected result:\n%s", diff)
			}
			if diff := cmp.Diff(tt.Calls, r.Called()); diff != "" {
				t.Errorf("unexpected calls:\n%s", diff)
			}
		})
	}
}

func TestClient_Restart_notFound(t *testing.T) {
	r := testutil.NewFakeRunner()

	got := newClient(r).Restart(context.Background())

	if got.Success || got.Method != recovery.MethodFailed {
		t.Errorf("unexpected result: %#v", got)
	}
	if !strings.Contains(got.Stderr, "executable file not found") {
		t.Errorf("the error should be kept in stderr: %q", got.Stderr)
	}
}

func TestDefaultStrategies(t *testing.T) {
	ss := recovery.DefaultStrategies("netbird")
	if len(ss) != 2 {
		t.Fatalf("unexpected number of strategies: %d", len(ss))
	}
	if len(ss[0].Steps) != 1 {
		t.Errorf("the first strategy should be a single restart: %v", ss[0].Steps)
	}
	if len(ss[1].Steps) != 2 {
		t.Errorf("the second strategy should be stop and start: %v", ss[1].Steps)
	}
	for _, s := range ss {
		for _, step := range s.Steps {
			if !strings.Contains(strings.Join(step, " "), "netbird") {
				t.Errorf("%s: step does not mention the service: %v", s.Method, step)
			}
		}
	}
}

func TestClient_Status(t *testing.T) {
	r := testutil.NewFakeRunner()
	r.Succeed("netbird status", "Daemon status: Connected")
	r.Fail("netbird status --json", "daemon is not running")

	c := newClient(r)

	got := c.Status(context.Background())
	want := recovery.CommandResult{Success: true, Stdout: "Daemon status: Connected", ReturnCode: 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected status:\n%s", diff)
	}

	got = c.StatusJSON(context.Background())
	want = recovery.CommandResult{Success: false, Stderr: "daemon is not running", ReturnCode: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected json status:\n%s", diff)
	}
	if got.Text() != "\ndaemon is not running" {
		t.Errorf("unexpected text: %q", got.Text())
	}

	got = c.Routes(context.Background())
	if got.Success || got.ReturnCode != -1 || got.Stderr == "" {
		t.Errorf("unexpected routes: %#v", got)
	}
}
