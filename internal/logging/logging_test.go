package logging_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nbwatchdog/nbwatchdog/internal/logging"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

type metaRecorder struct {
	sync.Mutex
	entries []api.MetaLogEntry
}

func (m *metaRecorder) LogMeta(e api.MetaLogEntry) {
	m.Lock()
	defer m.Unlock()
	m.entries = append(m.entries, e)
}

var logTime = time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

func newOutput(level logging.Level) (*logging.Output, *bytes.Buffer) {
	var buf bytes.Buffer
	return &logging.Output{
		Level:       level,
		Console:     &buf,
		CurrentTime: func() time.Time { return logTime },
	}, &buf
}

func TestSink_console(t *testing.T) {
	out, buf := newOutput(logging.LevelInfo)
	l := logging.New(out).WithName("watchdog")

	l.Info("status", "status", api.StatusFailed, "failures", 2)
	logging.Warn(l, "failed assessment", "failures", "2/3")
	l.V(1).Info("hidden debug line")
	l.Error(errors.New("disk full"), "failed to record", "check_name", "store")

	want := strings.Join([]string{
		"2024-01-02 15:04:05 | INFO | status status=failed failures=2",
		"2024-01-02 15:04:05 | WARNING | failed assessment failures=2/3",
		`2024-01-02 15:04:05 | ERROR | failed to record error="disk full" check_name=store`,
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("unexpected output:\n%s", diff)
	}
}

func TestSink_levels(t *testing.T) {
	tests := []struct {
		Level logging.Level
		Lines int
	}{
		{logging.LevelDebug, 4},
		{logging.LevelInfo, 3},
		{logging.LevelWarning, 2},
		{logging.LevelError, 1},
	}

	for _, tt := range tests {
		t.Run(tt.Level.String(), func(t *testing.T) {
			out, buf := newOutput(tt.Level)
			l := logging.New(out)

			l.V(1).Info("debug")
			l.Info("info")
			logging.Warn(l, "warning")
			l.Error(nil, "error")

			if n := strings.Count(buf.String(), "\n"); n != tt.Lines {
				t.Errorf("expected %d lines but got %d:\n%s", tt.Lines, n, buf.String())
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		Input string
		Want  logging.Level
		Error bool
	}{
		{"DEBUG", logging.LevelDebug, false},
		{"info", logging.LevelInfo, false},
		{"", logging.LevelInfo, false},
		{"Warning", logging.LevelWarning, false},
		{"warn", logging.LevelWarning, false},
		{"ERROR", logging.LevelError, false},
		{"verbose", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := logging.ParseLevel(tt.Input)
		if (err != nil) != tt.Error {
			t.Errorf("%q: unexpected error: %v", tt.Input, err)
		}
		if got != tt.Want {
			t.Errorf("%q: expected %s but got %s", tt.Input, tt.Want, got)
		}
	}
}

func TestSink_meta(t *testing.T) {
	out, _ := newOutput(logging.LevelDebug)
	meta := &metaRecorder{}
	out.SetMeta(meta)

	l := logging.New(out).WithName("collector").WithValues("cycle", "abc")
	l.V(1).Info("probe failed", "check_name", "internet", "error_type", api.ErrorTypeConnectionFailed, "latency", 3*time.Second)
	l.Error(errors.New("boom"), "cycle failed")

	want := []api.MetaLogEntry{
		{
			Timestamp: logTime,
			Level:     "DEBUG",
			Component: "collector",
			Message:   "probe failed",
			Details:   map[string]any{"cycle": "abc", "latency": "3s"},
			CheckName: "internet",
			ErrorType: "connection_failed",
		},
		{
			Timestamp: logTime,
			Level:     "ERROR",
			Component: "collector",
			Message:   "cycle failed",
			Details:   map[string]any{"cycle": "abc", "error": "boom"},
		},
	}
	if diff := cmp.Diff(want, meta.entries); diff != "" {
		t.Errorf("unexpected meta entries:\n%s", diff)
	}

	out.SetMeta(nil)
	l.Info("after detach")
	if len(meta.entries) != 2 {
		t.Errorf("detached meta writer should not receive entries")
	}
}

func TestSink_file(t *testing.T) {
	dir := t.TempDir()

	now := logTime
	out := &logging.Output{
		Level:         logging.LevelInfo,
		Dir:           dir,
		Pattern:       logging.ParsePattern("watchdog_%Y%m%d.log"),
		RetentionDays: 7,
		CurrentTime:   func() time.Time { return now },
	}
	defer out.Close()

	l := logging.New(out)
	l.WithName("daemon").Info("first day")

	now = now.AddDate(0, 0, 1)
	l.Info("second day")

	first, err := os.ReadFile(filepath.Join(dir, "watchdog_20240102.log"))
	if err != nil {
		t.Fatalf("failed to read first log: %s", err)
	}
	if string(first) != "2024-01-02 15:04:05 | INFO | daemon | first day\n" {
		t.Errorf("unexpected first log: %q", first)
	}

	second, err := os.ReadFile(filepath.Join(dir, "watchdog_20240103.log"))
	if err != nil {
		t.Fatalf("failed to read second log: %s", err)
	}
	if string(second) != "2024-01-03 15:04:05 | INFO | main | second day\n" {
		t.Errorf("unexpected second log: %q", second)
	}
}

func TestSink_fileError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatalf("failed to prepare file: %s", err)
	}

	out, buf := newOutput(logging.LevelInfo)
	out.Dir = filepath.Join(blocker, "logs")
	out.Pattern = logging.ParsePattern("watchdog.log")

	l := logging.New(out)
	l.Info("hello")
	l.Info("world")

	if n := strings.Count(buf.String(), "failed to write log file"); n != 1 {
		t.Errorf("file error should be reported once but reported %d times:\n%s", n, buf.String())
	}
	if !strings.Contains(buf.String(), "| INFO | world") {
		t.Errorf("console should keep working:\n%s", buf.String())
	}
}
