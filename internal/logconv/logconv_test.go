package logconv_test

import (
	"context"
	"testing"
	"time"

	"github.com/nbwatchdog/nbwatchdog/internal/logconv"
	"github.com/nbwatchdog/nbwatchdog/internal/testutil"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

var baseTime = time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

// history stores three records, healthy then degraded then failed, and returns them as Records read from the store.
func history(t *testing.T) logconv.Records {
	t.Helper()

	healthy := testutil.Record(baseTime, true, map[string]bool{"svc-a": true, "203.0.113.5": true})
	healthy.PID = api.Ptr(int32(1234))
	healthy.CheckDurationMs = 120

	degraded := testutil.Record(baseTime.Add(time.Minute), true, map[string]bool{"svc-a": true, "203.0.113.5": false})

	failed := testutil.Record(baseTime.Add(2*time.Minute), false, map[string]bool{"svc-a": false})

	s := testutil.NewStore(t)
	for _, r := range []api.HealthCheckRecord{healthy, degraded, failed} {
		if _, err := s.AddHealthCheck(context.Background(), r); err != nil {
			t.Fatalf("failed to add health check: %s", err)
		}
	}

	return logconv.FromStore(context.Background(), s, time.Unix(0, 0), time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
}
