// Package logconv exports the health check history as CSV, LTSV or XLSX.
package logconv

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/nbwatchdog/nbwatchdog/internal/health"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

// Records passes health check records to fn in chronological order, and stops at the first error of fn.
type Records func(fn func(api.HealthCheckRecord) error) error

// HistoryScanner is the part of the Observation Store that the export reads.
type HistoryScanner interface {
	ScanHealthChecks(ctx context.Context, since, until time.Time, fn func(api.HealthCheckRecord) error) error
}

// FromStore reads the records in [since, until) from the store.
func FromStore(ctx context.Context, s HistoryScanner, since, until time.Time) Records {
	return func(fn func(api.HealthCheckRecord) error) error {
		return s.ScanHealthChecks(ctx, since, until, fn)
	}
}

// FromSlice reads the records from a slice.
func FromSlice(rs []api.HealthCheckRecord) Records {
	return func(fn func(api.HealthCheckRecord) error) error {
		for _, r := range rs {
			if err := fn(r); err != nil {
				return err
			}
		}
		return nil
	}
}

// servicesUp formats the number of reachable services, like "2/3".
func servicesUp(r api.HealthCheckRecord) string {
	up := 0
	for _, s := range r.Services {
		if s.Reachable {
			up++
		}
	}
	return fmt.Sprintf("%d/%d", up, len(r.Services))
}

// servicesJSON formats the reachability of each service as a JSON object, like {"svc-a":true}.
// It returns an empty string if there is no service.
func servicesJSON(r api.HealthCheckRecord) string {
	if len(r.Services) == 0 {
		return ""
	}

	m := make(map[string]bool, len(r.Services))
	for id, s := range r.Services {
		m[id] = s.Reachable
	}

	// Ignore error because it use empty string if failed to convert.
	b, _ := json.Marshal(m)
	return string(b)
}

func formatPID(pid *int32) string {
	if pid == nil {
		return ""
	}
	return strconv.FormatInt(int64(*pid), 10)
}

func statusOf(r api.HealthCheckRecord) api.Status {
	return health.AssessRecord(r)
}
