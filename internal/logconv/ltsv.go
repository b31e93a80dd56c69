package logconv

import (
	"fmt"
	"io"
	"time"

	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

func ToLTSV(w io.Writer, records Records) error {
	return records(func(r api.HealthCheckRecord) error {
		_, err := fmt.Fprintf(
			w,
			"time:%s\tstatus:%s\tprocess_running:%t\tinternet_reachable:%t\tdns_working:%t\tservices_up:%s\tcheck_duration_ms:%d",
			r.Timestamp.UTC().Format(time.RFC3339),
			statusOf(r),
			r.Running,
			r.InternetReachable,
			r.DNSWorking,
			servicesUp(r),
			r.CheckDurationMs,
		)
		if err != nil {
			return err
		}

		if pid := formatPID(r.PID); pid != "" {
			if _, err := fmt.Fprintf(w, "\tpid:%s", pid); err != nil {
				return err
			}
		}

		// The JSON encoding never contains tab or newline, so it needs no escape.
		if s := servicesJSON(r); s != "" {
			if _, err := fmt.Fprintf(w, "\tservices:%s", s); err != nil {
				return err
			}
		}

		_, err = fmt.Fprintln(w)
		return err
	})
}
