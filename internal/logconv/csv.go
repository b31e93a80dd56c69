package logconv

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

func ToCSV(w io.Writer, records Records) error {
	c := csv.NewWriter(w)

	err := c.Write([]string{"time", "status", "process_running", "pid", "internet_reachable", "dns_working", "services_up", "check_duration_ms", "services"})
	if err != nil {
		return err
	}

	err = records(func(r api.HealthCheckRecord) error {
		return c.Write([]string{
			r.Timestamp.UTC().Format(time.RFC3339),
			statusOf(r).String(),
			strconv.FormatBool(r.Running),
			formatPID(r.PID),
			strconv.FormatBool(r.InternetReachable),
			strconv.FormatBool(r.DNSWorking),
			servicesUp(r),
			strconv.FormatInt(r.CheckDurationMs, 10),
			servicesJSON(r),
		})
	})
	if err != nil {
		return err
	}

	c.Flush()

	return c.Error()
}
