// Package collector runs the probes and folds their results into records.
package collector

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/nbwatchdog/nbwatchdog/internal/probe"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

// Collector runs the routine and deep probes with its settings.
type Collector struct {
	ProcessName string

	InternetHost string
	InternetPort int
	DNSDomain    string

	Services []string

	// Timeout bounds each routine probe.
	Timeout time.Duration

	Deep   probe.DeepProber
	Logger logr.Logger
}

func (c *Collector) logFailure(kind string, err *api.ProbeError) {
	if err == nil {
		return
	}
	c.Logger.V(1).Info("probe failed", "check_name", kind, "error_type", string(err.Type), "error", err.Message)
}

// RunRoutine runs the routine probes one by one, and measures how long they took.
func (c *Collector) RunRoutine(ctx context.Context) api.RoutineBundle {
	st := time.Now()

	b := api.RoutineBundle{
		Timestamp: probe.CurrentTime().UTC(),
		CheckType: api.CheckTypeRoutine,
	}

	b.Process = probe.CheckProcess(ctx, c.ProcessName)
	c.logFailure("process", b.Process.Err)

	b.Internet = probe.CheckInternet(ctx, c.InternetHost, c.InternetPort, c.Timeout)
	c.logFailure("internet", b.Internet.Err)

	b.DNS = probe.CheckDNS(ctx, c.DNSDomain, c.Timeout)
	c.logFailure("dns", b.DNS.Err)

	b.Services = probe.CheckServices(ctx, c.Services, c.Timeout)
	c.logFailure("services", b.Services.Err)
	for _, name := range b.Services.Value.Names() {
		if s := b.Services.Value[name]; !s.Reachable {
			c.Logger.V(1).Info("service unreachable", "check_name", name, "tcp_error", s.TCPError, "http_error", s.HTTPError)
		}
	}

	b.CheckDurationMs = time.Since(st).Milliseconds()

	return b
}

// CaptureDeep runs the deep captures.
// The failure of each capture is recorded in the bundle, so the error is only for the cancelled context.
func (c *Collector) CaptureDeep(ctx context.Context) (api.DeepDiagnostics, error) {
	d := c.Deep.Capture(ctx)
	if err := ctx.Err(); err != nil {
		return d, err
	}
	return d, nil
}

// Summarize folds a routine bundle and its assessed status into a HealthCheckRecord.
func Summarize(b api.RoutineBundle, status api.Status) api.HealthCheckRecord {
	p := b.Process.Value

	services := b.Services.Value
	if services == nil {
		services = api.ServiceStatusMap{}
	}

	return api.HealthCheckRecord{
		Timestamp:         b.Timestamp,
		CheckType:         b.CheckType,
		Running:           p.Running,
		PID:               p.PID,
		UptimeSeconds:     p.UptimeSeconds,
		CPUPercent:        p.CPUPercent,
		MemoryMB:          p.MemoryMB,
		InternetReachable: b.Internet.Value.Reachable,
		DNSWorking:        b.DNS.Value.Working,
		Services:          services,
		SystemHealthy:     status == api.StatusHealthy,
		CheckDurationMs:   b.CheckDurationMs,
	}
}
