package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

// RunOneshot runs a single cycle and prints the status.
// The exit code is 0 only if the status is healthy.
func (cmd *WatchdogCommand) RunOneshot(ctx context.Context, a *app) (exitCode int) {
	c := a.Daemon.RunCycle(ctx)
	r := c.Record

	up := 0
	for _, s := range r.Services {
		if s.Reachable {
			up++
		}
	}

	fmt.Fprintf(cmd.OutStream, "status: %s\n", c.Status)
	fmt.Fprintf(cmd.OutStream, "process: %s\n", processSummary(r))
	fmt.Fprintf(cmd.OutStream, "internet: %s\n", okOrNot(r.InternetReachable))
	fmt.Fprintf(cmd.OutStream, "dns: %s\n", okOrNot(r.DNSWorking))
	fmt.Fprintf(cmd.OutStream, "services: %d/%d reachable\n", up, len(r.Services))
	for _, name := range r.Services.Names() {
		fmt.Fprintf(cmd.OutStream, "  %s: %s\n", name, serviceSummary(r.Services[name]))
	}
	fmt.Fprintf(cmd.OutStream, "checked in %s ms\n", humanize.Comma(r.CheckDurationMs))

	if c.Err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", c.Err)
		return 1
	}
	if c.Status != api.StatusHealthy {
		return 1
	}
	return 0
}

func okOrNot(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

func processSummary(r api.HealthCheckRecord) string {
	if !r.Running {
		return "not running"
	}

	s := "running"
	if r.PID != nil {
		s += fmt.Sprintf(" (pid %d", *r.PID)
		if r.UptimeSeconds != nil {
			s += ", up " + (time.Duration(*r.UptimeSeconds) * time.Second).String()
		}
		if r.MemoryMB != nil {
			s += ", " + humanize.IBytes(uint64(*r.MemoryMB*1024*1024))
		}
		s += ")"
	}
	return s
}

func serviceSummary(s api.ServiceStatus) string {
	switch {
	case s.Reachable && s.TLSUntrusted:
		return "reachable (untrusted certificate)"
	case s.Reachable && s.StatusCode != nil:
		return fmt.Sprintf("reachable (HTTP %d)", *s.StatusCode)
	case s.Reachable:
		return "reachable"
	case s.HTTPError != "":
		return "unreachable: " + s.HTTPError
	case s.TCPError != "":
		return "unreachable: " + s.TCPError
	default:
		return "unreachable"
	}
}
