// Package daemon is the single cooperative polling loop.
//
// A cycle runs the routine probes, assesses the bundle, records it, and passes it to the controller.
// Scheduled reports are generated after the cycle that the schedule fired in.
// Cycles never overlap.
package daemon

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/nbwatchdog/nbwatchdog/internal/collector"
	"github.com/nbwatchdog/nbwatchdog/internal/health"
	"github.com/nbwatchdog/nbwatchdog/internal/schedule"
	"github.com/nbwatchdog/nbwatchdog/internal/watchdog"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

const (
	DefaultInterval = 60 * time.Second
)

type RoutineRunner interface {
	RunRoutine(ctx context.Context) api.RoutineBundle
}

type HealthStore interface {
	AddHealthCheck(ctx context.Context, r api.HealthCheckRecord) (int64, error)
}

type Observer interface {
	Observe(ctx context.Context, status api.Status, bundle api.RoutineBundle) watchdog.Outcome
}

type Reporter interface {
	Generate(ctx context.Context) (string, error)
}

// Cycle is the result of a polling cycle.
type Cycle struct {
	ID     uuid.UUID
	Status api.Status
	Record api.HealthCheckRecord

	Outcome watchdog.Outcome

	// Report is the path to the report generated after this cycle, or empty.
	Report string

	// Err is the error of recording the health check.
	Err error
}

type Daemon struct {
	Interval time.Duration

	Routine    RoutineRunner
	Store      HealthStore
	Controller Observer

	// Reporter and ReportSchedule are optional. Reports are disabled if either is nil.
	Reporter       Reporter
	ReportSchedule schedule.Schedule

	Logger logr.Logger

	// OnCycle is called after each cycle of Run, if it is not nil.
	OnCycle func(Cycle)

	// CurrentTime returns current time. It is time.Now if nil.
	CurrentTime func() time.Time
}

func (d *Daemon) now() time.Time {
	if d.CurrentTime != nil {
		return d.CurrentTime()
	}
	return time.Now()
}

func (d *Daemon) interval() schedule.IntervalSchedule {
	if d.Interval <= 0 {
		return schedule.IntervalSchedule{Interval: DefaultInterval}
	}
	return schedule.IntervalSchedule{Interval: d.Interval}
}

// RunCycle runs a cycle.
// A failure of recording is reported in Cycle.Err, and the controller still observes the status.
func (d *Daemon) RunCycle(ctx context.Context) Cycle {
	c := Cycle{ID: uuid.New()}
	logger := d.Logger.WithValues("cycle", c.ID.String())

	bundle := d.Routine.RunRoutine(ctx)
	c.Status = health.Assess(bundle)
	c.Record = collector.Summarize(bundle, c.Status)

	id, err := d.Store.AddHealthCheck(ctx, c.Record)
	if err != nil {
		logger.Error(err, "failed to record health check")
		c.Err = err
	} else {
		c.Record.ID = id
	}

	c.Outcome = d.Controller.Observe(ctx, c.Status, bundle)

	logger.V(1).Info(
		"cycle completed",
		"status", c.Status,
		"failures", c.Outcome.Failures,
		"check_duration_ms", c.Record.CheckDurationMs,
	)
	if c.Outcome.Escalated {
		logger.Info("escalated", "incident", c.Outcome.IncidentID, "restarted", c.Outcome.Restart != nil)
	}

	return c
}

func (d *Daemon) report(ctx context.Context) string {
	path, err := d.Reporter.Generate(ctx)
	if err != nil {
		d.Logger.Error(err, "failed to generate scheduled report")
		return ""
	}
	return path
}

// Run runs cycles until ctx is cancelled.
//
// The cancellation does not interrupt a running cycle, including its restart and report.
// It returns nil after the cycle in progress completed.
func (d *Daemon) Run(ctx context.Context) error {
	interval := d.interval()

	var reports *schedule.Tracker
	if d.Reporter != nil {
		reports = schedule.NewTracker(d.ReportSchedule, d.now())
	}

	d.Logger.Info("watchdog started", "interval", interval.Interval.String(), "report_schedule", scheduleName(d.ReportSchedule))

	cycleCtx := context.WithoutCancel(ctx)

	for {
		started := d.now()

		c := d.RunCycle(cycleCtx)
		if reports.Due(d.now()) {
			c.Report = d.report(cycleCtx)
		}

		if d.OnCycle != nil {
			d.OnCycle(c)
		}

		if ctx.Err() != nil {
			d.Logger.Info("watchdog stopped")
			return nil
		}

		wait := interval.Next(started).Sub(d.now())
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			d.Logger.Info("watchdog stopped")
			return nil
		case <-timer.C:
		}
	}
}

func scheduleName(s schedule.Schedule) string {
	if s == nil {
		return "disabled"
	}
	return s.String()
}
