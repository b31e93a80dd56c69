// Package watchdog is the Failure Recovery Controller.
//
// The Controller counts consecutive failed assessments, and escalates when the count reaches the threshold.
// An escalation captures the deep diagnostics, records a failure incident, and restarts the service if it is enabled.
package watchdog

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/nbwatchdog/nbwatchdog/internal/logging"
	"github.com/nbwatchdog/nbwatchdog/internal/recovery"
	"github.com/nbwatchdog/nbwatchdog/internal/watchdogerr"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

const (
	DefaultThreshold = 3
	DefaultCooldown  = 10 * time.Second
)

// IncidentStore is the part of the Observation Store that the controller writes to.
type IncidentStore interface {
	AddIncident(ctx context.Context, i api.FailureIncident) (int64, error)
	UpdateIncident(ctx context.Context, id int64, u api.IncidentUpdate) error
}

// DeepCapturer captures the deep diagnostics.
type DeepCapturer interface {
	CaptureDeep(ctx context.Context) (api.DeepDiagnostics, error)
}

// Recoverer restarts the service, and queries the client status.
type Recoverer interface {
	Restart(ctx context.Context) recovery.RestartResult
	Status(ctx context.Context) recovery.CommandResult
}

// Outcome is what Controller.Observe did.
type Outcome struct {
	// Failures is the counter after the observation.
	Failures int

	Escalated  bool
	IncidentID int64

	// Restart is nil if no restart was attempted.
	Restart *recovery.RestartResult

	// Err is the error while escalating, like a failure of recording the incident.
	// It is api.ErrRecovery if every restart strategy failed.
	Err error
}

// Controller is the state machine of the failure recovery.
// It is not safe for concurrent use, and expects one Observe call per cycle.
type Controller struct {
	Threshold   int
	AutoRestart bool
	Cooldown    time.Duration

	Store    IncidentStore
	Deep     DeepCapturer
	Recovery Recoverer
	Logger   logr.Logger

	// Sleep waits for the cooldown. It is sleepContext if nil.
	Sleep func(ctx context.Context, d time.Duration) error

	// CurrentTime returns current time. It is time.Now if nil.
	CurrentTime func() time.Time

	failures int
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) threshold() int {
	if c.Threshold <= 0 {
		return DefaultThreshold
	}
	return c.Threshold
}

func (c *Controller) now() time.Time {
	if c.CurrentTime != nil {
		return c.CurrentTime().UTC()
	}
	return time.Now().UTC()
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

// Failures returns the current count of consecutive failed assessments.
func (c *Controller) Failures() int {
	return c.failures
}

// Observe takes an assessed status of a cycle and the routine bundle that the status derived from.
//
// A non-failed status resets the counter.
// A failed status increments the counter, and escalates when it reaches the threshold.
// The counter is reset after an escalation regardless of its result.
func (c *Controller) Observe(ctx context.Context, status api.Status, bundle api.RoutineBundle) Outcome {
	if status != api.StatusFailed {
		if c.failures > 0 {
			c.Logger.Info("recovered from failed status", "status", status, "failures", c.failures)
		}
		c.failures = 0
		return Outcome{}
	}

	c.failures++
	logging.Warn(c.Logger, "failed assessment", "failures", c.failures, "threshold", c.threshold())

	if c.failures < c.threshold() {
		return Outcome{Failures: c.failures}
	}

	out := c.escalate(ctx, bundle)
	c.failures = 0
	out.Failures = 0
	return out
}

func (c *Controller) escalate(ctx context.Context, bundle api.RoutineBundle) Outcome {
	out := Outcome{Escalated: true}
	c.Logger.Error(nil, "failure threshold reached, escalating", "threshold", c.threshold())

	diag := api.Diagnostics{Routine: &bundle}

	deep, err := c.Deep.CaptureDeep(ctx)
	if err != nil {
		c.Logger.Error(err, "failed to capture deep diagnostics")
		diag.Error = err.Error()
		out.Err = err
	} else {
		diag.Deep = &deep
	}

	restart := c.AutoRestart && err == nil

	incident := api.FailureIncident{
		Timestamp:            c.now(),
		FailureType:          api.FailureTypeAutoDetected,
		Severity:             api.SeverityCritical,
		Diagnostics:          diag,
		AutoRestartAttempted: restart,
	}

	id, err := c.Store.AddIncident(ctx, incident)
	if err != nil {
		c.Logger.Error(err, "failed to record incident, recovery skipped")
		out.Err = err
		return out
	}
	out.IncidentID = id
	c.Logger.Info("incident recorded", "incident", id)

	if !restart {
		if !c.AutoRestart {
			c.Logger.Info("auto restart is disabled", "incident", id)
		}
		return out
	}

	res := c.Recovery.Restart(ctx)
	out.Restart = &res

	if err := c.sleep(ctx, c.Cooldown); err != nil {
		c.Logger.V(1).Info("cooldown interrupted", "error", err)
	}

	status := c.Recovery.Status(ctx)
	verified := res.Success && status.Success

	if verified {
		c.Logger.Info("recovery succeeded", "incident", id, "method", res.Method)
	} else {
		c.Logger.Error(nil, "recovery failed", "incident", id, "method", res.Method, "status_ok", status.Success)
	}

	update := api.IncidentUpdate{
		RestartSuccessful: &verified,
		RecoveryTimestamp: api.Ptr(c.now()),
	}
	if res.Stderr != "" {
		update.Notes = &res.Stderr
	} else if res.Stdout != "" {
		update.Notes = &res.Stdout
	}

	if err := c.Store.UpdateIncident(ctx, id, update); err != nil {
		c.Logger.Error(err, "failed to record recovery outcome", "incident", id)
		out.Err = err
	} else if res.Method == recovery.MethodFailed {
		out.Err = watchdogerr.New(api.ErrRecovery, nil, "all restart strategies failed for incident %d", id)
	}

	return out
}
