// Package health classifies a routine check bundle.
package health

import (
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

// Assess maps a routine bundle to healthy, degraded or failed.
//
// The process is failed if it is not confirmed running, or no monitored service is reachable.
// It is degraded if some services are unreachable.
// A running process with an empty service set is healthy.
func Assess(b api.RoutineBundle) api.Status {
	if !b.Process.Success() {
		return api.StatusFailed
	}
	return classify(b.Process.Value.Running, b.Services.Value)
}

// AssessRecord re-classifies a persisted health check record in the same way as Assess.
func AssessRecord(r api.HealthCheckRecord) api.Status {
	return classify(r.Running, r.Services)
}

func classify(running bool, services api.ServiceStatusMap) api.Status {
	if !running {
		return api.StatusFailed
	}

	if len(services) > 0 && !services.AnyReachable() {
		return api.StatusFailed
	}

	if !services.AllReachable() {
		return api.StatusDegraded
	}

	return api.StatusHealthy
}
