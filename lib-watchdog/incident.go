package watchdog

import (
	"time"
)

const (
	FailureTypeAutoDetected = "auto_detected"
)

// Severity is the severity of a failure incident.
type Severity string

const (
	SeverityCritical Severity = "critical"
)

// Diagnostics is the payload attached to a failure incident.
type Diagnostics struct {
	Routine *RoutineBundle   `json:"routine,omitempty"`
	Deep    *DeepDiagnostics `json:"deep,omitempty"`

	// Error is the reason why the deep diagnostics is missing.
	Error string `json:"error,omitempty"`
}

// FailureIncident is a persisted record of one escalation and its recovery outcome.
//
// An incident is created in a pending state that RestartSuccessful is nil, and amended once by an IncidentUpdate.
type FailureIncident struct {
	// ID is assigned by the store.
	ID int64 `json:"id"`

	Timestamp   time.Time   `json:"timestamp"`
	FailureType string      `json:"failure_type"`
	Severity    Severity    `json:"severity"`
	Diagnostics Diagnostics `json:"diagnostics"`

	AutoRestartAttempted bool `json:"auto_restart_attempted"`

	RestartSuccessful *bool      `json:"restart_successful"`
	RecoveryTimestamp *time.Time `json:"recovery_timestamp"`
	Notes             *string    `json:"notes"`
}

// Pending reports the recovery outcome is not recorded yet.
func (i FailureIncident) Pending() bool {
	return i.RestartSuccessful == nil
}

// IncidentUpdate is a partial update for a FailureIncident.
// Only non-nil fields are applied.
type IncidentUpdate struct {
	RestartSuccessful *bool
	RecoveryTimestamp *time.Time
	Notes             *string
}

// IsEmpty reports the update changes nothing.
func (u IncidentUpdate) IsEmpty() bool {
	return u.RestartSuccessful == nil && u.RecoveryTimestamp == nil && u.Notes == nil
}

// Apply returns a copy of the incident that the update applied.
func (u IncidentUpdate) Apply(i FailureIncident) FailureIncident {
	if u.RestartSuccessful != nil {
		v := *u.RestartSuccessful
		i.RestartSuccessful = &v
	}
	if u.RecoveryTimestamp != nil {
		v := *u.RecoveryTimestamp
		i.RecoveryTimestamp = &v
	}
	if u.Notes != nil {
		v := *u.Notes
		i.Notes = &v
	}
	return i
}
