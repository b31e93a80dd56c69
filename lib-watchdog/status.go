package watchdog

const (
	// StatusUnknown means the status was not assessed yet.
	StatusUnknown Status = iota

	// StatusHealthy means the client process is running and every monitored service is reachable.
	StatusHealthy

	// StatusDegraded means the client process is running but some of the monitored services are unreachable.
	StatusDegraded

	// StatusFailed means the client process is not running, or no monitored service is reachable.
	// Consecutive failed statuses may trigger an escalation.
	StatusFailed
)

// Status is the assessed health of the monitored VPN client.
type Status int8

// ParseStatus parses status string.
//
// If passed unsupported status, it will returns StatusUnknown.
func ParseStatus(raw string) Status {
	switch raw {
	case "healthy", "HEALTHY":
		return StatusHealthy
	case "degraded", "DEGRADED":
		return StatusDegraded
	case "failed", "FAILED":
		return StatusFailed
	default:
		return StatusUnknown
	}
}

// UnmarshalText is unmarshal text as status.
//
// This function always returns nil.
// This parses as StatusUnknown instead of returns error if unsupported status passed.
func (s *Status) UnmarshalText(text []byte) error {
	*s = ParseStatus(string(text))
	return nil
}

// String makes Status a string.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText marshals Status as text.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
