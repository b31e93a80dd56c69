package watchdog

import (
	"time"
)

// MetaLogEntry is a persisted log line, for post-hoc audit.
type MetaLogEntry struct {
	ID        int64          `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	CheckName string         `json:"check_name,omitempty"`
	ErrorType string         `json:"error_type,omitempty"`
}
