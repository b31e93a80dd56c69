package watchdog

import (
	"time"
)

// HealthCheckRecord is the persisted snapshot of a single polling cycle.
// It is immutable once written.
type HealthCheckRecord struct {
	// ID is assigned by the store.
	ID int64 `json:"id"`

	Timestamp time.Time `json:"timestamp"`
	CheckType string    `json:"check_type"`

	Running       bool     `json:"netbird_running"`
	PID           *int32   `json:"netbird_pid"`
	UptimeSeconds *int64   `json:"netbird_uptime_seconds"`
	CPUPercent    *float64 `json:"netbird_cpu_percent"`
	MemoryMB      *float64 `json:"netbird_memory_mb"`

	InternetReachable bool             `json:"internet_reachable"`
	DNSWorking        bool             `json:"dns_working"`
	Services          ServiceStatusMap `json:"services_status"`

	SystemHealthy   bool  `json:"system_healthy"`
	CheckDurationMs int64 `json:"check_duration_ms"`
}

// AllServicesDown reports the record has at least one service and none of them is reachable.
func (r HealthCheckRecord) AllServicesDown() bool {
	return len(r.Services) > 0 && !r.Services.AnyReachable()
}
