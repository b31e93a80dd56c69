package watchdog

import (
	"time"
)

const (
	CheckTypeRoutine = "routine"
)

// RoutineBundle is the result set of the cheap every-cycle probes.
type RoutineBundle struct {
	Timestamp       time.Time                `json:"timestamp"`
	CheckType       string                   `json:"check_type"`
	Process         Result[ProcessInfo]      `json:"process"`
	Internet        Result[ConnectivityInfo] `json:"internet"`
	DNS             Result[DNSInfo]          `json:"dns"`
	Services        Result[ServiceStatusMap] `json:"services"`
	CheckDurationMs int64                    `json:"check_duration_ms"`
}

// DeepDiagnostics is the result set of the expensive OS level captures.
// Each capture holds the raw command output.
type DeepDiagnostics struct {
	Timestamp         time.Time      `json:"timestamp"`
	NetworkAdapters   Result[string] `json:"network_adapters"`
	RoutingTable      Result[string] `json:"routing_table"`
	DNSServers        Result[string] `json:"dns_servers"`
	ActiveConnections Result[string] `json:"active_connections"`
	SystemEvents      Result[string] `json:"system_events"`
}

// IsZero reports the bundle holds no capture at all.
func (d DeepDiagnostics) IsZero() bool {
	return d.Timestamp.IsZero() &&
		d.NetworkAdapters.CheckedAt.IsZero() &&
		d.RoutingTable.CheckedAt.IsZero() &&
		d.DNSServers.CheckedAt.IsZero() &&
		d.ActiveConnections.CheckedAt.IsZero() &&
		d.SystemEvents.CheckedAt.IsZero()
}
