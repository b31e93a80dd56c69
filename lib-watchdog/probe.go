package watchdog

// ProcessInfo is the observed state of the monitored client process.
type ProcessInfo struct {
	Running       bool     `json:"running"`
	PID           *int32   `json:"pid"`
	UptimeSeconds *int64   `json:"uptime_seconds"`
	CPUPercent    *float64 `json:"cpu_percent"`
	MemoryMB      *float64 `json:"memory_mb"`
	Threads       *int32   `json:"threads"`
}

// ConnectivityInfo is the outcome of the internet reachability probe.
type ConnectivityInfo struct {
	Reachable bool   `json:"internet_reachable"`
	LatencyMs *int64 `json:"latency_ms"`
}

// DNSInfo is the outcome of the DNS resolution probe.
type DNSInfo struct {
	Working   bool     `json:"dns_working"`
	LatencyMs *int64   `json:"latency_ms"`
	Addresses []string `json:"addresses,omitempty"`
}
