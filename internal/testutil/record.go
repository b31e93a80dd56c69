package testutil

import (
	"time"

	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

// Record makes a health check record that the given services are reachable or not.
func Record(ts time.Time, running bool, services map[string]bool) api.HealthCheckRecord {
	m := make(api.ServiceStatusMap, len(services))
	for id, ok := range services {
		m[id] = api.ServiceStatus{
			Reachable:     ok,
			TCPReachable:  api.Ptr(ok),
			HTTPReachable: api.Ptr(ok),
		}
	}

	return api.HealthCheckRecord{
		Timestamp:         ts,
		CheckType:         api.CheckTypeRoutine,
		Running:           running,
		InternetReachable: true,
		DNSWorking:        true,
		Services:          m,
		SystemHealthy:     running && m.AllReachable(),
	}
}

// Bundle makes a routine bundle that the given services are reachable or not.
func Bundle(ts time.Time, running bool, services map[string]bool) api.RoutineBundle {
	m := make(api.ServiceStatusMap, len(services))
	for id, ok := range services {
		m[id] = api.ServiceStatus{Reachable: ok, TCPReachable: api.Ptr(ok)}
	}

	return api.RoutineBundle{
		Timestamp: ts,
		CheckType: api.CheckTypeRoutine,
		Process:   api.Ok(api.ProcessInfo{Running: running}, ts),
		Internet:  api.Ok(api.ConnectivityInfo{Reachable: true}, ts),
		DNS:       api.Ok(api.DNSInfo{Working: true}, ts),
		Services:  api.Ok(m, ts),
	}
}
