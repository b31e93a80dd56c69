package report

import (
	"fmt"
	"sort"

	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

const (
	IssueNoChecks         = "No health checks found yet."
	IssueNothingDetected  = "No obvious failures detected in recent checks."
	IssueAllServicesDown  = "All monitored services unreachable"
	IssueHostnameDownOnly = "Hostname services down while IP services up: likely DNS or hostname routing issue."
	IssueAddressDownOnly  = "Hostname services up while IP services down: possible DNS override or IP routing issue."
)

// DetectIssues counts the failure patterns in the health check records.
//
// The hostname versus address patterns are evaluated only for the records that have both kinds of services.
func DetectIssues(records []api.HealthCheckRecord) []string {
	if len(records) == 0 {
		return []string{IssueNoChecks}
	}

	var processDown, internetDown, dnsDown, allServicesDown, hostnameDownAddressUp, hostnameUpAddressDown int

	for _, r := range records {
		if !r.Running {
			processDown++
		}
		if !r.InternetReachable {
			internetDown++
		}
		if !r.DNSWorking {
			dnsDown++
		}
		if r.AllServicesDown() {
			allServicesDown++
		}

		hostnames := api.ServiceStatusMap{}
		addresses := api.ServiceStatusMap{}
		for id, s := range r.Services {
			if api.IsAddressIdentifier(id) {
				addresses[id] = s
			} else {
				hostnames[id] = s
			}
		}
		if len(hostnames) > 0 && len(addresses) > 0 {
			hostnameUp := hostnames.AnyReachable()
			addressUp := addresses.AnyReachable()
			if hostnameUp && !addressUp {
				hostnameUpAddressDown++
			}
			if !hostnameUp && addressUp {
				hostnameDownAddressUp++
			}
		}
	}

	total := len(records)
	var issues []string
	if processDown > 0 {
		issues = append(issues, fmt.Sprintf("NetBird process not running in %d/%d checks.", processDown, total))
	}
	if internetDown > 0 {
		issues = append(issues, fmt.Sprintf("Internet connectivity failed in %d/%d checks.", internetDown, total))
	}
	if dnsDown > 0 {
		issues = append(issues, fmt.Sprintf("DNS resolution failed in %d/%d checks.", dnsDown, total))
	}
	if allServicesDown > 0 {
		issues = append(issues, fmt.Sprintf("%s in %d/%d checks.", IssueAllServicesDown, allServicesDown, total))
	}
	if hostnameDownAddressUp > 0 {
		issues = append(issues, IssueHostnameDownOnly)
	}
	if hostnameUpAddressDown > 0 {
		issues = append(issues, IssueAddressDownOnly)
	}

	if len(issues) == 0 {
		issues = append(issues, IssueNothingDetected)
	}
	return issues
}

// ServiceTally is the reachability counts of a service over the records.
type ServiceTally struct {
	Reachable   int `json:"reachable"`
	Unreachable int `json:"unreachable"`

	TCPSamples int `json:"tcp_samples"`
	TCPOK      int `json:"tcp_ok"`
	TCPFail    int `json:"tcp_fail"`

	HTTPSamples int `json:"http_samples"`
	HTTPOK      int `json:"http_ok"`
	HTTPFail    int `json:"http_fail"`
}

func (t ServiceTally) String() string {
	return fmt.Sprintf(
		"reachable %d, unreachable %d, tcp ok %d/%d (failed %d), http ok %d/%d (failed %d)",
		t.Reachable, t.Unreachable,
		t.TCPOK, t.TCPSamples, t.TCPFail,
		t.HTTPOK, t.HTTPSamples, t.HTTPFail,
	)
}

func (t *ServiceTally) add(s api.ServiceStatus) {
	if s.Reachable {
		t.Reachable++
	} else {
		t.Unreachable++
	}

	if s.TCPReachable != nil {
		t.TCPSamples++
		if *s.TCPReachable {
			t.TCPOK++
		} else {
			t.TCPFail++
		}
	}

	if s.HTTPReachable != nil {
		t.HTTPSamples++
		if *s.HTTPReachable {
			t.HTTPOK++
		} else {
			t.HTTPFail++
		}
	}
}

// SummarizeServices tallies the reachability of each service over the records.
func SummarizeServices(records []api.HealthCheckRecord) map[string]ServiceTally {
	tallies := make(map[string]ServiceTally)
	for _, r := range records {
		for id, s := range r.Services {
			t := tallies[id]
			t.add(s)
			tallies[id] = t
		}
	}
	return tallies
}

// SummarizeStack reports the TCP and HTTP failure ratio over all the service probes in the records.
func SummarizeStack(records []api.HealthCheckRecord) []string {
	if len(records) == 0 {
		return []string{"No health checks available for stack analysis."}
	}

	var points, tcpFail, httpFail int
	for _, r := range records {
		for _, s := range r.Services {
			points++
			if s.TCPReachable != nil && !*s.TCPReachable {
				tcpFail++
			}
			if s.HTTPReachable != nil && !*s.HTTPReachable {
				httpFail++
			}
		}
	}

	if points == 0 {
		return nil
	}
	return []string{
		fmt.Sprintf("Service probes: %d", points),
		fmt.Sprintf("TCP failures: %d/%d", tcpFail, points),
		fmt.Sprintf("HTTP failures: %d/%d", httpFail, points),
	}
}

func sortedKeys(m map[string]ServiceTally) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
