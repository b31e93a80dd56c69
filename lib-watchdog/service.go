package watchdog

import (
	"net"
	"net/url"
	"sort"
	"strings"
)

// ServiceStatus is the reachability of a single monitored service.
//
// The TCP and HTTP fields are nil when the layer was not probed.
// Reachable is HTTPReachable if an HTTP outcome was observed, otherwise TCPReachable.
type ServiceStatus struct {
	Reachable bool `json:"reachable"`

	TCPReachable *bool  `json:"tcp_reachable,omitempty"`
	TCPLatencyMs *int64 `json:"tcp_latency_ms,omitempty"`
	TCPError     string `json:"tcp_error,omitempty"`

	HTTPReachable *bool  `json:"http_reachable,omitempty"`
	StatusCode    *int   `json:"status_code,omitempty"`
	LatencyMs     *int64 `json:"latency_ms,omitempty"`
	HTTPError     string `json:"http_error,omitempty"`

	// TLSUntrusted is true if the TLS handshake failed on a TCP reachable endpoint because of the certificate.
	TLSUntrusted bool `json:"tls_untrusted,omitempty"`

	URL  string `json:"url,omitempty"`
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// ServiceStatusMap is the set of service statuses keyed by the configured service identifier.
type ServiceStatusMap map[string]ServiceStatus

// Names returns the service identifiers in dictionary order.
func (m ServiceStatusMap) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// AnyReachable reports at least one service is reachable.
// It returns false for an empty map.
func (m ServiceStatusMap) AnyReachable() bool {
	for _, s := range m {
		if s.Reachable {
			return true
		}
	}
	return false
}

// AllReachable reports every service is reachable.
// It returns true for an empty map.
func (m ServiceStatusMap) AllReachable() bool {
	for _, s := range m {
		if !s.Reachable {
			return false
		}
	}
	return true
}

// IsAddressIdentifier reports the service identifier is a bare IP address (with or without port, or in a URL) rather than a hostname.
func IsAddressIdentifier(id string) bool {
	host := id
	if strings.Contains(id, "://") {
		u, err := url.Parse(id)
		if err != nil {
			return false
		}
		host = u.Hostname()
	} else if h, _, err := net.SplitHostPort(id); err == nil {
		host = h
	}
	return net.ParseIP(host) != nil
}
