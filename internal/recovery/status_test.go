package recovery_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nbwatchdog/nbwatchdog/internal/recovery"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

const statusText = `OS: linux/amd64
Daemon version: 0.28.4
CLI version: 0.28.4
Management: Connected
Signal: Connected
Relays: 3/3 Available
Nameservers: 1/1 Available
FQDN: host.netbird.cloud
NetBird IP: 100.64.0.2/16
Interface type: Kernel
Quantum resistance: true
Networks: -
Peers count: 2/5 Connected
`

func TestParseStatusText(t *testing.T) {
	tests := []struct {
		Name  string
		Input string
		Want  recovery.ClientStatus
	}{
		{"full", statusText, recovery.ClientStatus{QuantumResistance: api.Ptr(true), PeersCount: "2/5 Connected"}},
		{"case-insensitive", "QUANTUM RESISTANCE: True\npeers COUNT: 0/1 Connected", recovery.ClientStatus{QuantumResistance: api.Ptr(true), PeersCount: "0/1 Connected"}},
		{"disabled", "Quantum resistance: false", recovery.ClientStatus{QuantumResistance: api.Ptr(false)}},
		{"not-literal-true", "Quantum resistance: yes", recovery.ClientStatus{QuantumResistance: api.Ptr(false)}},
		{"missing", "Daemon status: NeedsLogin", recovery.ClientStatus{}},
		{"empty", "", recovery.ClientStatus{}},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			if diff := cmp.Diff(tt.Want, recovery.ParseStatusText(tt.Input)); diff != "" {
				t.Errorf("unexpected status:\n%s", diff)
			}
		})
	}
}

func TestParseClientStatus(t *testing.T) {
	jsonStatus := `{"peers": {"total": 4, "connected": 1, "details": []}, "quantumResistance": true, "quantumResistancePermissive": false}`

	tests := []struct {
		Name string
		Text string
		JSON string
		Want recovery.ClientStatus
	}{
		{"text-only", statusText, "", recovery.ClientStatus{QuantumResistance: api.Ptr(true), PeersCount: "2/5 Connected"}},
		{"text-wins", statusText, jsonStatus, recovery.ClientStatus{QuantumResistance: api.Ptr(true), PeersCount: "2/5 Connected"}},
		{"json-fallback", "Daemon status: Connected", jsonStatus, recovery.ClientStatus{QuantumResistance: api.Ptr(true), PeersCount: "1/4 Connected"}},
		{"json-false", "", `{"quantumResistance": false}`, recovery.ClientStatus{QuantumResistance: api.Ptr(false)}},
		{"partial-fallback", "Quantum resistance: false", jsonStatus, recovery.ClientStatus{QuantumResistance: api.Ptr(false), PeersCount: "1/4 Connected"}},
		{"broken-json", "", "daemon is not running", recovery.ClientStatus{}},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			got := recovery.ParseClientStatus(context.Background(), tt.Text, tt.JSON)
			if diff := cmp.Diff(tt.Want, got); diff != "" {
				t.Errorf("unexpected status:\n%s", diff)
			}
		})
	}
}
