package probe

import (
	"context"
	"time"

	"github.com/nbwatchdog/nbwatchdog/internal/command"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

// DeepProber captures the expensive OS level diagnostics.
type DeepProber struct {
	Runner command.Runner
}

// NewDeepProber makes a DeepProber that every command is bounded by timeout.
func NewDeepProber(timeout time.Duration) DeepProber {
	return DeepProber{Runner: command.ExecRunner{Timeout: timeout}}
}

func (p DeepProber) capture(ctx context.Context, argv []string) api.Result[string] {
	st := CurrentTime()

	res := p.Runner.Run(ctx, argv[0], argv[1:]...)
	if !res.Success() {
		kind := api.ErrorTypeCommandFailed
		if res.TimedOut {
			kind = api.ErrorTypeTimeout
		}
		msg := res.Stderr
		if msg == "" {
			msg = res.Err.Error()
		}
		return api.Failed("", kind, msg, st)
	}

	return api.Ok(res.Stdout, st)
}

// GetAdapters captures the network adapter list.
func (p DeepProber) GetAdapters(ctx context.Context) api.Result[string] {
	return p.capture(ctx, adaptersCommand)
}

// GetRoutes captures the routing table.
func (p DeepProber) GetRoutes(ctx context.Context) api.Result[string] {
	return p.capture(ctx, routesCommand)
}

// GetDNSServers captures the DNS server list.
func (p DeepProber) GetDNSServers(ctx context.Context) api.Result[string] {
	return p.capture(ctx, dnsServersCommand)
}

// GetConnections captures the active connection table.
func (p DeepProber) GetConnections(ctx context.Context) api.Result[string] {
	return p.capture(ctx, connectionsCommand)
}

// GetRecentSystemEvents captures warning or more severe system events in the last 5 minutes.
func (p DeepProber) GetRecentSystemEvents(ctx context.Context) api.Result[string] {
	return p.capture(ctx, systemEventsCommand)
}

// Capture runs every deep capture one by one.
// A failed capture does not stop the others.
func (p DeepProber) Capture(ctx context.Context) api.DeepDiagnostics {
	return api.DeepDiagnostics{
		Timestamp:         CurrentTime(),
		NetworkAdapters:   p.GetAdapters(ctx),
		RoutingTable:      p.GetRoutes(ctx),
		DNSServers:        p.GetDNSServers(ctx),
		ActiveConnections: p.GetConnections(ctx),
		SystemEvents:      p.GetRecentSystemEvents(ctx),
	}
}
