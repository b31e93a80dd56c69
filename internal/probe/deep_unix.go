//go:build !windows

package probe

var (
	adaptersCommand     = []string{"ip", "-json", "address", "show"}
	routesCommand       = []string{"ip", "route", "show", "table", "all"}
	dnsServersCommand   = []string{"resolvectl", "dns"}
	connectionsCommand  = []string{"ss", "-tunap"}
	systemEventsCommand = []string{"journalctl", "--priority=warning", "--since=-5min", "--lines=50", "--no-pager"}
)
