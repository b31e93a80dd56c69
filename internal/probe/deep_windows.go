//go:build windows

package probe

var (
	adaptersCommand     = []string{"powershell", "-NoProfile", "-NonInteractive", "-Command", "Get-NetAdapter | ConvertTo-Json -Depth 3"}
	routesCommand       = []string{"route", "print"}
	dnsServersCommand   = []string{"powershell", "-NoProfile", "-NonInteractive", "-Command", "Get-DnsClientServerAddress | ConvertTo-Json -Depth 3"}
	connectionsCommand  = []string{"netstat", "-ano"}
	systemEventsCommand = []string{"wevtutil", "qe", "System", "/q:*[System[(Level=1 or Level=2 or Level=3) and TimeCreated[timediff(@SystemTime) <= 300000]]]", "/f:text", "/c:50"}
)
