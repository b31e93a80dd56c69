package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

// CheckInternet tries to open a TCP connection to host:port.
// The failure is reported as Reachable=false with connection_failed or timeout error.
func CheckInternet(ctx context.Context, host string, port int, timeout time.Duration) api.Result[api.ConnectivityInfo] {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	st := CurrentTime()
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return api.Failed(
			api.ConnectivityInfo{Reachable: false},
			errorTypeOr(ctx, err, api.ErrorTypeConnectionFailed),
			err.Error(),
			st,
		)
	}
	conn.Close()

	return api.Ok(api.ConnectivityInfo{Reachable: true, LatencyMs: latencyMs(st)}, st)
}
