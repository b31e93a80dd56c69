package probe

import (
	"context"
	"errors"
	"net"
	"time"

	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

// Resolver is the default resolver for the DNS probe.
// This variable is for testing purpose.
var Resolver = net.DefaultResolver

func dnsErrorToMessage(err error) string {
	dnsErr := &net.DNSError{}
	if !errors.As(err, &dnsErr) {
		return err.Error()
	}

	msg := dnsErr.Error()
	if dnsErr.IsNotFound {
		msg = "lookup " + dnsErr.Name + ": not found"
	}
	if dnsErr.Server != "" {
		msg += " on " + dnsErr.Server
	}
	return msg
}

// CheckDNS resolves the domain.
// The failure is reported as Working=false with dns_failed or timeout error.
func CheckDNS(ctx context.Context, domain string, timeout time.Duration) api.Result[api.DNSInfo] {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	st := CurrentTime()
	addrs, err := Resolver.LookupHost(ctx, domain)
	if err != nil {
		return api.Failed(
			api.DNSInfo{Working: false},
			errorTypeOr(ctx, err, api.ErrorTypeDNSFailed),
			dnsErrorToMessage(err),
			st,
		)
	}

	return api.Ok(api.DNSInfo{Working: true, LatencyMs: latencyMs(st), Addresses: addrs}, st)
}

// ResolveHost resolves host into addresses.
// If host is already an IP address, it returns the host itself.
func ResolveHost(ctx context.Context, host string) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{ip.String()}, nil
	}
	addrs, err := Resolver.LookupHost(ctx, host)
	if err != nil {
		return nil, errors.New(dnsErrorToMessage(err))
	}
	return addrs, nil
}
