package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

var (
	HTTPUserAgent = "nbwatchdog health check"

	ErrMissingHost    = errors.New("missing target host")
	ErrRedirectLoop   = errors.New("redirect loop detected")
	ErrUnsupportedURL = errors.New("unsupported scheme")
)

const (
	HTTP_REDIRECT_MAX = 10
)

func checkHTTPRedirect(req *http.Request, via []*http.Request) error {
	if len(via) > HTTP_REDIRECT_MAX {
		return ErrRedirectLoop
	}
	return nil
}

// Endpoint is the address of a monitored service.
type Endpoint struct {
	ID   string
	URL  *url.URL
	Host string
	Port int
}

// ParseEndpoint parses a service identifier.
// The identifier is a host, a host:port, or a full http(s) URL.
// The URL defaults to http://<identifier>, and the port defaults from the scheme.
func ParseEndpoint(id string) (Endpoint, error) {
	raw := id
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, err
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return Endpoint{}, fmt.Errorf("%w: %s", ErrUnsupportedURL, u.Scheme)
	}

	if u.Hostname() == "" {
		return Endpoint{}, ErrMissingHost
	}

	port := 80
	if u.Scheme == "https" {
		port = 443
	}
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return Endpoint{}, err
		}
	}

	return Endpoint{
		ID:   id,
		URL:  u,
		Host: u.Hostname(),
		Port: port,
	}, nil
}

// isTLSUntrusted reports the error is caused by the certificate of the server.
func isTLSUntrusted(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var authorityErr x509.UnknownAuthorityError
	var invalidErr x509.CertificateInvalidError
	var hostnameErr x509.HostnameError

	return errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &invalidErr) ||
		errors.As(err, &hostnameErr)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DisableKeepAlives:     true,
			ResponseHeaderTimeout: timeout,
		},
		CheckRedirect: checkHTTPRedirect,
	}
}

// CheckService probes a single service with TCP, and then HTTP if TCP succeeded.
//
// The reachability precedence is:
//  1. A certificate failure on a TCP reachable endpoint is reported as TLSUntrusted, and no HTTP outcome is recorded.
//  2. Reachable is HTTPReachable if an HTTP outcome was observed.
//  3. Otherwise Reachable is TCPReachable.
//
// The rule 1 makes an endpoint with an untrusted certificate reachable.
func CheckService(ctx context.Context, ep Endpoint, timeout time.Duration) api.ServiceStatus {
	s := api.ServiceStatus{
		URL:  ep.URL.String(),
		Host: ep.Host,
		Port: ep.Port,
	}

	tcpCtx, cancel := context.WithTimeout(ctx, timeout)
	st := time.Now()
	var dialer net.Dialer
	conn, err := dialer.DialContext(tcpCtx, "tcp", net.JoinHostPort(ep.Host, strconv.Itoa(ep.Port)))
	cancel()
	if err != nil {
		s.TCPReachable = api.Ptr(false)
		s.TCPError = dnsErrorToMessage(err)
		s.Reachable = false
		return s
	}
	conn.Close()
	s.TCPReachable = api.Ptr(true)
	s.TCPLatencyMs = latencyMs(st)

	httpCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(httpCtx, http.MethodGet, ep.URL.String(), nil)
	if err != nil {
		s.HTTPError = err.Error()
		s.Reachable = *s.TCPReachable
		return s
	}
	req.Header.Set("User-Agent", HTTPUserAgent)

	st = time.Now()
	resp, err := newHTTPClient(timeout).Do(req)
	switch {
	case err != nil && isTLSUntrusted(err):
		s.TLSUntrusted = true
		s.HTTPError = string(api.ErrorTypeTLSUntrusted) + ": " + err.Error()
		s.Reachable = *s.TCPReachable
	case err != nil:
		s.HTTPReachable = api.Ptr(false)
		s.HTTPError = err.Error()
		s.Reachable = false
	default:
		resp.Body.Close()
		s.HTTPReachable = api.Ptr(resp.StatusCode < 400)
		s.StatusCode = api.Ptr(resp.StatusCode)
		s.LatencyMs = latencyMs(st)
		s.Reachable = *s.HTTPReachable
	}

	return s
}

// CheckServices probes every service in parallel.
// An identifier that can not be parsed is reported as an unreachable service.
func CheckServices(ctx context.Context, services []string, timeout time.Duration) api.Result[api.ServiceStatusMap] {
	st := CurrentTime()
	result := make(api.ServiceStatusMap, len(services))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, id := range services {
		ep, err := ParseEndpoint(id)
		if err != nil {
			mu.Lock()
			result[id] = api.ServiceStatus{Reachable: false, TCPError: err.Error()}
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s := CheckService(ctx, ep, timeout)

			mu.Lock()
			result[ep.ID] = s
			mu.Unlock()
		}()
	}
	wg.Wait()

	return api.Ok(result, st)
}
