// Package report is the Report Synthesizer.
//
// It reads the recent history from the Observation Store, and writes a text report with raw attachment files.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/nbwatchdog/nbwatchdog/internal/probe"
	"github.com/nbwatchdog/nbwatchdog/internal/recovery"
	"github.com/nbwatchdog/nbwatchdog/internal/watchdogerr"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

const (
	DefaultHistoryWindow  = 200
	DefaultIncidentWindow = 10

	// Placeholder is the content of an attachment that has no content.
	Placeholder = "EMPTY"

	DefaultResolveTimeout = 5 * time.Second
)

// HistoryStore is the part of the Observation Store that the report reads.
type HistoryStore interface {
	RecentHealthChecks(ctx context.Context, n int) ([]api.HealthCheckRecord, error)
	RecentIncidents(ctx context.Context, n int) ([]api.FailureIncident, error)
}

// DeepCapturer captures fresh deep diagnostics.
type DeepCapturer interface {
	CaptureDeep(ctx context.Context) (api.DeepDiagnostics, error)
}

// ClientCLI is the status surface of the VPN client.
type ClientCLI interface {
	Status(ctx context.Context) recovery.CommandResult
	StatusJSON(ctx context.Context) recovery.CommandResult
	Routes(ctx context.Context) recovery.CommandResult
}

// Generator generates reports.
type Generator struct {
	Store  HistoryStore
	Deep   DeepCapturer
	Client ClientCLI

	// Services are the monitored service identifiers for the DNS resolution map.
	Services []string

	// Resolve resolves a host name. It is probe.ResolveHost if nil.
	Resolve func(ctx context.Context, host string) ([]string, error)

	// ResolveTimeout bounds each lookup of the DNS resolution map. It is DefaultResolveTimeout if zero.
	ResolveTimeout time.Duration

	Dir            string
	HistoryWindow  int
	IncidentWindow int

	Logger logr.Logger

	// CurrentTime returns current time. It is time.Now if nil.
	CurrentTime func() time.Time
}

func (g *Generator) now() time.Time {
	if g.CurrentTime != nil {
		return g.CurrentTime().UTC()
	}
	return time.Now().UTC()
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

type builder struct {
	lines []string
}

func (b *builder) Line(format string, args ...interface{}) {
	b.lines = append(b.lines, fmt.Sprintf(format, args...))
}

func (b *builder) Blank() {
	b.lines = append(b.lines, "")
}

func (b *builder) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// attachment is a raw file next to the report.
type attachment struct {
	Kind    string
	Content string
}

func resultContent(r api.Result[string]) string {
	if r.Success() {
		return r.Value
	}
	if r.Value != "" {
		return r.Value
	}
	return "error: " + r.Err.Error()
}

func deepAttachments(d api.DeepDiagnostics) []attachment {
	return []attachment{
		{"adapters.json", resultContent(d.NetworkAdapters)},
		{"dns_servers.txt", resultContent(d.DNSServers)},
		{"routing_table.txt", resultContent(d.RoutingTable)},
		{"connections.txt", resultContent(d.ActiveConnections)},
		{"system_events.txt", resultContent(d.SystemEvents)},
	}
}

// latestDeep returns the deep diagnostics embedded in the latest incident, or captures fresh one.
func (g *Generator) latestDeep(ctx context.Context, incidents []api.FailureIncident) (api.DeepDiagnostics, bool) {
	if len(incidents) > 0 {
		if d := incidents[0].Diagnostics.Deep; d != nil && !d.IsZero() {
			return *d, true
		}
	}

	if g.Deep == nil {
		return api.DeepDiagnostics{}, false
	}
	d, err := g.Deep.CaptureDeep(ctx)
	if err != nil {
		g.Logger.Error(err, "failed to capture deep diagnostics for report")
		return api.DeepDiagnostics{}, false
	}
	return d, true
}

type resolution struct {
	Resolved bool   `json:"resolved"`
	IP       string `json:"ip,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (g *Generator) resolveServices(ctx context.Context) map[string]resolution {
	resolve := g.Resolve
	if resolve == nil {
		resolve = probe.ResolveHost
	}
	timeout := g.ResolveTimeout
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}

	result := make(map[string]resolution)
	for _, id := range g.Services {
		host := id
		if ep, err := probe.ParseEndpoint(id); err == nil {
			host = ep.Host
		}
		if _, ok := result[host]; ok {
			continue
		}

		lctx, cancel := context.WithTimeout(ctx, timeout)
		addrs, err := resolve(lctx, host)
		cancel()
		switch {
		case err != nil:
			result[host] = resolution{Resolved: false, Error: err.Error()}
		case len(addrs) == 0:
			result[host] = resolution{Resolved: false, Error: "no address"}
		default:
			result[host] = resolution{Resolved: true, IP: addrs[0]}
		}
	}
	return result
}

func formatOptionalBool(b *bool) string {
	if b == nil {
		return "pending"
	}
	return fmt.Sprint(*b)
}

// Generate writes a report and its attachments, and returns the path to the report.
//
// A failure of an attachment does not stop the report.
// The error is returned only if the history could not be read or the report itself could not be written.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	now := g.now()
	id := uuid.New()

	checks, err := g.Store.RecentHealthChecks(ctx, orDefault(g.HistoryWindow, DefaultHistoryWindow))
	if err != nil {
		return "", err
	}
	incidents, err := g.Store.RecentIncidents(ctx, orDefault(g.IncidentWindow, DefaultIncidentWindow))
	if err != nil {
		return "", err
	}

	issues := DetectIssues(checks)
	services := SummarizeServices(checks)
	stack := SummarizeStack(checks)

	deep, hasDeep := g.latestDeep(ctx, incidents)

	status := g.Client.Status(ctx)
	statusJSON := g.Client.StatusJSON(ctx)
	routes := g.Client.Routes(ctx)
	client := recovery.ParseClientStatus(ctx, status.Stdout, statusJSON.Stdout)

	var b builder
	b.Line("NetBird Watchdog Report")
	b.Line("Generated: %s", now.Format(time.RFC3339))
	b.Line("Report ID: %s", id)
	b.Blank()
	b.Line("Health checks captured: %s", humanize.Comma(int64(len(checks))))
	b.Line("Failures captured: %s", humanize.Comma(int64(len(incidents))))
	if len(checks) > 0 {
		oldest := checks[len(checks)-1].Timestamp
		b.Line("Oldest check: %s (%s)", oldest.Format(time.RFC3339), humanize.RelTime(oldest, now, "ago", "from now"))
	}
	b.Blank()

	b.Line("Likely Issues")
	for _, issue := range issues {
		b.Line("- %s", issue)
	}
	b.Blank()

	if client.QuantumResistance != nil && *client.QuantumResistance && containsIssue(issues, IssueAllServicesDown) {
		b.Line("Likely Root Cause")
		b.Line("- Quantum resistance is enabled; peers that do not support it may fail to connect to the data plane.")
		if client.PeersCount != "" {
			b.Line("- Peers count: %s", client.PeersCount)
		}
		b.Blank()
	}

	b.Line("Service Reachability Summary")
	for _, name := range sortedKeys(services) {
		b.Line("- %s: %s", name, services[name])
	}
	b.Blank()

	b.Line("Network Stack Summary")
	for _, line := range stack {
		b.Line("- %s", line)
	}
	b.Blank()

	// The deep attachments are always written, as placeholders if there is no deep diagnostics.
	attachments := deepAttachments(deep)

	dnsMap, err := json.MarshalIndent(g.resolveServices(ctx), "", "  ")
	if err != nil {
		dnsMap = []byte("error: " + err.Error())
	}

	attachments = append(attachments,
		attachment{"client_status.txt", status.Text()},
		attachment{"client_status.json", statusJSON.Text()},
		attachment{"client_routes.txt", routes.Text()},
		attachment{"dns_resolution.json", string(dnsMap)},
	)

	if err := os.MkdirAll(g.Dir, 0755); err != nil {
		return "", watchdogerr.New(api.ErrPersistence, err, "failed to create reports directory")
	}

	stem := "report-" + now.Format("20060102-150405")
	path := filepath.Join(g.Dir, stem+".txt")

	b.Line("Raw Attachments")
	if !hasDeep {
		b.Line("- No deep diagnostics available.")
	}
	errs := &watchdogerr.ListBuilder{What: api.ErrPersistence}
	for _, a := range attachments {
		name := stem + "-" + a.Kind
		content := a.Content
		if strings.TrimSpace(content) == "" {
			content = Placeholder
		}
		if err := os.WriteFile(filepath.Join(g.Dir, name), []byte(content), 0644); err != nil {
			errs.Push(err)
			continue
		}
		b.Line("- %s", name)
	}
	b.Blank()

	if len(incidents) > 0 {
		latest := incidents[0]
		b.Line("Latest Failure Snapshot")
		b.Line("- timestamp: %s", latest.Timestamp.Format(time.RFC3339))
		b.Line("- failure_type: %s", latest.FailureType)
		b.Line("- severity: %s", latest.Severity)
		b.Line("- restart_successful: %s", formatOptionalBool(latest.RestartSuccessful))
		if latest.Notes != nil && *latest.Notes != "" {
			b.Line("- notes:")
			b.Line("%s", *latest.Notes)
		}
	}

	if err := errs.Build(); err != nil {
		g.Logger.Error(err, "failed to write some attachments", "report", path)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", watchdogerr.New(api.ErrPersistence, err, "failed to write report")
	}

	g.Logger.Info("report generated", "path", path, "report_id", id.String(), "issues", len(issues))

	return path, nil
}

func containsIssue(issues []string, prefix string) bool {
	for _, issue := range issues {
		if strings.HasPrefix(issue, prefix) {
			return true
		}
	}
	return false
}
