// Package config loads the watchdog configuration.
//
// The configuration is built in layers: Default, then the YAML file by Load, then the WATCHDOG_* environment variables by ApplyEnv, then the command line flags by BindFlags.
// Validate is called after all layers.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/nbwatchdog/nbwatchdog/internal/logging"
	"github.com/nbwatchdog/nbwatchdog/internal/schedule"
	"github.com/nbwatchdog/nbwatchdog/internal/watchdogerr"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

const (
	ENV_PREFIX        = "WATCHDOG_"
	LEGACY_ENV_PREFIX = "NETBIRD_"

	DEFAULT_DB_NAME     = "watchdog.db"
	DEFAULT_REPORTS_DIR = "reports"
)

// legacyEnvNames maps a key to the NETBIRD_* name that older deployments use.
var legacyEnvNames = map[string]string{
	"DATA_DIR":           "DATA_DIR",
	"LOG_DIR":            "LOG_DIR",
	"DB_PATH":            "DB_PATH",
	"LOG_LEVEL":          "LOG_LEVEL",
	"LOG_RETENTION_DAYS": "LOG_RETENTION_DAYS",
	"ROUTINE_INTERVAL":   "ROUTINE_CHECK_INTERVAL",
	"ROUTINE_TIMEOUT":    "ROUTINE_TIMEOUT_SECONDS",
	"DEEP_TIMEOUT":       "DEEP_TIMEOUT_SECONDS",
	"AUTO_RESTART":       "AUTO_RESTART_ENABLED",
	"RESTART_COOLDOWN":   "RESTART_WAIT_SECONDS",
}

// Duration is a time.Duration that accepts a bare integer as seconds.
// It also implements pflag.Value.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) Set(s string) error {
	v, err := schedule.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Type() string {
	return "duration"
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	return d.Set(node.Value)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

type Config struct {
	DataDir    string `yaml:"data_dir"`
	LogDir     string `yaml:"log_dir"`
	DBPath     string `yaml:"db_path"`
	ReportsDir string `yaml:"reports_dir"`

	LogLevel         string `yaml:"log_level"`
	LogRetentionDays int    `yaml:"log_retention_days"`

	RoutineInterval Duration `yaml:"routine_interval"`
	RoutineTimeout  Duration `yaml:"routine_timeout"`
	DeepTimeout     Duration `yaml:"deep_timeout"`

	AutoRestart      bool     `yaml:"auto_restart"`
	RestartCooldown  Duration `yaml:"restart_cooldown"`
	FailureThreshold int      `yaml:"failure_threshold"`

	ReportSchedule string `yaml:"report_schedule"`
	HistoryWindow  int    `yaml:"history_window"`
	IncidentWindow int    `yaml:"incident_window"`

	ProcessName   string `yaml:"process_name"`
	ServiceName   string `yaml:"service_name"`
	ClientCommand string `yaml:"client_command"`

	InternetHost string `yaml:"internet_host"`
	InternetPort int    `yaml:"internet_port"`
	DNSDomain    string `yaml:"dns_domain"`

	Services []string `yaml:"services"`
}

// Default returns the configuration that used when nothing is configured.
func Default() Config {
	return Config{
		DataDir:          "data",
		LogDir:           "logs",
		LogLevel:         "INFO",
		LogRetentionDays: 7,
		RoutineInterval:  Duration(60 * time.Second),
		RoutineTimeout:   Duration(5 * time.Second),
		DeepTimeout:      Duration(30 * time.Second),
		AutoRestart:      true,
		RestartCooldown:  Duration(10 * time.Second),
		FailureThreshold: 3,
		ReportSchedule:   "6h",
		HistoryWindow:    200,
		IncidentWindow:   10,
		ProcessName:      "netbird",
		ServiceName:      "netbird",
		ClientCommand:    "netbird",
		InternetHost:     "8.8.8.8",
		InternetPort:     53,
		DNSDomain:        "google.com",
	}
}

// Load reads the YAML file at path over the Default configuration.
// A missing file or an empty path is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, watchdogerr.New(api.ErrInvalidConfig, err, "failed to read config file")
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, watchdogerr.New(api.ErrInvalidConfig, err, "failed to parse config file: %s", path)
	}
	return cfg, nil
}

// ApplyEnv overrides the configuration by WATCHDOG_* variables, like WATCHDOG_ROUTINE_INTERVAL.
// Services is a comma separated list.
// The NETBIRD_* names of older deployments, like NETBIRD_ROUTINE_CHECK_INTERVAL, are read if the WATCHDOG_* one is not set.
//
// The lookup is usually os.LookupEnv.
// All malformed variables are reported at once.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	errs := &watchdogerr.ListBuilder{What: api.ErrInvalidConfig}

	// get prefers WATCHDOG_<key>, and falls back to the legacy NETBIRD_* name.
	get := func(key string) (name, value string, ok bool) {
		name = ENV_PREFIX + key
		if value, ok = lookup(name); ok {
			return name, value, true
		}
		if legacy, found := legacyEnvNames[key]; found {
			name = LEGACY_ENV_PREFIX + legacy
			value, ok = lookup(name)
		}
		return name, value, ok
	}

	str := func(key string, p *string) {
		if _, v, ok := get(key); ok {
			*p = v
		}
	}
	num := func(key string, p *int) {
		if name, v, ok := get(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs.Pushf("%s: invalid number: %q", name, v)
				return
			}
			*p = n
		}
	}
	dur := func(key string, p *Duration) {
		if name, v, ok := get(key); ok {
			if err := p.Set(v); err != nil {
				errs.Pushf("%s: invalid duration: %q", name, v)
			}
		}
	}
	flag := func(key string, p *bool) {
		if name, v, ok := get(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs.Pushf("%s: invalid boolean: %q", name, v)
				return
			}
			*p = b
		}
	}

	str("DATA_DIR", &c.DataDir)
	str("LOG_DIR", &c.LogDir)
	str("DB_PATH", &c.DBPath)
	str("REPORTS_DIR", &c.ReportsDir)
	str("LOG_LEVEL", &c.LogLevel)
	num("LOG_RETENTION_DAYS", &c.LogRetentionDays)
	dur("ROUTINE_INTERVAL", &c.RoutineInterval)
	dur("ROUTINE_TIMEOUT", &c.RoutineTimeout)
	dur("DEEP_TIMEOUT", &c.DeepTimeout)
	flag("AUTO_RESTART", &c.AutoRestart)
	dur("RESTART_COOLDOWN", &c.RestartCooldown)
	num("FAILURE_THRESHOLD", &c.FailureThreshold)
	str("REPORT_SCHEDULE", &c.ReportSchedule)
	num("HISTORY_WINDOW", &c.HistoryWindow)
	num("INCIDENT_WINDOW", &c.IncidentWindow)
	str("PROCESS_NAME", &c.ProcessName)
	str("SERVICE_NAME", &c.ServiceName)
	str("CLIENT_COMMAND", &c.ClientCommand)
	str("INTERNET_HOST", &c.InternetHost)
	num("INTERNET_PORT", &c.InternetPort)
	str("DNS_DOMAIN", &c.DNSDomain)

	if v, ok := lookup(ENV_PREFIX + "SERVICES"); ok {
		c.Services = SplitList(v)
	}

	return errs.Build()
}

// SplitList splits a comma separated list, and drops empty items.
func SplitList(s string) []string {
	var xs []string
	for _, x := range strings.Split(s, ",") {
		if x = strings.TrimSpace(x); x != "" {
			xs = append(xs, x)
		}
	}
	return xs
}

// BindFlags binds the flags that override the configuration.
// The flags must be parsed before Validate.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.DataDir, "data-dir", c.DataDir, "Directory to store the database and reports.")
	fs.StringVar(&c.LogDir, "log-dir", c.LogDir, "Directory to write log files.")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "Path to the database file. (default: DATA_DIR/"+DEFAULT_DB_NAME+")")
	fs.StringVar(&c.ReportsDir, "reports-dir", c.ReportsDir, "Directory to write reports. (default: DATA_DIR/"+DEFAULT_REPORTS_DIR+")")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level. DEBUG, INFO, WARNING or ERROR.")
	fs.Var(&c.RoutineInterval, "interval", "Interval between routine checks.")
	fs.IntVar(&c.FailureThreshold, "threshold", c.FailureThreshold, "Consecutive failures before escalation.")
	fs.BoolVar(&c.AutoRestart, "auto-restart", c.AutoRestart, "Restart the client when escalated.")
	fs.StringVar(&c.ReportSchedule, "report-schedule", c.ReportSchedule, "Schedule of reports. Interval, cron spec, or empty to disable.")
	fs.StringSliceVar(&c.Services, "service", c.Services, "Service to monitor. Can be specified multiple times.")
}

// DatabasePath returns DBPath, or the default path in DataDir.
func (c Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, DEFAULT_DB_NAME)
}

// ReportsPath returns ReportsDir, or the default directory in DataDir.
func (c Config) ReportsPath() string {
	if c.ReportsDir != "" {
		return c.ReportsDir
	}
	return filepath.Join(c.DataDir, DEFAULT_REPORTS_DIR)
}

// Level returns the parsed LogLevel. Validate makes sure it is valid.
func (c Config) Level() logging.Level {
	l, _ := logging.ParseLevel(c.LogLevel)
	return l
}

// Schedule returns the parsed ReportSchedule. It is nil if reports are disabled.
func (c Config) Schedule() schedule.Schedule {
	s, _ := schedule.Parse(c.ReportSchedule)
	return s
}

// Validate reports all invalid values at once.
func (c Config) Validate() error {
	errs := &watchdogerr.ListBuilder{What: api.ErrInvalidConfig}

	if c.DataDir == "" {
		errs.Pushf("data_dir: must not be empty")
	}
	if c.LogDir == "" {
		errs.Pushf("log_dir: must not be empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs.Pushf("log_level: %s", err)
	}
	if c.LogRetentionDays < 0 {
		errs.Pushf("log_retention_days: must not be negative: %d", c.LogRetentionDays)
	}
	if c.RoutineInterval <= 0 {
		errs.Pushf("routine_interval: must be positive: %s", c.RoutineInterval)
	}
	if c.RoutineTimeout <= 0 {
		errs.Pushf("routine_timeout: must be positive: %s", c.RoutineTimeout)
	}
	if c.DeepTimeout <= 0 {
		errs.Pushf("deep_timeout: must be positive: %s", c.DeepTimeout)
	}
	if c.RestartCooldown < 0 {
		errs.Pushf("restart_cooldown: must not be negative: %s", c.RestartCooldown)
	}
	if c.FailureThreshold < 1 {
		errs.Pushf("failure_threshold: must be 1 or more: %d", c.FailureThreshold)
	}
	if _, err := schedule.Parse(c.ReportSchedule); err != nil {
		errs.Pushf("report_schedule: %s", err)
	}
	if c.HistoryWindow < 1 {
		errs.Pushf("history_window: must be 1 or more: %d", c.HistoryWindow)
	}
	if c.IncidentWindow < 1 {
		errs.Pushf("incident_window: must be 1 or more: %d", c.IncidentWindow)
	}
	if c.ProcessName == "" {
		errs.Pushf("process_name: must not be empty")
	}
	if c.ServiceName == "" {
		errs.Pushf("service_name: must not be empty")
	}
	if c.ClientCommand == "" {
		errs.Pushf("client_command: must not be empty")
	}
	if c.InternetHost == "" {
		errs.Pushf("internet_host: must not be empty")
	}
	if c.InternetPort < 1 || c.InternetPort > 65535 {
		errs.Pushf("internet_port: out of range: %d", c.InternetPort)
	}
	if c.DNSDomain == "" {
		errs.Pushf("dns_domain: must not be empty")
	}
	for i, s := range c.Services {
		if strings.TrimSpace(s) == "" {
			errs.Pushf("services[%d]: must not be empty", i)
		}
	}

	return errs.Build()
}
