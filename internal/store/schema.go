package store

import (
	"time"
)

// The schema is created by raw statements because AUTOINCREMENT is required to never reuse identifiers even after ClearAll.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS health_checks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		check_type TEXT NOT NULL,

		netbird_running BOOLEAN,
		netbird_pid INTEGER,
		netbird_uptime_seconds INTEGER,
		netbird_cpu_percent REAL,
		netbird_memory_mb REAL,

		internet_reachable BOOLEAN,
		dns_working BOOLEAN,
		services_status TEXT,

		system_healthy BOOLEAN,

		check_duration_ms INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS health_checks_timestamp ON health_checks (timestamp)`,
	`CREATE TABLE IF NOT EXISTS failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,

		failure_type TEXT NOT NULL,
		severity TEXT,

		diagnostics TEXT NOT NULL,

		auto_restart_attempted BOOLEAN,
		restart_successful BOOLEAN,
		recovery_timestamp TEXT,

		notes TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS failures_timestamp ON failures (timestamp)`,
	`CREATE TABLE IF NOT EXISTS meta_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		level TEXT,
		component TEXT,
		message TEXT,
		details TEXT,
		check_name TEXT,
		error_type TEXT
	)`,
}

var clearTables = []string{"health_checks", "failures", "meta_logs"}

// timeFormat is a fixed width UTC format, so that the text order is the same as the time order.
const timeFormat = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

type healthCheckRow struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	Timestamp string `gorm:"column:timestamp"`
	CheckType string `gorm:"column:check_type"`

	Running       bool     `gorm:"column:netbird_running"`
	PID           *int32   `gorm:"column:netbird_pid"`
	UptimeSeconds *int64   `gorm:"column:netbird_uptime_seconds"`
	CPUPercent    *float64 `gorm:"column:netbird_cpu_percent"`
	MemoryMB      *float64 `gorm:"column:netbird_memory_mb"`

	InternetReachable bool   `gorm:"column:internet_reachable"`
	DNSWorking        bool   `gorm:"column:dns_working"`
	ServicesStatus    string `gorm:"column:services_status"`

	SystemHealthy   bool  `gorm:"column:system_healthy"`
	CheckDurationMs int64 `gorm:"column:check_duration_ms"`
}

func (healthCheckRow) TableName() string {
	return "health_checks"
}

type failureRow struct {
	ID          int64  `gorm:"column:id;primaryKey"`
	Timestamp   string `gorm:"column:timestamp"`
	FailureType string `gorm:"column:failure_type"`
	Severity    string `gorm:"column:severity"`
	Diagnostics string `gorm:"column:diagnostics"`

	AutoRestartAttempted bool    `gorm:"column:auto_restart_attempted"`
	RestartSuccessful    *bool   `gorm:"column:restart_successful"`
	RecoveryTimestamp    *string `gorm:"column:recovery_timestamp"`
	Notes                *string `gorm:"column:notes"`
}

func (failureRow) TableName() string {
	return "failures"
}

type metaLogRow struct {
	ID        int64   `gorm:"column:id;primaryKey"`
	Timestamp string  `gorm:"column:timestamp"`
	Level     string  `gorm:"column:level"`
	Component string  `gorm:"column:component"`
	Message   string  `gorm:"column:message"`
	Details   *string `gorm:"column:details"`
	CheckName *string `gorm:"column:check_name"`
	ErrorType *string `gorm:"column:error_type"`
}

func (metaLogRow) TableName() string {
	return "meta_logs"
}
