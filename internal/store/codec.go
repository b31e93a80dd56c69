package store

import (
	"github.com/goccy/go-json"

	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

func encodeHealthCheck(r api.HealthCheckRecord) (healthCheckRow, error) {
	services := r.Services
	if services == nil {
		services = api.ServiceStatusMap{}
	}
	blob, err := marshalBlob(services)
	if err != nil {
		return healthCheckRow{}, err
	}

	checkType := r.CheckType
	if checkType == "" {
		checkType = api.CheckTypeRoutine
	}

	return healthCheckRow{
		Timestamp:         formatTime(r.Timestamp),
		CheckType:         checkType,
		Running:           r.Running,
		PID:               r.PID,
		UptimeSeconds:     r.UptimeSeconds,
		CPUPercent:        r.CPUPercent,
		MemoryMB:          r.MemoryMB,
		InternetReachable: r.InternetReachable,
		DNSWorking:        r.DNSWorking,
		ServicesStatus:    blob,
		SystemHealthy:     r.SystemHealthy,
		CheckDurationMs:   r.CheckDurationMs,
	}, nil
}

func decodeHealthCheck(row healthCheckRow) (api.HealthCheckRecord, error) {
	ts, err := parseTime(row.Timestamp)
	if err != nil {
		return api.HealthCheckRecord{}, err
	}

	services := api.ServiceStatusMap{}
	if row.ServicesStatus != "" {
		if err := json.Unmarshal([]byte(row.ServicesStatus), &services); err != nil {
			return api.HealthCheckRecord{}, err
		}
	}

	return api.HealthCheckRecord{
		ID:                row.ID,
		Timestamp:         ts,
		CheckType:         row.CheckType,
		Running:           row.Running,
		PID:               row.PID,
		UptimeSeconds:     row.UptimeSeconds,
		CPUPercent:        row.CPUPercent,
		MemoryMB:          row.MemoryMB,
		InternetReachable: row.InternetReachable,
		DNSWorking:        row.DNSWorking,
		Services:          services,
		SystemHealthy:     row.SystemHealthy,
		CheckDurationMs:   row.CheckDurationMs,
	}, nil
}

func encodeIncident(i api.FailureIncident) (failureRow, error) {
	blob, err := marshalBlob(i.Diagnostics)
	if err != nil {
		return failureRow{}, err
	}

	failureType := i.FailureType
	if failureType == "" {
		failureType = api.FailureTypeAutoDetected
	}

	var recovered *string
	if i.RecoveryTimestamp != nil {
		s := formatTime(*i.RecoveryTimestamp)
		recovered = &s
	}

	return failureRow{
		Timestamp:            formatTime(i.Timestamp),
		FailureType:          failureType,
		Severity:             string(i.Severity),
		Diagnostics:          blob,
		AutoRestartAttempted: i.AutoRestartAttempted,
		RestartSuccessful:    i.RestartSuccessful,
		RecoveryTimestamp:    recovered,
		Notes:                i.Notes,
	}, nil
}

func decodeIncident(row failureRow) (api.FailureIncident, error) {
	ts, err := parseTime(row.Timestamp)
	if err != nil {
		return api.FailureIncident{}, err
	}

	var diag api.Diagnostics
	if row.Diagnostics != "" {
		if err := json.Unmarshal([]byte(row.Diagnostics), &diag); err != nil {
			return api.FailureIncident{}, err
		}
	}

	i := api.FailureIncident{
		ID:                   row.ID,
		Timestamp:            ts,
		FailureType:          row.FailureType,
		Severity:             api.Severity(row.Severity),
		Diagnostics:          diag,
		AutoRestartAttempted: row.AutoRestartAttempted,
		RestartSuccessful:    row.RestartSuccessful,
		Notes:                row.Notes,
	}

	if row.RecoveryTimestamp != nil {
		t, err := parseTime(*row.RecoveryTimestamp)
		if err != nil {
			return api.FailureIncident{}, err
		}
		i.RecoveryTimestamp = &t
	}

	return i, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func encodeMetaLog(e api.MetaLogEntry) (metaLogRow, error) {
	row := metaLogRow{
		Timestamp: formatTime(e.Timestamp),
		Level:     e.Level,
		Component: e.Component,
		Message:   e.Message,
		CheckName: optionalString(e.CheckName),
		ErrorType: optionalString(e.ErrorType),
	}

	if len(e.Details) > 0 {
		blob, err := marshalBlob(e.Details)
		if err != nil {
			return metaLogRow{}, err
		}
		row.Details = &blob
	}

	return row, nil
}

func decodeMetaLog(row metaLogRow) api.MetaLogEntry {
	e := api.MetaLogEntry{
		ID:        row.ID,
		Level:     row.Level,
		Component: row.Component,
		Message:   row.Message,
	}

	if ts, err := parseTime(row.Timestamp); err == nil {
		e.Timestamp = ts
	}
	if row.CheckName != nil {
		e.CheckName = *row.CheckName
	}
	if row.ErrorType != nil {
		e.ErrorType = *row.ErrorType
	}
	if row.Details != nil {
		var details map[string]interface{}
		if json.Unmarshal([]byte(*row.Details), &details) == nil {
			e.Details = details
		}
	}

	return e
}
