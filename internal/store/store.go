// Package store is the Observation Store of the watchdog.
//
// It persists health check records, failure incidents and meta log entries in a SQLite database.
// Every write goes through a single mutex, and the readers see only committed rows.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nbwatchdog/nbwatchdog/internal/watchdogerr"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

const (
	// ERRORS_HISTORY_LEN is the number of the meta log write errors that Errors method remembers.
	ERRORS_HISTORY_LEN = 10

	metaQueueLen = 64
)

// Store is the Observation Store.
type Store struct {
	path string
	db   *gorm.DB

	writeLock sync.Mutex

	metaLock      sync.RWMutex
	metaCh        chan<- metaJob
	writerStopped chan struct{}
	closed        bool

	errorsLock sync.RWMutex
	errors     []string
}

type metaJob struct {
	entry api.MetaLogEntry
	done  chan struct{}
}

func persistenceError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return watchdogerr.New(api.ErrPersistence, err, format, args...)
}

// Open opens or creates the database file at path, and prepares the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, persistenceError(err, "failed to create data directory")
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, persistenceError(err, "failed to open %s", path)
	}

	for _, stmt := range schemaStatements {
		if err := db.Exec(stmt).Error; err != nil {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
			return nil, persistenceError(err, "failed to prepare schema")
		}
	}

	ch := make(chan metaJob, metaQueueLen)
	s := &Store{
		path:          path,
		db:            db,
		metaCh:        ch,
		writerStopped: make(chan struct{}),
	}

	go s.metaWriter(ch, s.writerStopped)

	return s, nil
}

// Path returns path to the database file.
func (s *Store) Path() string {
	return s.path
}

// Close flushes the meta log queue and closes the database.
func (s *Store) Close() error {
	s.metaLock.Lock()
	if s.closed {
		s.metaLock.Unlock()
		return nil
	}
	s.closed = true
	close(s.metaCh)
	s.metaLock.Unlock()

	<-s.writerStopped

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	sqlDB, err := s.db.DB()
	if err != nil {
		return persistenceError(err, "failed to close database")
	}
	return persistenceError(sqlDB.Close(), "failed to close database")
}

// write runs fn as a single serialized transaction.
func (s *Store) write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	return s.db.WithContext(ctx).Transaction(fn)
}

// AddHealthCheck appends a health check record, and returns its identifier.
func (s *Store) AddHealthCheck(ctx context.Context, r api.HealthCheckRecord) (int64, error) {
	row, err := encodeHealthCheck(r)
	if err != nil {
		return 0, persistenceError(err, "failed to encode health check")
	}

	err = s.write(ctx, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return 0, persistenceError(err, "failed to add health check")
	}
	return row.ID, nil
}

// AddIncident appends a failure incident, and returns its identifier.
func (s *Store) AddIncident(ctx context.Context, i api.FailureIncident) (int64, error) {
	row, err := encodeIncident(i)
	if err != nil {
		return 0, persistenceError(err, "failed to encode incident")
	}

	err = s.write(ctx, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return 0, persistenceError(err, "failed to add incident")
	}
	return row.ID, nil
}

// UpdateIncident applies the non-nil fields of u to the incident.
// An empty update is a no-op, and an unknown id is api.ErrNotFound.
func (s *Store) UpdateIncident(ctx context.Context, id int64, u api.IncidentUpdate) error {
	if u.IsEmpty() {
		return nil
	}

	fields := make(map[string]interface{})
	if u.RestartSuccessful != nil {
		fields["restart_successful"] = *u.RestartSuccessful
	}
	if u.RecoveryTimestamp != nil {
		fields["recovery_timestamp"] = formatTime(*u.RecoveryTimestamp)
	}
	if u.Notes != nil {
		fields["notes"] = *u.Notes
	}

	err := s.write(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&failureRow{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return watchdogerr.New(api.ErrNotFound, nil, "incident #%d", id)
		}
		return nil
	})
	if errors.Is(err, api.ErrNotFound) {
		return err
	}
	return persistenceError(err, "failed to update incident #%d", id)
}

// Incident reads a failure incident by identifier.
func (s *Store) Incident(ctx context.Context, id int64) (api.FailureIncident, error) {
	var row failureRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return api.FailureIncident{}, watchdogerr.New(api.ErrNotFound, nil, "incident #%d", id)
	} else if err != nil {
		return api.FailureIncident{}, persistenceError(err, "failed to read incident #%d", id)
	}

	i, err := decodeIncident(row)
	if err != nil {
		return api.FailureIncident{}, persistenceError(err, "failed to decode incident #%d", id)
	}
	return i, nil
}

const newestFirst = "timestamp DESC, id DESC"

// RecentHealthChecks returns the most recent n health check records, newest first.
func (s *Store) RecentHealthChecks(ctx context.Context, n int) ([]api.HealthCheckRecord, error) {
	var rows []healthCheckRow
	if err := s.db.WithContext(ctx).Order(newestFirst).Limit(n).Find(&rows).Error; err != nil {
		return nil, persistenceError(err, "failed to read health checks")
	}

	rs := make([]api.HealthCheckRecord, 0, len(rows))
	for _, row := range rows {
		r, err := decodeHealthCheck(row)
		if err != nil {
			return nil, persistenceError(err, "failed to decode health check #%d", row.ID)
		}
		rs = append(rs, r)
	}
	return rs, nil
}

// RecentIncidents returns the most recent n failure incidents, newest first.
func (s *Store) RecentIncidents(ctx context.Context, n int) ([]api.FailureIncident, error) {
	var rows []failureRow
	if err := s.db.WithContext(ctx).Order(newestFirst).Limit(n).Find(&rows).Error; err != nil {
		return nil, persistenceError(err, "failed to read incidents")
	}

	is := make([]api.FailureIncident, 0, len(rows))
	for _, row := range rows {
		i, err := decodeIncident(row)
		if err != nil {
			return nil, persistenceError(err, "failed to decode incident #%d", row.ID)
		}
		is = append(is, i)
	}
	return is, nil
}

// RecentMetaLogs returns the most recent n meta log entries, newest first.
func (s *Store) RecentMetaLogs(ctx context.Context, n int) ([]api.MetaLogEntry, error) {
	var rows []metaLogRow
	if err := s.db.WithContext(ctx).Order(newestFirst).Limit(n).Find(&rows).Error; err != nil {
		return nil, persistenceError(err, "failed to read meta logs")
	}

	es := make([]api.MetaLogEntry, 0, len(rows))
	for _, row := range rows {
		es = append(es, decodeMetaLog(row))
	}
	return es, nil
}

// ScanHealthChecks calls fn for each health check record in [since, until), oldest first.
// It stops if fn returns an error, and returns the error.
func (s *Store) ScanHealthChecks(ctx context.Context, since, until time.Time, fn func(api.HealthCheckRecord) error) error {
	rows, err := s.db.WithContext(ctx).
		Model(&healthCheckRow{}).
		Where("timestamp >= ? AND timestamp < ?", formatTime(since), formatTime(until)).
		Order("timestamp ASC, id ASC").
		Rows()
	if err != nil {
		return persistenceError(err, "failed to read health checks")
	}
	defer rows.Close()

	for rows.Next() {
		var row healthCheckRow
		if err := s.db.ScanRows(rows, &row); err != nil {
			return persistenceError(err, "failed to read health checks")
		}

		r, err := decodeHealthCheck(row)
		if err != nil {
			return persistenceError(err, "failed to decode health check #%d", row.ID)
		}

		if err := fn(r); err != nil {
			return err
		}
	}
	return persistenceError(rows.Err(), "failed to read health checks")
}

// ClearAll deletes every row in every table, in a single transaction.
// The identifiers are not reused after this.
func (s *Store) ClearAll(ctx context.Context) error {
	s.Flush()

	err := s.write(ctx, func(tx *gorm.DB) error {
		for _, table := range clearTables {
			if err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return persistenceError(err, "failed to clear store")
}

// LogMeta queues a meta log entry.
//
// This method never returns an error.
// A write failure is remembered in Errors, and an entry after Close is dropped.
func (s *Store) LogMeta(e api.MetaLogEntry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	s.metaLock.RLock()
	defer s.metaLock.RUnlock()

	if s.closed {
		return
	}
	s.metaCh <- metaJob{entry: e}
}

// Flush waits until every queued meta log entry is written.
func (s *Store) Flush() {
	done := make(chan struct{})

	s.metaLock.RLock()
	if s.closed {
		s.metaLock.RUnlock()
		return
	}
	s.metaCh <- metaJob{done: done}
	s.metaLock.RUnlock()

	<-done
}

func (s *Store) metaWriter(ch <-chan metaJob, stopped chan struct{}) {
	for job := range ch {
		if job.done != nil {
			close(job.done)
			continue
		}

		row, err := encodeMetaLog(job.entry)
		if err != nil {
			s.addError(fmt.Sprintf("failed to encode meta log: %s", err))
			continue
		}

		err = s.write(context.Background(), func(tx *gorm.DB) error {
			return tx.Create(&row).Error
		})
		if err != nil {
			s.addError(fmt.Sprintf("failed to write meta log: %s", err))
		}
	}

	close(stopped)
}

func (s *Store) addError(msg string) {
	s.errorsLock.Lock()
	defer s.errorsLock.Unlock()

	s.errors = append(s.errors, time.Now().UTC().Format(time.RFC3339)+"\t"+msg)
	if len(s.errors) > ERRORS_HISTORY_LEN {
		s.errors = s.errors[len(s.errors)-ERRORS_HISTORY_LEN:]
	}
}

// Errors returns the recent failures of the meta log writes.
func (s *Store) Errors() []string {
	s.errorsLock.RLock()
	defer s.errorsLock.RUnlock()

	return append([]string(nil), s.errors...)
}

func marshalBlob(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}
