// Package logging is the log sink of the watchdog.
//
// Every component receives a logr.Logger, and the Sink fans out each line to the console, a dated log file, and the meta log table of the store.
// Writing a log never fails from the point of view of the caller.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-logr/logr"

	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

// Level is the severity of a log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// levelKey is the reserved key to raise an Info line to a warning.
const levelKey = "level"

const warningValue = "warning"

// ParseLevel parses a level name like "INFO" or "warning".
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARNING", "WARN":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unsupported log level: %s", s)
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	default:
		return "ERROR"
	}
}

func (l Level) color() *color.Color {
	switch l {
	case LevelDebug:
		return color.New(color.FgHiBlack)
	case LevelWarning:
		return color.New(color.FgYellow)
	case LevelError:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgGreen)
	}
}

// Warn logs a warning line.
// logr has no warning level, so it is an Info line with the reserved "level" key.
func Warn(l logr.Logger, msg string, keysAndValues ...interface{}) {
	l.Info(msg, append([]interface{}{levelKey, warningValue}, keysAndValues...)...)
}

// MetaWriter is the destination of the meta log entries, like *store.Store.
type MetaWriter interface {
	LogMeta(api.MetaLogEntry)
}

// Output is the shared destination of a Sink and its derived sinks.
type Output struct {
	sync.Mutex

	Level Level

	Console io.Writer
	Colored bool

	// Dir and Pattern choose the log file. The file is disabled if Dir is empty.
	Dir           string
	Pattern       Pattern
	RetentionDays int

	// CurrentTime returns current time. It is time.Now if nil.
	CurrentTime func() time.Time

	meta     MetaWriter
	file     *os.File
	fileName string
	fileErr  string
}

// SetMeta sets the meta log destination.
// It can be nil to disable the meta log.
func (o *Output) SetMeta(m MetaWriter) {
	o.Lock()
	defer o.Unlock()

	o.meta = m
}

func (o *Output) now() time.Time {
	if o.CurrentTime != nil {
		return o.CurrentTime()
	}
	return time.Now()
}

// Close closes the log file.
func (o *Output) Close() error {
	o.Lock()
	defer o.Unlock()

	if o.file == nil {
		return nil
	}
	err := o.file.Close()
	o.file = nil
	o.fileName = ""
	return err
}

// reportFileError writes a file error to the console only once until the file works again.
func (o *Output) reportFileError(t time.Time, err error) {
	msg := err.Error()
	if o.fileErr == msg || o.Console == nil {
		return
	}
	o.fileErr = msg
	fmt.Fprintf(o.Console, "%s | %s | failed to write log file: %s\n", t.Format(consoleTimeFormat), LevelError, msg)
}

func (o *Output) openFile(t time.Time) (*os.File, error) {
	name := filepath.Join(o.Dir, o.Pattern.Build(t))
	if o.file != nil && o.fileName == name {
		return o.file, nil
	}

	if o.file != nil {
		o.file.Close()
		o.file = nil
	}

	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}

	o.file = f
	o.fileName = name

	if o.RetentionDays > 0 {
		Prune(o.Dir, o.Pattern, o.RetentionDays, t)
	}

	return f, nil
}

const (
	consoleTimeFormat = "2006-01-02 15:04:05"
)

type line struct {
	Time      time.Time
	Level     Level
	Component string
	Message   string
	Err       error
	Values    []interface{}
}

func formatValue(v interface{}) string {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case error:
		s = x.Error()
	case fmt.Stringer:
		s = x.String()
	default:
		s = fmt.Sprint(x)
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func (l line) fields() string {
	var sb strings.Builder
	sb.WriteString(l.Message)
	if l.Err != nil {
		sb.WriteString(" error=")
		sb.WriteString(formatValue(l.Err))
	}
	for i := 0; i+1 < len(l.Values); i += 2 {
		sb.WriteByte(' ')
		sb.WriteString(fmt.Sprint(l.Values[i]))
		sb.WriteByte('=')
		sb.WriteString(formatValue(l.Values[i+1]))
	}
	return sb.String()
}

func (o *Output) write(l line) {
	o.Lock()
	defer o.Unlock()

	if l.Level < o.Level {
		return
	}

	msg := l.fields()

	if o.Console != nil {
		lv := l.Level.color()
		if o.Colored {
			lv.EnableColor()
		} else {
			lv.DisableColor()
		}
		fmt.Fprintf(o.Console, "%s | %s | %s\n", l.Time.Format(consoleTimeFormat), lv.Sprint(l.Level), msg)
	}

	if o.Dir != "" {
		f, err := o.openFile(l.Time)
		if err == nil {
			component := l.Component
			if component == "" {
				component = "main"
			}
			_, err = fmt.Fprintf(f, "%s | %s | %s | %s\n", l.Time.Format(consoleTimeFormat), l.Level, component, msg)
		}
		if err != nil {
			o.reportFileError(l.Time, err)
		} else {
			o.fileErr = ""
		}
	}

	if o.meta != nil {
		o.meta.LogMeta(l.metaEntry())
	}
}

func jsonSafe(v interface{}) interface{} {
	switch x := v.(type) {
	case nil, bool, string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return x
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func (l line) metaEntry() api.MetaLogEntry {
	e := api.MetaLogEntry{
		Timestamp: l.Time.UTC(),
		Level:     l.Level.String(),
		Component: l.Component,
		Message:   l.Message,
	}

	details := make(map[string]interface{})
	if l.Err != nil {
		details["error"] = l.Err.Error()
	}
	for i := 0; i+1 < len(l.Values); i += 2 {
		key := fmt.Sprint(l.Values[i])
		switch key {
		case "check_name":
			e.CheckName = formatValue(l.Values[i+1])
		case "error_type":
			e.ErrorType = fmt.Sprint(l.Values[i+1])
		default:
			details[key] = jsonSafe(l.Values[i+1])
		}
	}
	if len(details) > 0 {
		e.Details = details
	}

	return e
}

// Sink is a logr.LogSink that writes to an Output.
type Sink struct {
	out    *Output
	name   string
	values []interface{}
}

// New makes a logr.Logger that writes to out.
func New(out *Output) logr.Logger {
	return logr.New(&Sink{out: out})
}

// Init implements logr.LogSink.
func (s *Sink) Init(info logr.RuntimeInfo) {}

// Enabled implements logr.LogSink.
// V(0) is enabled even if the level is warning, because warnings are V(0) lines.
func (s *Sink) Enabled(level int) bool {
	if level > 0 {
		return s.out.Level <= LevelDebug
	}
	return s.out.Level <= LevelWarning
}

func (s *Sink) mergeValues(kv []interface{}) (Level, []interface{}) {
	lv := LevelInfo
	values := make([]interface{}, 0, len(s.values)+len(kv))
	all := append(append([]interface{}{}, s.values...), kv...)
	for i := 0; i+1 < len(all); i += 2 {
		if k, ok := all[i].(string); ok && k == levelKey {
			if v, ok := all[i+1].(string); ok && v == warningValue {
				lv = LevelWarning
			}
			continue
		}
		values = append(values, all[i], all[i+1])
	}
	return lv, values
}

// Info implements logr.LogSink.
func (s *Sink) Info(level int, msg string, keysAndValues ...interface{}) {
	lv, values := s.mergeValues(keysAndValues)
	if level > 0 {
		lv = LevelDebug
	}

	s.out.write(line{
		Time:      s.out.now(),
		Level:     lv,
		Component: s.name,
		Message:   msg,
		Values:    values,
	})
}

// Error implements logr.LogSink.
func (s *Sink) Error(err error, msg string, keysAndValues ...interface{}) {
	_, values := s.mergeValues(keysAndValues)

	s.out.write(line{
		Time:      s.out.now(),
		Level:     LevelError,
		Component: s.name,
		Message:   msg,
		Err:       err,
		Values:    values,
	})
}

// WithValues implements logr.LogSink.
func (s *Sink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	return &Sink{
		out:    s.out,
		name:   s.name,
		values: append(append([]interface{}{}, s.values...), keysAndValues...),
	}
}

// WithName implements logr.LogSink.
func (s *Sink) WithName(name string) logr.LogSink {
	if s.name != "" {
		name = s.name + "." + name
	}
	return &Sink{
		out:    s.out,
		name:   name,
		values: s.values,
	}
}
