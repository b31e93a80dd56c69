// Package schedule decides when the scheduled reports are generated.
package schedule

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// CurrentTime returns current time.
// This variable is for testing purpose.
var CurrentTime = time.Now

var (
	DefaultReportSchedule = Schedule(IntervalSchedule{6 * time.Hour})

	never = time.UnixMicro(math.MaxInt64)
)

type Schedule interface {
	cron.Schedule
	fmt.Stringer

	// FiresAtStart reports the schedule fires once when the daemon starts.
	FiresAtStart() bool
}

// Parse parses an interval like "6h", a cron spec like "0 */6 * * ?", "@after 10m", or "@reboot".
//
// An empty spec or "off" disables the schedule, and Parse returns nil without error.
func Parse(spec string) (Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, "off") {
		return nil, nil
	}

	if s, err := ParseAfter(spec); err == nil {
		return s, nil
	}

	if s, err := ParseInterval(spec); err == nil {
		return s, nil
	}

	return ParseCron(spec)
}

// ParseDuration parses a Go duration like "90s", or a bare integer as seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

type IntervalSchedule struct {
	Interval time.Duration
}

func ParseInterval(spec string) (IntervalSchedule, error) {
	d, err := ParseDuration(spec)
	if err != nil {
		return IntervalSchedule{}, err
	}
	if d <= 0 {
		return IntervalSchedule{}, fmt.Errorf("invalid schedule spec: %q", spec)
	}
	return IntervalSchedule{d}, nil
}

func (s IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

func (s IntervalSchedule) String() string {
	return s.Interval.String()
}

func (s IntervalSchedule) FiresAtStart() bool {
	return false
}

type CronSchedule struct {
	spec     string
	schedule cron.Schedule
}

var cronDelimiter = regexp.MustCompile("[ \t]+")

func ParseCron(spec string) (CronSchedule, error) {
	switch spec {
	case "@yearly", "@annually":
		spec = "0 0 1 1 ?"
	case "@monthly":
		spec = "0 0 1 * ?"
	case "@weekly":
		spec = "0 0 * * 0"
	case "@daily":
		spec = "0 0 * * ?"
	case "@hourly":
		spec = "0 * * * ?"
	default:
		ss := cronDelimiter.Split(strings.TrimSpace(spec), -1)
		if len(ss) == 4 {
			ss = append(ss, "?")
		}
		spec = strings.Join(ss, " ")
	}

	s, err := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.DowOptional).Parse(spec)
	if err != nil {
		return CronSchedule{}, err
	}
	return CronSchedule{
		spec:     spec,
		schedule: s,
	}, nil
}

func (s CronSchedule) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

func (s CronSchedule) String() string {
	return s.spec
}

func (s CronSchedule) FiresAtStart() bool {
	return false
}

// AfterSchedule fires only once, Delay after the schedule was parsed.
type AfterSchedule struct {
	Delay time.Duration
	At    time.Time
}

func ParseAfter(spec string) (Schedule, error) {
	if spec == "@reboot" {
		return RebootSchedule{}, nil
	}

	if !strings.HasPrefix(spec, "@after ") {
		return nil, fmt.Errorf("invalid schedule spec: %q", spec)
	}

	delay, err := ParseDuration(spec[len("@after "):])
	if err != nil {
		return nil, err
	}

	if delay < 0 {
		return nil, fmt.Errorf("invalid schedule spec: %q", spec)
	}
	if delay == 0 {
		return RebootSchedule{}, nil
	}

	return AfterSchedule{
		Delay: delay,
		At:    CurrentTime().Add(delay),
	}, nil
}

func (s AfterSchedule) Next(t time.Time) time.Time {
	if !t.Before(s.At) {
		return never
	}
	return s.At
}

func (s AfterSchedule) String() string {
	return "@after " + s.Delay.String()
}

func (s AfterSchedule) FiresAtStart() bool {
	return false
}

// RebootSchedule fires only once, when the daemon starts.
type RebootSchedule struct{}

func (s RebootSchedule) Next(t time.Time) time.Time {
	return never
}

func (s RebootSchedule) String() string {
	return "@reboot"
}

func (s RebootSchedule) FiresAtStart() bool {
	return true
}

// Tracker remembers the next firing time of a Schedule.
// The nil Tracker never fires.
type Tracker struct {
	schedule Schedule
	next     time.Time
}

// NewTracker makes a Tracker that the first firing is the next of start.
// It returns nil if s is nil.
func NewTracker(s Schedule, start time.Time) *Tracker {
	if s == nil {
		return nil
	}

	t := &Tracker{schedule: s, next: s.Next(start)}
	if s.FiresAtStart() {
		t.next = start
	}
	return t
}

// Due reports the schedule has fired by now, and moves to the next firing.
// Firings missed while the caller was busy are collapsed into one.
func (t *Tracker) Due(now time.Time) bool {
	if t == nil || now.Before(t.next) {
		return false
	}
	t.next = t.schedule.Next(now)
	return true
}

// Next returns the next firing time.
func (t *Tracker) Next() time.Time {
	if t == nil {
		return never
	}
	return t.next
}
