package logging

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type pathFragment interface {
	Build(t time.Time) string
	Len() int
	Valid(s string) bool
}

type constFragment string

func (s constFragment) Build(_ time.Time) string {
	return string(s)
}

func (s constFragment) Len() int {
	return len(s)
}

func (s constFragment) Valid(str string) bool {
	return string(s) == str
}

// numberFragment is a fixed width number formatted by a time layout, like "01" for month.
type numberFragment struct {
	layout   string
	min, max int
}

func (n numberFragment) Build(t time.Time) string {
	return t.Format(n.layout)
}

func (n numberFragment) Len() int {
	return len(n.layout)
}

func (n numberFragment) Valid(s string) bool {
	v, err := strconv.Atoi(s)
	return err == nil && n.min <= v && v <= n.max
}

var (
	yearFragment      = numberFragment{"2006", 0, 9999}
	shortYearFragment = numberFragment{"06", 0, 99}
	monthFragment     = numberFragment{"01", 1, 12}
	dayFragment       = numberFragment{"02", 1, 31}
	hourFragment      = numberFragment{"15", 0, 23}
	minuteFragment    = numberFragment{"04", 0, 59}
)

// DefaultPattern is the log file name pattern of the daemon.
const DefaultPattern = "watchdog_%Y%m%d.log"

// Pattern is a log file name pattern like "watchdog_%Y%m%d.log".
//
// %Y is the year, %y is the last 2 digits of the year, %m is the month, %d is the day, %H is the hour, %M is the minute, and %% is a literal %.
type Pattern struct {
	// Unit is the finest time unit in the pattern.
	// It is zero if the pattern has no time fragment.
	Unit time.Duration

	pattern   string
	fragments []pathFragment
}

// ParsePattern parses a file name pattern.
func ParsePattern(s string) Pattern {
	p := Pattern{
		pattern: s,
	}

	unit := func(d time.Duration) {
		if p.Unit == 0 || d < p.Unit {
			p.Unit = d
		}
	}

	var buf []string
	left := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			i++

			if len(s) <= i {
				break
			}

			if s[i] == '%' {
				buf = append(buf, s[left:i])
				left = i + 1
				continue
			}

			buf = append(buf, s[left:i-1])
			left = i + 1
			if c := constFragment(strings.Join(buf, "")); c != "" {
				p.fragments = append(p.fragments, c)
			}
			buf = nil

			switch s[i] {
			case 'Y':
				p.fragments = append(p.fragments, yearFragment)
				unit(365 * 24 * time.Hour)
			case 'y':
				p.fragments = append(p.fragments, shortYearFragment)
				unit(365 * 24 * time.Hour)
			case 'm':
				p.fragments = append(p.fragments, monthFragment)
				unit(28 * 24 * time.Hour)
			case 'd':
				p.fragments = append(p.fragments, dayFragment)
				unit(24 * time.Hour)
			case 'H':
				p.fragments = append(p.fragments, hourFragment)
				unit(time.Hour)
			case 'M':
				p.fragments = append(p.fragments, minuteFragment)
				unit(time.Minute)
			default:
				buf = append(buf, "%", string(s[i]))
			}
		}
	}
	if c := constFragment(strings.Join(append(buf, s[left:]), "")); c != "" {
		p.fragments = append(p.fragments, c)
	}

	return p
}

// String returns the original pattern.
func (p Pattern) String() string {
	return p.pattern
}

// Build makes a file name for the time.
func (p Pattern) Build(t time.Time) string {
	ss := make([]string, len(p.fragments))
	for i, f := range p.fragments {
		ss[i] = f.Build(t)
	}
	return strings.Join(ss, "")
}

// Len returns the length of the file names.
func (p Pattern) Len() int {
	n := 0
	for _, f := range p.fragments {
		n += f.Len()
	}
	return n
}

// Match reports the file name is shaped like the pattern.
func (p Pattern) Match(s string) bool {
	if len(s) != p.Len() {
		return false
	}

	l := 0
	for _, f := range p.fragments {
		r := l + f.Len()
		if !f.Valid(s[l:r]) {
			return false
		}
		l = r
	}
	return true
}

// Prune deletes the log files in dir that are made by the pattern but older than retentionDays before now.
// It returns the deleted file names.
// A pattern without time fragments is never pruned.
func Prune(dir string, p Pattern, retentionDays int, now time.Time) []string {
	if p.Unit == 0 || retentionDays <= 0 {
		return nil
	}

	step := p.Unit
	if step > 24*time.Hour {
		step = 24 * time.Hour
	}

	keep := make(map[string]struct{})
	cutoff := now.AddDate(0, 0, -retentionDays)
	for t := now; t.After(cutoff); t = t.Add(-step) {
		keep[filepath.FromSlash(p.Build(t))] = struct{}{}
	}

	var deleted []string
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil || !p.Match(filepath.ToSlash(rel)) {
			return nil
		}
		if _, ok := keep[rel]; ok {
			return nil
		}

		if os.Remove(path) == nil {
			deleted = append(deleted, rel)
		}
		return nil
	})

	return deleted
}
