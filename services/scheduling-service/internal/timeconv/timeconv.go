// Package timeconv converts between civil dates/times interpreted in an IANA
// zone and absolute instants.
//
// Civil times that fall into a DST gap or overlap are resolved the way
// time.Date resolves them: the result is one of the instants adjacent to the
// transition. The choice is implementation-defined but deterministic for a
// given zone database.
package timeconv

import (
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // zone database fallback for minimal container images

	"github.com/slotwise/scheduler/services/scheduling-service/internal/apperr"
)

const (
	DateLayout     = "2006-01-02"
	CivilLayout    = "2006-01-02T15:04:05"
	civilNoSeconds = "2006-01-02T15:04"
)

var zones sync.Map // name -> *time.Location

// LoadZone resolves an IANA zone name. "Local" is rejected because its meaning
// depends on the host.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "Local") {
		return nil, apperr.InvalidTimezone(name, nil)
	}
	if loc, ok := zones.Load(name); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, apperr.InvalidTimezone(name, err)
	}
	zones.Store(name, loc)
	return loc, nil
}

// Date is a calendar date without a zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, apperr.Validation("date", "must be YYYY-MM-DD (got %q)", s)
	}
	return DateOf(t), nil
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC))
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ParseClock accepts HH:MM or HH:MM:SS.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Clock{}, apperr.Validation("time", "must be HH:MM (got %q)", s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

func (c Clock) String() string {
	if c.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
	}
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) seconds() int { return c.Hour*3600 + c.Minute*60 + c.Second }

func (c Clock) Before(o Clock) bool { return c.seconds() < o.seconds() }

func (c Clock) Compare(o Clock) int { return c.seconds() - o.seconds() }

// Anchor places the civil date and time in loc.
func Anchor(d Date, c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, c.Second, 0, loc)
}

// ToUTC converts a civil date and time interpreted in loc to a UTC instant.
func ToUTC(d Date, c Clock, loc *time.Location) time.Time {
	return Anchor(d, c, loc).UTC()
}

// ToCivil is the inverse of ToUTC.
func ToCivil(t time.Time, loc *time.Location) (Date, Clock) {
	local := t.In(loc)
	return DateOf(local), ClockOf(local)
}

// Weekday reports the day of week of d when d is read as a date in loc.
func Weekday(d Date, loc *time.Location) time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc).Weekday()
}

// DayWindow returns the UTC instants bounding the civil day d in loc as a
// half-open range [start, end). Days adjacent to a DST change are 23 or 25
// hours long.
func DayWindow(d Date, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
	end := time.Date(d.Year, d.Month, d.Day+1, 0, 0, 0, 0, loc)
	return start.UTC(), end.UTC()
}

// ParseDateTime accepts an RFC 3339 timestamp carrying its own offset, or a
// civil datetime (YYYY-MM-DDTHH:MM[:SS], a space separator is allowed) that is
// interpreted in loc.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	civil := strings.Replace(s, " ", "T", 1)
	for _, layout := range []string{CivilLayout, civilNoSeconds} {
		if t, err := time.ParseInLocation(layout, civil, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation("start_time", "must be RFC 3339 or YYYY-MM-DDTHH:MM[:SS] (got %q)", s)
}

// FormatCivil renders t as a civil datetime in loc, without an offset.
func FormatCivil(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(CivilLayout)
}
