package domain

import (
	"fmt"
	"time"
)

// Window is a half-open time range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// DayWindow returns the tenant-local calendar day containing now.
func DayWindow(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{From: start, To: start.AddDate(0, 0, 1)}
}

// DayKey is the tenant-local date of t, used to key per-day attendance rows.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// MonthStart returns local midnight on the first day of now's month.
func MonthStart(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

// StatsPeriod names a reporting window.
type StatsPeriod string

const (
	PeriodToday  StatsPeriod = "today"
	PeriodWeek   StatsPeriod = "week"
	PeriodMonth  StatsPeriod = "month"
	PeriodCustom StatsPeriod = "custom"
)

// ResolveWindow turns a reporting period into a concrete window. For custom
// periods from and to are local calendar dates (YYYY-MM-DD), both inclusive.
func ResolveWindow(period StatsPeriod, now time.Time, loc *time.Location, from, to string) (Window, error) {
	switch period {
	case PeriodToday, "":
		return DayWindow(now, loc), nil
	case PeriodWeek:
		return Window{From: now.AddDate(0, 0, -7), To: now}, nil
	case PeriodMonth:
		return Window{From: now.AddDate(0, -1, 0), To: now}, nil
	case PeriodCustom:
		start, err := time.ParseInLocation("2006-01-02", from, loc)
		if err != nil {
			return Window{}, fmt.Errorf("%w: invalid from date %q", ErrValidation, from)
		}
		end := start
		if to != "" {
			end, err = time.ParseInLocation("2006-01-02", to, loc)
			if err != nil {
				return Window{}, fmt.Errorf("%w: invalid to date %q", ErrValidation, to)
			}
		}
		if end.Before(start) {
			return Window{}, fmt.Errorf("%w: to date is before from date", ErrValidation)
		}
		return Window{From: start, To: end.AddDate(0, 0, 1)}, nil
	default:
		return Window{}, fmt.Errorf("%w: unknown period %q", ErrValidation, period)
	}
}
