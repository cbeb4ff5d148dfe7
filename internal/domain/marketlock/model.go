package marketlock

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidWindow = errors.New("lock start must be before lock end")

const (
	DefaultDayStartHour = 7
	DefaultLead         = 30 * time.Minute
)

// Lock is one computed trade-freeze window. Rows are append-only; the most
// recently created one is authoritative.
type Lock struct {
	ID           int64
	LockStart    time.Time
	LockEnd      time.Time
	NoGamesToday bool
	CreatedAt    time.Time
}

// Policy carries the operating timezone and the window parameters.
type Policy struct {
	Location     *time.Location
	DayStartHour int
	Lead         time.Duration
}

func DefaultPolicy(loc *time.Location) Policy {
	return Policy{Location: loc, DayStartHour: DefaultDayStartHour, Lead: DefaultLead}
}

func (p Policy) normalize() Policy {
	if p.Location == nil {
		p.Location = time.UTC
	}
	if p.DayStartHour < 0 || p.DayStartHour > 23 {
		p.DayStartHour = DefaultDayStartHour
	}
	if p.Lead < 0 {
		p.Lead = DefaultLead
	}
	return p
}

// Today returns the local calendar date of now, formatted YYYY-MM-DD.
func (p Policy) Today(now time.Time) string {
	p = p.normalize()
	return now.In(p.Location).Format(time.DateOnly)
}

// dayStart returns DayStartHour:00 local on the date of day shifted by offsetDays.
func (p Policy) dayStart(day time.Time, offsetDays int) time.Time {
	local := day.In(p.Location)
	return time.Date(local.Year(), local.Month(), local.Day()+offsetDays, p.DayStartHour, 0, 0, 0, p.Location)
}

// Compute derives today's window from the start times of today's scheduled games.
// Without games the window runs from today's day start to tomorrow's; otherwise
// it opens Lead before the earliest game and ends at the next day start.
func Compute(p Policy, now time.Time, gameStarts []time.Time) (Lock, error) {
	p = p.normalize()
	end := p.dayStart(now, 1)

	var earliest time.Time
	for _, start := range gameStarts {
		if start.IsZero() {
			continue
		}
		if earliest.IsZero() || start.Before(earliest) {
			earliest = start
		}
	}

	lock := Lock{LockEnd: end}
	if earliest.IsZero() {
		lock.LockStart = p.dayStart(now, 0)
		lock.NoGamesToday = true
	} else {
		lock.LockStart = earliest.In(p.Location).Add(-p.Lead)
	}

	if !lock.LockStart.Before(lock.LockEnd) {
		return Lock{}, fmt.Errorf("%w: start=%s end=%s", ErrInvalidWindow, lock.LockStart.Format(time.RFC3339), lock.LockEnd.Format(time.RFC3339))
	}
	return lock, nil
}

// IsLocked reports whether now falls inside [LockStart, LockEnd], both bounds inclusive.
func (l Lock) IsLocked(now time.Time, loc *time.Location) bool {
	if l.LockStart.IsZero() || l.LockEnd.IsZero() {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}
	localNow := now.In(loc)
	return !localNow.Before(l.LockStart.In(loc)) && !localNow.After(l.LockEnd.In(loc))
}

// Status is the read model served to clients.
type Status struct {
	IsLocked     bool
	LockStart    *time.Time
	LockEnd      *time.Time
	NoGamesToday bool
}

// StatusAt evaluates the latest lock at now. A missing lock means the market is open.
func StatusAt(latest Lock, found bool, now time.Time, loc *time.Location) Status {
	if !found {
		return Status{IsLocked: false, NoGamesToday: true}
	}
	if loc == nil {
		loc = time.UTC
	}
	start := latest.LockStart.In(loc)
	end := latest.LockEnd.In(loc)
	return Status{
		IsLocked:     latest.IsLocked(now, loc),
		LockStart:    &start,
		LockEnd:      &end,
		NoGamesToday: latest.NoGamesToday,
	}
}
