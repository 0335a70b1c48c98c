// Package storestatus decides whether a store is currently open from its
// weekly operating hours and an owner-controlled override flag. It is pure
// computation: callers load the hours rows, pick the instant to evaluate
// (already expressed in the store's local timezone) and render the result.
package storestatus

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ForceStatus is the owner's manual override. Exactly one policy is active
// at a time, which is why this is a single enum rather than two booleans.
type ForceStatus string

const (
	ForceStatusNormal ForceStatus = "normal"
	ForceStatusOpen   ForceStatus = "force_open"
	ForceStatusClosed ForceStatus = "force_closed"
)

// Valid reports whether f is one of the three known override values.
func (f ForceStatus) Valid() bool {
	return f == ForceStatusNormal || f == ForceStatusOpen || f == ForceStatusClosed
}

// HourEntry is one recurring weekly open window. DayOfWeek follows
// time.Weekday numbering (0=Sunday .. 6=Saturday). OpenTime and CloseTime
// are wall-clock "HH:MM" or "HH:MM:SS" strings on the same calendar day.
// A day may carry several entries (split shifts); a day with no entries is
// closed all day.
type HourEntry struct {
	DayOfWeek int    `json:"day_of_week"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

// NextOpening identifies the next instant the store transitions to open.
// Rendering ("Friday at 09:00" vs "at 14:00") is left to the caller.
type NextOpening struct {
	DayOfWeek int    `json:"day_of_week"`
	Time      string `json:"time"`
}

// Result is the outcome of a single evaluation. It is recomputed fresh on
// every call and never cached.
type Result struct {
	IsOpen      bool         `json:"is_open"`
	ForceStatus ForceStatus  `json:"force_status"`
	NextOpening *NextOpening `json:"next_open_time,omitempty"`
	AllHours    []HourEntry  `json:"all_hours"`
}

var (
	// ErrInvalidTimeFormat reports an open/close time that is not HH:MM[:SS].
	// Malformed times are a data-entry bug; they are surfaced rather than
	// silently treated as open or closed.
	ErrInvalidTimeFormat = errors.New("invalid time format")

	// ErrInvalidDayOfWeek reports a day_of_week outside 0-6.
	ErrInvalidDayOfWeek = errors.New("invalid day of week")
)

// Evaluate computes the open/closed state of a store at the given instant.
//
// The override short-circuits everything: force_open is always open,
// force_closed is always closed and suppresses the next-opening hint (the
// store is deliberately shut, so advertising an opening time would mislead).
// Under normal policy the store is open iff now falls inside any window for
// today's weekday, using half-open comparison: a window closing at 22:00 is
// closed at exactly 22:00:00.
//
// now must already be in the store's local timezone; Evaluate performs no
// timezone conversion of its own.
func Evaluate(hours []HourEntry, force ForceStatus, now time.Time) (Result, error) {
	res := Result{ForceStatus: force, AllHours: hours}

	switch force {
	case ForceStatusOpen:
		res.IsOpen = true
		return res, nil
	case ForceStatusClosed:
		return res, nil
	}

	// Validate the whole table up front so a malformed row surfaces even
	// when today's windows alone would decide the answer.
	parsed := make([]parsedEntry, len(hours))
	for i, h := range hours {
		p, err := parseEntry(h)
		if err != nil {
			return Result{}, err
		}
		parsed[i] = p
	}

	today := int(now.Weekday())
	current := now.Hour()*3600 + now.Minute()*60 + now.Second()

	for _, p := range parsed {
		if p.day == today && p.open <= current && current < p.close {
			res.IsOpen = true
			return res, nil
		}
	}

	res.NextOpening = nextOpening(parsed, today, current)
	return res, nil
}

type parsedEntry struct {
	day      int
	open     int // seconds since midnight
	close    int
	openText string
}

func parseEntry(h HourEntry) (parsedEntry, error) {
	if h.DayOfWeek < 0 || h.DayOfWeek > 6 {
		return parsedEntry{}, fmt.Errorf("%w: %d", ErrInvalidDayOfWeek, h.DayOfWeek)
	}
	open, err := parseClock(h.OpenTime)
	if err != nil {
		return parsedEntry{}, err
	}
	close, err := parseClock(h.CloseTime)
	if err != nil {
		return parsedEntry{}, err
	}
	return parsedEntry{day: h.DayOfWeek, open: open, close: close, openText: h.OpenTime}, nil
}

// IsValidClockTime reports whether s is a well-formed HH:MM or HH:MM:SS
// wall-clock time. Settings endpoints use this to reject malformed hours at
// the data-entry boundary instead of letting them reach evaluation.
func IsValidClockTime(s string) bool {
	_, err := parseClock(s)
	return err == nil
}

// parseClock converts "HH:MM" or "HH:MM:SS" to seconds since midnight.
func parseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	var hms [3]int
	for i, part := range parts {
		if len(part) != 2 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
		}
		hms[i] = n
	}

	if hms[0] > 23 || hms[1] > 59 || hms[2] > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	return hms[0]*3600 + hms[1]*60 + hms[2], nil
}

// nextOpening searches forward for the earliest upcoming window: first the
// remainder of today, then each following day in order, wrapping through the
// week and back to today's weekday (a store open only on Mondays, evaluated
// Monday night, reopens next Monday). Returns nil when no entries exist at
// all, i.e. the store has no configured hours.
func nextOpening(entries []parsedEntry, today, current int) *NextOpening {
	var best *parsedEntry
	for i := range entries {
		p := &entries[i]
		if p.day == today && p.open > current && (best == nil || p.open < best.open) {
			best = p
		}
	}
	if best != nil {
		return &NextOpening{DayOfWeek: best.day, Time: best.openText}
	}

	for offset := 1; offset <= 7; offset++ {
		day := (today + offset) % 7
		for i := range entries {
			p := &entries[i]
			if p.day == day && (best == nil || p.open < best.open) {
				best = p
			}
		}
		if best != nil {
			return &NextOpening{DayOfWeek: best.day, Time: best.openText}
		}
	}

	return nil
}
