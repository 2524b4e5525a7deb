// Package timeexpr parses the git-style time expressions accepted by --since,
// --after, --before and the MCP date parameters.
//
// Supported forms:
//
//	2 days ago, 3h, -1 week, +2d      relative to now (no sign means the past)
//	today, yesterday, tomorrow        local midnight, optionally with a time
//	tomorrow 14:00, today at 2pm      keyword plus clock time
//	2025-01-15, December 20, 2024     absolute dates in the local zone
package timeexpr

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrInvalidExpression is returned for input that matches no supported form.
var ErrInvalidExpression = errors.New("invalid time expression")

var errOutOfRange = errors.New("offset out of range")

const (
	secondsPerMonth = 2629743
	secondsPerYear  = 31556926
)

var (
	relativeRe = regexp.MustCompile(`^([+-])?\s*(\d+)\s*([a-zA-Z]+?)\s*(ago)?$`)
	keywordRe  = regexp.MustCompile(`^(today|yesterday|tomorrow|now)(?:\s+(?:at\s+)?(.+))?$`)
	clockRe    = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

// unitSeconds maps unit spellings to their length. Single-letter "M" is
// months and "m" is minutes; every other spelling is case-insensitive.
func unitSeconds(unit string) (int64, bool) {
	if unit == "M" {
		return secondsPerMonth, true
	}
	switch strings.ToLower(unit) {
	case "s", "sec", "secs", "second", "seconds":
		return 1, true
	case "m", "min", "mins", "minute", "minutes":
		return 60, true
	case "h", "hr", "hrs", "hour", "hours":
		return 3600, true
	case "d", "day", "days":
		return 86400, true
	case "w", "wk", "wks", "week", "weeks":
		return 604800, true
	case "month", "months", "mo", "mos":
		return secondsPerMonth, true
	case "y", "yr", "yrs", "year", "years":
		return secondsPerYear, true
	}
	return 0, false
}

// Parse resolves expr against now. Relative expressions without a sign are
// taken as the past.
func Parse(expr string, now time.Time) (time.Time, error) {
	return parse(expr, now, -1)
}

// ParseFuture is Parse with unsigned relative expressions taken as the future,
// so "7 days" means a week from now.
func ParseFuture(expr string, now time.Time) (time.Time, error) {
	return parse(expr, now, 1)
}

func parse(expr string, now time.Time, defaultSign int64) (time.Time, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidExpression)
	}

	if m := relativeRe.FindStringSubmatch(s); m != nil {
		t, ok, err := relative(m, now, defaultSign)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %w", ErrInvalidExpression, expr, err)
		}
		if ok {
			return t, nil
		}
	}

	lower := strings.ToLower(s)
	if m := keywordRe.FindStringSubmatch(lower); m != nil {
		return keyword(m[1], m[2], now)
	}

	t, err := dateparse.ParseIn(s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidExpression, expr)
	}
	return t, nil
}

func relative(m []string, now time.Time, defaultSign int64) (time.Time, bool, error) {
	per, ok := unitSeconds(m[3])
	if !ok {
		return time.Time{}, false, nil
	}
	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || n > math.MaxInt64/per/int64(time.Second) {
		return time.Time{}, false, errOutOfRange
	}

	sign := defaultSign
	switch {
	case m[4] != "":
		sign = -1
	case m[1] == "-":
		sign = -1
	case m[1] == "+":
		sign = 1
	}
	return now.Add(time.Duration(sign*n*per) * time.Second), true, nil
}

func keyword(word, clock string, now time.Time) (time.Time, error) {
	if word == "now" {
		if clock != "" {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidExpression, word+" "+clock)
		}
		return now, nil
	}

	day := StartOfDay(now)
	switch word {
	case "yesterday":
		day = day.AddDate(0, 0, -1)
	case "tomorrow":
		day = day.AddDate(0, 0, 1)
	}
	if clock == "" {
		return day, nil
	}

	h, mnt, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, mnt, 0, 0, day.Location()), nil
}

func parseClock(s string) (hour, minute int, err error) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: bad time %q", ErrInvalidExpression, s)
	}
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, 0, fmt.Errorf("%w: bad time %q", ErrInvalidExpression, s)
	}
	if m[3] == "" {
		if hour > 23 {
			return 0, 0, fmt.Errorf("%w: bad time %q", ErrInvalidExpression, s)
		}
		return hour, minute, nil
	}
	if hour < 1 || hour > 12 {
		return 0, 0, fmt.Errorf("%w: bad time %q", ErrInvalidExpression, s)
	}
	hour %= 12
	if m[3] == "pm" {
		hour += 12
	}
	return hour, minute, nil
}

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

// ParseDuration accepts "1h", "30m", "1h30m", "1.5h", "2 hours" or a bare
// number of minutes.
func ParseDuration(s string) (time.Duration, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return 0, fmt.Errorf("%w: empty duration", ErrInvalidExpression)
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("%w: duration must be positive", ErrInvalidExpression)
		}
		return time.Duration(n) * time.Minute, nil
	}

	replacer := strings.NewReplacer(
		"hours", "h", "hour", "h", "hrs", "h", "hr", "h",
		"minutes", "m", "minute", "m", "mins", "m", "min", "m",
		" ", "",
	)
	d, err := time.ParseDuration(replacer.Replace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q", ErrInvalidExpression, s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive", ErrInvalidExpression)
	}
	return d, nil
}
