package microsoft

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateTimeTimeZone is the Graph dateTimeTimeZone complex type.
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// NewDateTimeTimeZone renders t in UTC.
func NewDateTimeTimeZone(t time.Time) DateTimeTimeZone {
	return DateTimeTimeZone{
		DateTime: t.UTC().Format("2006-01-02T15:04:05"),
		TimeZone: "UTC",
	}
}

// Time parses the value. Requests carry Prefer: outlook.timezone="UTC", so
// unzoned values are UTC unless TimeZone names a loadable location.
func (d DateTimeTimeZone) Time() (time.Time, error) {
	if d.TimeZone != "" && !strings.EqualFold(d.TimeZone, "UTC") && !hasZone(d.DateTime) {
		if loc, err := time.LoadLocation(d.TimeZone); err == nil {
			t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", truncateFraction(d.DateTime), loc)
			if err == nil {
				return t.UTC(), nil
			}
		}
	}
	return ParseDateTime(d.DateTime)
}

var fractionPattern = regexp.MustCompile(`\.(\d+)`)

// truncateFraction keeps at most six fractional digits.
func truncateFraction(s string) string {
	return fractionPattern.ReplaceAllStringFunc(s, func(m string) string {
		if len(m) > 7 {
			return m[:7]
		}
		return m
	})
}

func hasZone(s string) bool {
	if strings.HasSuffix(s, "Z") {
		return true
	}
	if i := strings.LastIndex(s, "T"); i >= 0 {
		rest := s[i:]
		return strings.ContainsAny(rest, "+") || strings.Count(rest, "-") > 0
	}
	return false
}

// ParseDateTime parses a Graph timestamp. Fractional seconds beyond six
// digits are dropped and a missing zone is read as UTC.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	s = truncateFraction(s)
	if !hasZone(s) {
		s += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse graph datetime %q: %w", s, err)
	}
	return t.UTC(), nil
}

// MustParseDateTime is ParseDateTime returning the zero time on error.
func MustParseDateTime(s string) time.Time {
	t, err := ParseDateTime(s)
	if err != nil {
		return time.Time{}
	}
	return t
}
