// Package timex parses and renders the date expressions used by the booking flow.
//
// A timex is an ISO 8601 calendar date ("2026-10-15"), or a partial date whose
// year is unknown ("XXXX-10-15").
package timex

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const layout = "2006-01-02"

// ErrUnrecognized is returned when text is not a date expression.
var ErrUnrecognized = errors.New("unrecognized date")

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// Parse turns a user answer into a full timex relative to now.
// It accepts ISO dates, partial timex, "today", "tomorrow", "yesterday" and weekday names.
func Parse(text string, now time.Time) (string, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	today := midnight(now)

	switch s {
	case "":
		return "", ErrUnrecognized
	case "today":
		return today.Format(layout), nil
	case "tomorrow":
		return today.AddDate(0, 0, 1).Format(layout), nil
	case "yesterday":
		return today.AddDate(0, 0, -1).Format(layout), nil
	}

	s = strings.TrimPrefix(s, "next ")
	s = strings.TrimPrefix(s, "on ")
	if wd, ok := weekdays[s]; ok {
		days := (int(wd) - int(today.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return today.AddDate(0, 0, days).Format(layout), nil
	}

	t, err := Resolve(s, now)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}

// Resolve returns the date a timex denotes. Partial timex resolve to their
// next occurrence on or after now.
func Resolve(timex string, now time.Time) (time.Time, error) {
	today := midnight(now)
	if len(timex) > 5 && strings.EqualFold(timex[:5], "XXXX-") {
		t, err := time.ParseInLocation(layout, fmt.Sprintf("%04d-%s", today.Year(), timex[5:]), now.Location())
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, timex)
		}
		if t.Before(today) {
			t = t.AddDate(1, 0, 0)
		}
		return t, nil
	}
	t, err := time.ParseInLocation(layout, timex, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, timex)
	}
	return t, nil
}

// IsDefinite reports whether timex names a single calendar day.
func IsDefinite(timex string) bool {
	_, err := time.Parse(layout, timex)
	return err == nil
}

// ToNaturalLanguage renders a timex relative to now: "today", "tomorrow",
// "yesterday", "next Friday" within the coming week, else "15th October 2026".
// Unparseable input is returned unchanged.
func ToNaturalLanguage(timex string, now time.Time) string {
	t, err := Resolve(timex, now)
	if err != nil {
		return timex
	}
	days := int(math.Round(t.Sub(midnight(now)).Hours() / 24))
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days > 1 && days < 7:
		return "next " + t.Weekday().String()
	}
	return fmt.Sprintf("%d%s %s %d", t.Day(), ordinal(t.Day()), t.Month(), t.Year())
}

func ordinal(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
