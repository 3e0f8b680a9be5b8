// Package humandate turns human-phrased future times such as "in a few
// hours", "tomorrow at 1800", "on wed" or "on 2017-12-04 at 10:00" into an
// absolute UTC instant relative to a supplied reference time.
//
// Matching runs through ordered clauses: exact literals, a relative
// "in N unit" clause, the "tomorrow" prefix forms, a weekday, and finally an
// absolute YYYY-MM-DD date. Whichever base clause matches first wins, then an
// optional "at ..." clause refines the time of day. A result that would land
// before the reference time gets pushed forward a day, so "at 10:00" after
// 10:00 means tomorrow morning.
package humandate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrParseFailure is returned when a phrase does not match any clause or
// contains an out-of-range component.
var ErrParseFailure = errors.New("could not parse date phrase")

// Relative counts above this fail rather than overflow the arithmetic.
const maxRelativeCount = 10_000_000

var (
	// Full unit words come before their one-letter abbreviations so that
	// "months" is not swallowed by the "m" (minutes) alternative.
	relativeRe = regexp.MustCompile(`^in\s*([0-9]+|half an?|a couple of|a few)\s*(seconds?|minutes?|months?|hours?|days?|weeks?|years?|s|m|h|d|w)`)
	specialRe  = regexp.MustCompile(`^(tomorrow|day after tomorrow)`)
	weekdayRe  = regexp.MustCompile(`^(?:on\s+)?(mon|tues?|wed|thur?s?|fri|sat|sun)(?:day)?`)
	dateRe     = regexp.MustCompile(`(?:on\s+)?(\d{4})-(\d{2})-(\d{2})`)

	// The at-clause may follow any base form, so these are unanchored.
	atTimeRe = regexp.MustCompile(`at (\d{1,2}):?(\d{2})`)
	atAmPmRe = regexp.MustCompile(`at (\d+)\s*(am|pm)`)
)

var weekdayIndex = map[string]int{
	"mon": 0, "tue": 1, "wed": 2, "thu": 3, "fri": 4, "sat": 5, "sun": 6,
}

// Parse resolves phrase against now (treated as UTC). It is a pure function:
// the same inputs always produce the same output.
func Parse(phrase string, now time.Time) (time.Time, error) {
	input := strings.ToLower(strings.TrimSpace(phrase))
	now = now.UTC()

	switch input {
	case "next week":
		return setToMorning(now.AddDate(0, 0, 7-daysFromMonday(now))), nil
	case "tomorrow":
		return setToMorning(now.AddDate(0, 0, 1)), nil
	case "day after tomorrow":
		return setToMorning(now.AddDate(0, 0, 2)), nil
	}

	date, ok, err := parseRelativeClause(input, now)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		date, ok = parseSpecialWords(input, now)
	}
	if !ok {
		date, ok = parseWeekdayClause(input, now)
	}
	if !ok {
		date, ok, err = parseDateClause(input, now)
		if err != nil {
			return time.Time{}, err
		}
	}
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrParseFailure, phrase)
	}

	return applyAtClause(input, now, date)
}

// parseRelativeClause handles "in N unit". A match with an out-of-range
// component is a hard failure, not a fall-through to the next clause.
func parseRelativeClause(input string, now time.Time) (time.Time, bool, error) {
	m := relativeRe.FindStringSubmatch(input)
	if m == nil {
		return time.Time{}, false, nil
	}

	var count float64
	switch m[1] {
	case "half a", "half an":
		count = 0.5
	case "a couple of":
		count = 2
	case "a few":
		count = 3
	default:
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return time.Time{}, true, fmt.Errorf("%w: bad count %q", ErrParseFailure, m[1])
		}
		count = n
	}

	if count > maxRelativeCount {
		return time.Time{}, true, fmt.Errorf("%w: duration too large", ErrParseFailure)
	}

	// Added in whole seconds via the Unix epoch: a capped count of hours or
	// more already exceeds the nanosecond range of time.Duration.
	unit := m[2]
	sec := int64(float64(unitSeconds(unit)) * count)
	date := time.Unix(now.Unix()+sec, int64(now.Nanosecond())).UTC()

	// Months and years are approximated as 30 and 365 days; for whole counts
	// the drift is corrected by pinning the day (months) or the year (years).
	if count >= 1 {
		switch {
		case strings.HasPrefix(unit, "month"):
			date = time.Date(date.Year(), date.Month(), now.Day(),
				date.Hour(), date.Minute(), date.Second(), 0, time.UTC)
		case strings.HasPrefix(unit, "year"):
			date = time.Date(now.Year()+int(count), now.Month(), now.Day(),
				now.Hour(), now.Minute(), now.Second(), 0, time.UTC)
		}
	}

	// Far-future results land at a sensible morning hour.
	if date.After(now.Add(48 * time.Hour)) {
		date = setToMorning(date)
	}

	return date, true, nil
}

// parseSpecialWords handles "tomorrow ..." and "day after tomorrow ..."
// prefixes (non-exact forms, typically followed by an at-clause). The time of
// day is left for the at-clause to refine.
func parseSpecialWords(input string, now time.Time) (time.Time, bool) {
	m := specialRe.FindStringSubmatch(input)
	if m == nil {
		return time.Time{}, false
	}
	if m[1] == "day after tomorrow" {
		return now.AddDate(0, 0, 2), true
	}
	return now.AddDate(0, 0, 1), true
}

// parseWeekdayClause resolves a weekday name within the current ISO week,
// rolling forward a week when that day is already past.
func parseWeekdayClause(input string, now time.Time) (time.Time, bool) {
	m := weekdayRe.FindStringSubmatch(input)
	if m == nil {
		return time.Time{}, false
	}

	target := weekdayIndex[m[1][:3]]
	date := now.AddDate(0, 0, target-daysFromMonday(now))
	if date.Before(now) {
		date = date.AddDate(0, 0, 7)
	}
	return setToMorning(date), true
}

// parseDateClause handles an absolute YYYY-MM-DD date, optionally prefixed
// with "on". Invalid calendar dates fail.
func parseDateClause(input string, now time.Time) (time.Time, bool, error) {
	m := dateRe.FindStringSubmatch(input)
	if m == nil {
		return time.Time{}, false, nil
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	date := time.Date(year, time.Month(month), day,
		now.Hour(), now.Minute(), now.Second(), 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return time.Time{}, true, fmt.Errorf("%w: invalid calendar date %s-%s-%s",
			ErrParseFailure, m[1], m[2], m[3])
	}
	return setToMorning(date), true, nil
}

// applyAtClause searches for an "at HH:MM"/"at HHMM" clause first, then
// "at H am|pm", and finally pushes a result that went backwards forward by a
// day ("at 10:00" said after 10:00 means tomorrow).
func applyAtClause(input string, now, date time.Time) (time.Time, error) {
	if m := atTimeRe.FindStringSubmatch(input); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 {
			return time.Time{}, fmt.Errorf("%w: hour %d out of range", ErrParseFailure, hour)
		}
		if minute > 59 {
			return time.Time{}, fmt.Errorf("%w: minute %d out of range", ErrParseFailure, minute)
		}
		date = time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
	} else if m := atAmPmRe.FindStringSubmatch(input); m != nil {
		hour, err := strconv.Atoi(m[1])
		if err == nil && m[2] == "pm" {
			hour += 12
		}
		if err != nil || hour > 23 {
			return time.Time{}, fmt.Errorf("%w: hour %q out of range", ErrParseFailure, m[1])
		}
		date = time.Date(date.Year(), date.Month(), date.Day(),
			hour, date.Minute(), date.Second(), 0, time.UTC)
	}

	if date.Before(now) {
		date = date.AddDate(0, 0, 1)
	}
	return date, nil
}

func setToMorning(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 9, 30, 0, 0, time.UTC)
}

// daysFromMonday returns 0 for Monday through 6 for Sunday.
func daysFromMonday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func unitSeconds(unit string) int64 {
	switch {
	case strings.HasPrefix(unit, "month"):
		return 30 * 86400
	case unit == "s" || strings.HasPrefix(unit, "sec"):
		return 1
	case unit == "m" || strings.HasPrefix(unit, "min"):
		return 60
	case unit == "h" || strings.HasPrefix(unit, "hour"):
		return 3600
	case unit == "d" || strings.HasPrefix(unit, "day"):
		return 86400
	case unit == "w" || strings.HasPrefix(unit, "week"):
		return 7 * 86400
	default: // years
		return 365 * 86400
	}
}
