package parsers

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const entryDateLayout = "2006-01-02"

var (
	fullDatePattern  = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	monthDayPattern  = regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})\b`)
	relativeKeywords = map[string]int{
		"today":     0,
		"yesterday": -1,
		"tomorrow":  1,
	}
)

// ResolveEntryDate converts a date hint from the parsed reply, or a date
// expression found in the raw user text, into a canonical YYYY-MM-DD day in
// the user's local calendar. Returns "" when nothing resolves; the caller
// defaults to localDate itself.
//
// Relative keywords are computed against localDate, not server time: the
// user's local midnight boundary decides which diary day an 11pm entry
// belongs to. A month-day without a year that would land in the future rolls
// back one year, so "12-31" said in January means last December.
func ResolveEntryDate(hint, rawText string, localDate time.Time) string {
	if d := resolveExpression(hint, localDate); d != "" {
		return d
	}
	return resolveExpression(rawText, localDate)
}

func resolveExpression(expr string, localDate time.Time) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ""
	}

	lower := strings.ToLower(expr)
	for word, offset := range relativeKeywords {
		if strings.Contains(lower, word) {
			return localDate.AddDate(0, 0, offset).Format(entryDateLayout)
		}
	}

	if m := fullDatePattern.FindStringSubmatch(expr); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := calendarDay(year, month, day, localDate.Location()); ok {
			return d
		}
	}

	if m := monthDayPattern.FindStringSubmatch(expr); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year := localDate.Year()
		d, ok := calendarDay(year, month, day, localDate.Location())
		if !ok {
			return ""
		}
		// year inferred; never resolve to a future date
		if d > localDate.Format(entryDateLayout) {
			d, _ = calendarDay(year-1, month, day, localDate.Location())
		}
		return d
	}

	return ""
}

// calendarDay validates the month/day pair and formats the canonical day.
// time.Date normalizes out-of-range values (e.g. month 13), which would
// silently accept garbage, so the components are checked round-trip.
func calendarDay(year, month, day int, loc *time.Location) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return t.Format(entryDateLayout), true
}
