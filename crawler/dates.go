package crawler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date strings come back in whatever shape the serving skin renders:
// canonical, dotted Korean convention, spelled-out Korean, English month
// names, month-day with a weekday suffix, or a bare epoch from the APIs.
var canonicalDateRegex = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
var dottedDateRegex = regexp.MustCompile(`(\d{4})\s*\.\s*(\d{1,2})\s*\.\s*(\d{1,2})`)
var koreanDateRegex = regexp.MustCompile(`(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일`)
var monthDayWeekdayRegex = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})\s*\(`)
var epochRegex = regexp.MustCompile(`^\d{10}(\d{3})?$`)

var englishDateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// NormalizeDate converts a raw date string to YYYY-MM-DD. The function is
// total and idempotent: an already-canonical input comes back unchanged, an
// unrecognized input comes back unchanged (never destroyed), and an empty
// input becomes today's date. First matching pattern wins.
func NormalizeDate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Now().UTC().Format("2006-01-02")
	}

	if match := canonicalDateRegex.FindStringSubmatch(trimmed); match != nil {
		if date, ok := formatDate(match[1], match[2], match[3]); ok {
			return date
		}
	}
	if match := dottedDateRegex.FindStringSubmatch(trimmed); match != nil {
		if date, ok := formatDate(match[1], match[2], match[3]); ok {
			return date
		}
	}
	if match := koreanDateRegex.FindStringSubmatch(trimmed); match != nil {
		if date, ok := formatDate(match[1], match[2], match[3]); ok {
			return date
		}
	}
	for _, layout := range englishDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if match := monthDayWeekdayRegex.FindStringSubmatch(trimmed); match != nil {
		year := strconv.Itoa(time.Now().UTC().Year())
		if date, ok := formatDate(year, match[1], match[2]); ok {
			return date
		}
	}
	if epochRegex.MatchString(trimmed) {
		value, err := strconv.ParseInt(trimmed, 10, 64)
		if err == nil {
			if len(trimmed) == 13 {
				value /= 1000
			}
			return time.Unix(value, 0).UTC().Format("2006-01-02")
		}
	}

	return raw
}

func formatDate(yearStr, monthStr, dayStr string) (string, bool) {
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1900 || year >= 2200 {
		return "", false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return "", false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}
