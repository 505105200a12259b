package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	compactLayoutLen = 14
	DisplayLayout    = "2006-01-02 15:04:05"
	apiDateLayout    = "20060102"
)

// ParseCompactTimestamp parses a vendor YYYYMMDDHHmmss value as local wall-clock time.
// Out-of-range fields roll over (month 13 becomes January of the next year).
func ParseCompactTimestamp(raw string) (time.Time, bool) {
	if len(raw) < compactLayoutLen || !isDigits(raw[:compactLayoutLen]) {
		return time.Time{}, false
	}
	var parts [6]int
	bounds := [7]int{0, 4, 6, 8, 10, 12, 14}
	for i := 0; i < 6; i++ {
		n, err := strconv.Atoi(raw[bounds[i]:bounds[i+1]])
		if err != nil {
			return time.Time{}, false
		}
		parts[i] = n
	}
	return time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, time.Local), true
}

func FormatTime(t time.Time) string {
	return t.Format(DisplayLayout)
}

// FormatTimestamp renders a compact vendor timestamp for display. Unparseable
// input is returned unchanged.
func FormatTimestamp(raw string) string {
	t, ok := ParseCompactTimestamp(raw)
	if !ok {
		return raw
	}
	return FormatTime(t)
}

// ParseDisplayTime parses a value produced by FormatTime.
func ParseDisplayTime(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(DisplayLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// APIDateParam renders the UTC calendar date as YYYYMMDD for listing queries.
func APIDateParam(t time.Time) string {
	return t.UTC().Format(apiDateLayout)
}

var refPrefix = regexp.MustCompile(`(?i)^(RET|RMA|SHP)-`)

// ExtractCoreReference strips RET-/RMA-/SHP- prefixes and returns the leading
// numeric segment when it is longer than 4 digits, otherwise the stripped string.
// Prefixes are stripped repeatedly so the function is idempotent.
func ExtractCoreReference(ref string) string {
	clean := ref
	for {
		next := refPrefix.ReplaceAllString(clean, "")
		if next == clean {
			break
		}
		clean = next
	}
	first, _, _ := strings.Cut(clean, "-")
	if len(first) > 4 && isDigits(first) {
		return first
	}
	return clean
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// StatusToken turns "Awaiting Stock" into AWAITING_STOCK.
func StatusToken(description string) string {
	return whitespaceRun.ReplaceAllString(strings.ToUpper(description), "_")
}
