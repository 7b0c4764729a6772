package textutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrNoDigits = errors.New("text contains no digits")

var nonDigitRegex = regexp.MustCompile(`[^0-9]`)

// ExtractInt pulls a base-10 integer out of free-form page text by
// stripping everything that is not a digit. Thousands separators and
// currency symbols embedded in the text are therefore harmless.
func ExtractInt(text string) (int, error) {
	digits := nonDigitRegex.ReplaceAllString(text, "")
	if digits == "" {
		return 0, ErrNoDigits
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, err
	}
	return n, nil
}

var monthsByName = map[string]time.Month{
	"januar":    time.January,
	"january":   time.January,
	"februar":   time.February,
	"february":  time.February,
	"märz":      time.March,
	"march":     time.March,
	"april":     time.April,
	"mai":       time.May,
	"may":       time.May,
	"juni":      time.June,
	"june":      time.June,
	"juli":      time.July,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"oktober":   time.October,
	"october":   time.October,
	"november":  time.November,
	"dezember":  time.December,
	"december":  time.December,
}

var datePunctRegex = regexp.MustCompile(`[.,]`)

// ParseLocalizedDate converts a "<day> <month-name> <year>" date as rendered
// on German or English order pages ("5. März 2024", "17 June 2023") into an
// ISO-8601 date string. It refuses anything that does not match that shape.
// In particular month-first strings ("March 5 2024") stay ambiguous with US
// day ordering and are rejected rather than guessed at.
func ParseLocalizedDate(text string) (string, error) {
	normalized := datePunctRegex.ReplaceAllString(text, " ")
	fields := strings.Fields(normalized)
	if len(fields) != 3 {
		return "", fmt.Errorf("unrecognized date shape: %q", text)
	}

	day, err := strconv.Atoi(fields[0])
	if err != nil || day < 1 || day > 31 {
		return "", fmt.Errorf("unrecognized day in date: %q", text)
	}
	month, ok := monthsByName[strings.ToLower(fields[1])]
	if !ok {
		return "", fmt.Errorf("unrecognized month name in date: %q", text)
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil || year < 1000 || year > 9999 {
		return "", fmt.Errorf("unrecognized year in date: %q", text)
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), nil
}

var unsafeFilenameRegex = regexp.MustCompile(`[^A-Za-z0-9._\-]+`)
var dashRunRegex = regexp.MustCompile(`-{2,}`)

// SanitizeFilename makes page-derived text (invoice titles, amounts, raw
// dates) safe to embed in a filename component.
func SanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	s = unsafeFilenameRegex.ReplaceAllString(s, "-")
	s = dashRunRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
