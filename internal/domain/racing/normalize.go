// Package racing normalizes the identifiers and result tokens found in
// race tables and ranking pages.
package racing

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

var (
	digitsRe     = regexp.MustCompile(`^\d+$`)
	sciRe        = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?[eE]\+[0-9]+$`)
	sectionIDRe  = regexp.MustCompile(`^(\d{8})_(\d{1,2})$`)
	firstIntRe   = regexp.MustCompile(`\d+`)
	firstFloatRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Fold maps full-width ASCII and the ideographic space to their narrow
// forms and trims surrounding space. Half-width katakana become wide.
func Fold(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}

func clean(s string) string {
	s = Fold(s)
	if strings.EqualFold(s, "nan") || s == "None" || s == "<NA>" {
		return ""
	}
	return strings.TrimSuffix(s, ".0")
}

// NormalizeVenue zero-fills a 1-2 digit venue code: "1", "1.0", "01" -> "01".
func NormalizeVenue(s string) (string, error) {
	s = clean(s)
	if s == "" || len(s) > 2 || !digitsRe.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVenue, s)
	}
	n, _ := strconv.Atoi(s)
	return fmt.Sprintf("%02d", n), nil
}

// NormalizeRaceID restores identifiers mangled into scientific notation
// by spreadsheets ("2.02504E+11" -> "202504000000"). Empty input stays empty.
func NormalizeRaceID(s string) string {
	s = clean(s)
	if s == "" || digitsRe.MatchString(s) {
		return s
	}
	if sciRe.MatchString(s) {
		f, _, err := big.ParseFloat(s, 10, 256, big.ToNearestEven)
		if err == nil {
			i, _ := f.Int(nil)
			return i.String()
		}
	}
	return s
}

// ParseMotorNumber coerces "12", "12.0" or "１２" to 12.
func ParseMotorNumber(s string) (int, bool) {
	s = clean(s)
	if !digitsRe.MatchString(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NormalizeSectionID turns "20240928_3" or "20240928-3" into "20240928_03".
// Other shapes are returned trimmed.
func NormalizeSectionID(s string) string {
	s = strings.ReplaceAll(clean(s), "-", "_")
	m := sectionIDRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	n, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%s_%02d", m[1], n)
}

// NormalizeIdentity zero-pads an all-digit motor identity to 6 digits.
func NormalizeIdentity(s string) string {
	s = clean(s)
	if s != "" && digitsRe.MatchString(s) && len(s) < 6 {
		return strings.Repeat("0", 6-len(s)) + s
	}
	return s
}

// FirstInt returns the first run of digits in s.
func FirstInt(s string) (int, bool) {
	m := firstIntRe.FindString(Fold(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FirstFloat returns the first decimal number in s.
func FirstFloat(s string) (float64, bool) {
	m := firstFloatRe.FindString(Fold(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseRate reads a percentage such as "35.2%" or "３５．２".
func ParseRate(s string) (float64, bool) {
	return FirstFloat(strings.ReplaceAll(Fold(s), "%", ""))
}
