package racing

import (
	"regexp"
	"strconv"
	"strings"
)

// ExhibitionLateValue stands in for an exhibition start written as
// "<course> L".
const ExhibitionLateValue = 0.45

var (
	exhibitionLateRe = regexp.MustCompile(`(?i)^\d+\s*L$`)
	courseMixedRe    = regexp.MustCompile(`(?i)^\d+\s*([FL](?:\.\d+)?)$`)
	twoDigitsRe      = regexp.MustCompile(`^\d{2}$`)
	decimalRe        = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// ParseStartTiming converts a start timing cell to seconds relative to the
// start line. Flying starts are negative ("F.01" -> -0.01). A bare "L" in
// a race is a late start with no timing; in an exhibition "4  L" maps to
// ExhibitionLateValue. The bool is false when no value applies.
func ParseStartTiming(raw string, exhibition bool) (float64, bool) {
	t := strings.TrimSpace(raw)
	switch t {
	case "", "-", "—", "ー", "―":
		return 0, false
	}
	t = strings.NewReplacer("Ｆ", "F", "Ｌ", "L").Replace(t)

	if exhibition && exhibitionLateRe.MatchString(t) {
		return ExhibitionLateValue, true
	}
	if m := courseMixedRe.FindStringSubmatch(t); m != nil {
		t = m[1]
	}
	if !exhibition && strings.EqualFold(t, "L") {
		return 0, false
	}

	sign := 1.0
	switch {
	case strings.HasPrefix(t, "F"), strings.HasPrefix(t, "f"):
		sign, t = -1, strings.TrimSpace(t[1:])
	case strings.HasPrefix(t, "L"), strings.HasPrefix(t, "l"):
		t = strings.TrimSpace(t[1:])
	}
	if twoDigitsRe.MatchString(t) {
		t = "0." + t
	}
	if strings.HasPrefix(t, ".") {
		t = "0" + t
	}
	if !decimalRe.MatchString(t) {
		return 0, false
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return sign * v, true
}
