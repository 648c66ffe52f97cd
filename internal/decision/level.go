package decision

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var errEmptyLevel = errors.New("empty level reading")

// ParseLevel reads the magnitude of a level zone such as "23.1Ft". A configured
// unit is stripped case-insensitively and any other suffix is an error; with no
// unit configured any trailing non-numeric characters are dropped.
func ParseLevel(raw, unit string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errEmptyLevel
	}
	switch {
	case unit != "" && len(s) >= len(unit) && strings.EqualFold(s[len(s)-len(unit):], unit):
		s = strings.TrimSpace(s[:len(s)-len(unit)])
	case unit != "":
		if num := strings.TrimRightFunc(s, notNumeric); num != s && num != "" {
			return 0, fmt.Errorf("parse level %q: unit %q, want %q", raw, strings.TrimSpace(s[len(num):]), unit)
		}
	default:
		s = strings.TrimRightFunc(s, notNumeric)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse level %q: %w", raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("parse level %q: not a finite number", raw)
	}
	return v, nil
}

func notNumeric(r rune) bool {
	return !unicode.IsDigit(r) && r != '.'
}
