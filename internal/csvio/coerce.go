package csvio

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var floatPattern = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

const maxSafeInteger = 1<<53 - 1

// Coerce converts a raw cell: empty becomes nil, true/false (lower or upper
// case) become bools, numbers within the safe integer range become float64.
// Everything else stays a string.
func Coerce(raw string) interface{} {
	switch raw {
	case "":
		return nil
	case "true", "TRUE":
		return true
	case "false", "FALSE":
		return false
	}

	if floatPattern.MatchString(raw) {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err == nil && math.Abs(f) <= maxSafeInteger {
			return f
		}
	}
	return raw
}
