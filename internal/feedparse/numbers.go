package feedparse

import (
	"strconv"
	"strings"
)

// parseGroupedInt converts a digit string with optional comma grouping
// ("1,234,567") to an int64. Returns 0 on empty or malformed input.
func parseGroupedInt(s string) int64 {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	// Some layouts render whole amounts with a decimal tail ("114.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}

// parseThousands converts an abbreviated figure such as "51.1" (from
// "$51.1K") to whole units. The K suffix is matched case-sensitively by the
// caller's pattern; this helper only scales.
func parseThousands(s string) int64 {
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f * 1000)
}

// parseFloatField converts a plain decimal field ("12.5") to float64,
// defaulting to 0 on malformed input.
func parseFloatField(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
