package engine

import (
	"regexp"
	"strconv"
)

// Age descriptors are free-form text. The shapes seen in practice are
// "N minutes ago" (derived from a creation timestamp), "Nm" / "N min",
// and second-granularity variants for very fresh tokens.
var (
	minutesPattern = regexp.MustCompile(`^(\d+)\s*m(?:in(?:ute)?s?)?(?:\s+ago)?$`)
	secondsPattern = regexp.MustCompile(`^(\d+)\s*s(?:ec(?:ond)?s?)?(?:\s+ago)?$`)
)

// AgeWithinMinutes reports whether a free-form age descriptor resolves to
// at most limit minutes. Unparseable descriptors (including "Unknown",
// hours, days) are never within the limit.
func AgeWithinMinutes(age string, limit int) bool {
	if m := secondsPattern.FindStringSubmatch(age); m != nil {
		return true // seconds old is always within a minute-scale limit
	}

	m := minutesPattern.FindStringSubmatch(age)
	if m == nil {
		return false
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}
	return minutes <= limit
}
