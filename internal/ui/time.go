package ui

import (
	"fmt"
	"time"

	internalage "sheetctl/internal/age"
)

// ageUnits lists display units coarsest first. Ages under a minute
// render in seconds.
var ageUnits = []struct {
	span  time.Duration
	label string
}{
	{24 * time.Hour, "d"},
	{time.Hour, "h"},
	{time.Minute, "m"},
}

// FormatTimeAgo returns a compact age string like "2m ago", or "-" when
// the timestamp is unset.
func FormatTimeAgo(then time.Time, now time.Time) string {
	age, ok := internalage.AgeData(then, now)
	if !ok {
		return "-"
	}
	return shortAge(age) + " ago"
}

// FormatTimeAgeShort is FormatTimeAgo without the suffix, for tight list rows.
func FormatTimeAgeShort(then time.Time, now time.Time) string {
	age, ok := internalage.AgeData(then, now)
	if !ok {
		return "-"
	}
	return shortAge(age)
}

func shortAge(age time.Duration) string {
	for _, unit := range ageUnits {
		if age >= unit.span {
			return fmt.Sprintf("%d%s", int64(age/unit.span), unit.label)
		}
	}
	return fmt.Sprintf("%ds", int64(age/time.Second))
}
