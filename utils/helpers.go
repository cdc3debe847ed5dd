package utils

import (
	"fmt"
	"time"
)

const DefaultStatsWindow = 7 * 24 * time.Hour

func IsValidInterval(interval string) bool {
	switch interval {
	case "Minute", "Hour", "Day", "Week", "Month", "Quarter", "Year":
		return true
	default:
		return false
	}
}

// ParseTimeRange reads optional RFC3339 start/end values. A missing end is
// now, a missing start is DefaultStatsWindow before now.
func ParseTimeRange(startParam, endParam string, now time.Time) (time.Time, time.Time, error) {
	start := now.UTC().Add(-DefaultStatsWindow)
	end := now.UTC()

	if startParam != "" {
		t, err := time.Parse(time.RFC3339, startParam)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'start' timestamp format. Use RFC3339 (e.g., 2006-01-02T15:04:05Z)")
		}
		start = t
	}
	if endParam != "" {
		t, err := time.Parse(time.RFC3339, endParam)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'end' timestamp format. Use RFC3339 (e.g., 2006-01-02T15:04:05Z)")
		}
		end = t
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("'end' must not be before 'start'")
	}
	return start, end, nil
}
