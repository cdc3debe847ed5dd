package models

import (
	"errors"
	"time"
)

var travelDateLayouts = []string{
	"20060102",
	"2006-01-02",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05Z07:00",
}

var errTravelDateFormat = errors.New("travel date not in a documented format")

// ParseTravelDate reads a flight date in one of the documented formats.
// Properties never fail validation on dates; this is only a reporting aid.
func ParseTravelDate(s string) (time.Time, error) {
	for _, layout := range travelDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errTravelDateFormat
}
