package week

import (
	"fmt"
	"time"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/errors"
)

// IDFormat is the layout of a week identifier, e.g. "2024-03-03".
// A week id is the UTC date of the Sunday the week starts on.
const IDFormat = "2006-01-02"

// FromTimestamp returns the week id containing the given Unix timestamp,
// anchored to the nearest preceding (or same-day) Sunday in UTC.
func FromTimestamp(unix int64) string {
	t := time.Unix(unix, 0).UTC()
	daysSinceSunday := int(t.Weekday())
	sunday := t.AddDate(0, 0, -daysSinceSunday)
	return sunday.Format(IDFormat)
}

// FromTime is FromTimestamp for a time.Time.
func FromTime(t time.Time) string {
	return FromTimestamp(t.Unix())
}

// Current returns the week id for the current wall clock.
func Current() string {
	return FromTime(time.Now())
}

// Validate parses candidate as a week id. It fails when the string is not a
// calendar date or when the date is not a Sunday.
func Validate(candidate string) (string, error) {
	t, err := time.ParseInLocation(IDFormat, candidate, time.UTC)
	if err != nil {
		return "", errors.New(errors.ErrValidation,
			fmt.Sprintf("invalid week date format: %s", candidate), err)
	}
	if t.Weekday() != time.Sunday {
		return "", errors.New(errors.ErrValidation,
			fmt.Sprintf("week date must be a Sunday: %s", candidate), nil)
	}
	return candidate, nil
}
