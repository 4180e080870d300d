package timeutil

import (
	"strconv"
	"strings"
	"time"
)

// compactLayout is the provider's token expiry format: YYYYMMDDHHMMSS
const compactLayout = "20060102150405"

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// ParseCompact parses a compact provider timestamp (YYYYMMDDHHMMSS) into UTC.
func ParseCompact(value string) (time.Time, error) {
	t, err := time.Parse(compactLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseEpochSeconds parses a 10-digit epoch-seconds string. Longer values
// (epoch millis) are truncated to their first 10 digits, matching how the
// provider reports trans_end_time.
func ParseEpochSeconds(value string) (time.Time, error) {
	if len(value) > 10 {
		value = value[:10]
	}
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}

// ParseProviderTime parses the free-form trans_time values the provider
// sends. It tries the formats observed in responses in order and returns the
// zero time with ok=false when none match.
func ParseProviderTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	layouts := []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		compactLayout,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}

	if t, err := ParseEpochSeconds(value); err == nil {
		return t, true
	}

	return time.Time{}, false
}

// ToUTC converts a time.Time to UTC if it isn't already
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}
