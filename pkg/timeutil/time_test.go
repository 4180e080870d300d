package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompact(t *testing.T) {
	got, err := ParseCompact("20250810143000")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 10, 14, 30, 0, 0, time.UTC), got)

	_, err = ParseCompact("not-a-time")
	assert.Error(t, err)
}

func TestParseEpochSeconds(t *testing.T) {
	got, err := ParseEpochSeconds("1700000000")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), got)

	// epoch millis are truncated to seconds
	got, err = ParseEpochSeconds("1700000000123")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), got)

	_, err = ParseEpochSeconds("abc")
	assert.Error(t, err)
}

func TestParseProviderTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"datetime", "2025-08-10 14:30:00", time.Date(2025, 8, 10, 14, 30, 0, 0, time.UTC), true},
		{"rfc3339", "2025-08-10T14:30:00Z", time.Date(2025, 8, 10, 14, 30, 0, 0, time.UTC), true},
		{"compact", "20250810143000", time.Date(2025, 8, 10, 14, 30, 0, 0, time.UTC), true},
		{"epoch seconds", "1700000000", time.Unix(1700000000, 0).UTC(), true},
		{"whitespace trimmed", "  1700000000 ", time.Unix(1700000000, 0).UTC(), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "soon", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseProviderTime(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
