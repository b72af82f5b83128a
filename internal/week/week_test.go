package week

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "sunday maps to itself",
			in:   time.Date(2024, 3, 3, 10, 30, 0, 0, time.UTC),
			want: "2024-03-03",
		},
		{
			name: "monday maps back to preceding sunday",
			in:   time.Date(2024, 3, 4, 0, 0, 1, 0, time.UTC),
			want: "2024-03-03",
		},
		{
			name: "saturday maps back six days",
			in:   time.Date(2024, 3, 9, 23, 59, 59, 0, time.UTC),
			want: "2024-03-03",
		},
		{
			name: "sunday midnight starts a new week",
			in:   time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			want: "2024-03-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromTimestamp(tt.in.Unix()))
		})
	}
}

func TestFromTimestampAlwaysSunday(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 60; day++ {
		id := FromTime(start.AddDate(0, 0, day))
		parsed, err := time.Parse(IDFormat, id)
		require.NoError(t, err)
		assert.Equal(t, time.Sunday, parsed.Weekday(), "week id %s", id)
	}
}

func TestValidate(t *testing.T) {
	id, err := Validate("2024-03-03")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-03", id)

	_, err = Validate("2024-03-04")
	assert.Error(t, err, "monday must be rejected")

	_, err = Validate("not-a-date")
	assert.Error(t, err)

	_, err = Validate("2024-13-40")
	assert.Error(t, err)
}
