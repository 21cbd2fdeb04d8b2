package dbtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in       string
		wantMins int
	}{
		{"09:00", 540},
		{"9", 540},
		{"17", 1020},
		{"10:15:30", 615},
		{" 13:45 ", 825},
		{"9:30", 570},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.wantMins, got.Minutes(), tc.in)
	}
}

func TestParseClockRejects(t *testing.T) {
	for _, in := range []string{"", "noon", "25", "10:99", "-1"} {
		_, err := ParseClock(in)
		assert.Error(t, err, in)
	}
}

func TestTodOn(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, loc)
	tod, err := ParseClock("09:00")
	require.NoError(t, err)

	at := tod.On(day)
	assert.Equal(t, time.Date(2024, 3, 11, 9, 0, 0, 0, loc), at)
}

func TestParseDateTime(t *testing.T) {
	loc := time.UTC
	got, err := ParseDateTime("2024-03-11T09:05", loc)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Hour())

	got, err = ParseDateTime("2024-03-11", loc)
	require.NoError(t, err)
	assert.True(t, SameDay(got, time.Date(2024, 3, 11, 23, 0, 0, 0, loc)))

	_, err = ParseDateTime("11/03/2024", loc)
	assert.Error(t, err)
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(2024, time.December, time.UTC)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestDayInKeepsCalendarDay(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	fromDB := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	got := DayIn(fromDB, ny)
	assert.Equal(t, 11, got.Day())
	assert.Equal(t, ny, got.Location())
}
