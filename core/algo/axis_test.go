package algo

import (
	"testing"
	"time"

	"github.com/huangsam/repopulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestBuildAxis tests axis generation for every granularity.
func TestBuildAxis(t *testing.T) {
	tests := []struct {
		name     string
		earliest time.Time
		latest   time.Time
		g        schema.Granularity
		expected []time.Time
	}{
		{
			name:     "daily inclusive",
			earliest: day(2024, 1, 1),
			latest:   day(2024, 1, 3),
			g:        schema.Daily,
			expected: []time.Time{day(2024, 1, 1), day(2024, 1, 2), day(2024, 1, 3)},
		},
		{
			name:     "daily latest not on step",
			earliest: day(2024, 1, 1),
			latest:   day(2024, 1, 2).Add(-time.Hour),
			g:        schema.Daily,
			expected: []time.Time{day(2024, 1, 1)},
		},
		{
			name:     "monthly keeps month end anchor",
			earliest: day(2024, 1, 31),
			latest:   day(2024, 4, 30),
			g:        schema.Monthly,
			expected: []time.Time{day(2024, 1, 31), day(2024, 2, 29), day(2024, 3, 31), day(2024, 4, 30)},
		},
		{
			name:     "yearly from leap day",
			earliest: day(2020, 2, 29),
			latest:   day(2023, 3, 1),
			g:        schema.Yearly,
			expected: []time.Time{day(2020, 2, 29), day(2021, 2, 28), day(2022, 2, 28), day(2023, 3, 1)},
		},
		{
			name:     "monthly appends latest in a new month",
			earliest: day(2024, 1, 15),
			latest:   day(2024, 4, 10),
			g:        schema.Monthly,
			expected: []time.Time{day(2024, 1, 15), day(2024, 2, 15), day(2024, 3, 15), day(2024, 4, 10)},
		},
		{
			name:     "monthly latest replaces step of its month",
			earliest: day(2024, 1, 15),
			latest:   day(2024, 4, 20),
			g:        schema.Monthly,
			expected: []time.Time{day(2024, 1, 15), day(2024, 2, 15), day(2024, 3, 15), day(2024, 4, 20)},
		},
		{
			name:     "daily ends on latest",
			earliest: day(2024, 1, 1),
			latest:   day(2024, 1, 3).Add(12 * time.Hour),
			g:        schema.Daily,
			expected: []time.Time{day(2024, 1, 1), day(2024, 1, 2), day(2024, 1, 3).Add(12 * time.Hour)},
		},
		{
			name:     "single point",
			earliest: day(2024, 6, 15),
			latest:   day(2024, 6, 15),
			g:        schema.Monthly,
			expected: []time.Time{day(2024, 6, 15)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			axis, err := BuildAxis(tt.earliest, tt.latest, tt.g)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, axis)
		})
	}
}

// TestBuildAxisRejectsBadInput tests the defensive error paths.
func TestBuildAxisRejectsBadInput(t *testing.T) {
	_, err := BuildAxis(day(2024, 2, 1), day(2024, 1, 1), schema.Daily)
	assert.ErrorIs(t, err, ErrInvalidAxis)

	_, err = BuildAxis(day(2024, 1, 1), day(2024, 2, 1), schema.Granularity("W"))
	assert.ErrorIs(t, err, ErrInvalidAxis)
}

// TestBuildAxisConvertsToUTC tests that points are expressed in UTC.
func TestBuildAxisConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	start := time.Date(2024, 1, 1, 2, 0, 0, 0, loc)

	axis, err := BuildAxis(start, start.AddDate(0, 0, 1), schema.Daily)
	require.NoError(t, err)
	require.Len(t, axis, 2)
	assert.Equal(t, time.UTC, axis[0].Location())
	assert.True(t, axis[0].Equal(day(2024, 1, 1)))
}

// TestSubMonths tests calendar month subtraction with month-end clamping.
func TestSubMonths(t *testing.T) {
	tests := []struct {
		name     string
		from     time.Time
		months   int
		expected time.Time
	}{
		{"leap year clamp", day(2024, 3, 31), 1, day(2024, 2, 29)},
		{"non leap clamp", day(2023, 3, 31), 1, day(2023, 2, 28)},
		{"crosses year", day(2024, 1, 15), 13, day(2022, 12, 15)},
		{"exact year", day(2024, 1, 1), 12, day(2023, 1, 1)},
		{"quarter clamp", day(2024, 5, 31), 3, day(2024, 2, 29)},
		{"zero", day(2024, 5, 31), 0, day(2024, 5, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SubMonths(tt.from, tt.months))
		})
	}
}

// TestSubDays tests plain day subtraction.
func TestSubDays(t *testing.T) {
	assert.Equal(t, day(2024, 2, 28), SubDays(day(2024, 3, 1), 2))
	assert.Equal(t, day(2023, 12, 31), SubDays(day(2024, 1, 1), 1))
}

// TestAddMonthsKeepsClock tests that the time of day survives the shift.
func TestAddMonthsKeepsClock(t *testing.T) {
	from := time.Date(2024, 1, 31, 13, 45, 10, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 13, 45, 10, 0, time.UTC), AddMonths(from, 1))
}
