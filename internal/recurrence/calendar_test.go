package recurrence

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/lifeledger/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClampDay(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		want  time.Time
	}{
		{"fits", 2024, time.March, 31, date(2024, 3, 31)},
		{"thirty day month", 2024, time.April, 31, date(2024, 4, 30)},
		{"leap february", 2024, time.February, 31, date(2024, 2, 29)},
		{"common february", 2023, time.February, 30, date(2023, 2, 28)},
		{"month rolls into next year", 2024, 13, 31, date(2025, 1, 31)},
		{"month 14 clamps in february", 2024, 14, 31, date(2025, 2, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampDay(tt.year, tt.month, tt.day))
		})
	}
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2100, time.February))
	assert.Equal(t, 29, DaysIn(2000, time.February))
	assert.Equal(t, 31, DaysIn(2024, time.December))
}

func TestNextDate(t *testing.T) {
	tests := []struct {
		name   string
		ref    time.Time
		freq   models.Frequency
		dueDay int
		want   time.Time
	}{
		{"daily", date(2024, 1, 31), models.FrequencyDaily, 0, date(2024, 2, 1)},
		{"daily year end", date(2024, 12, 31), models.FrequencyDaily, 0, date(2025, 1, 1)},
		{"weekly", date(2024, 1, 1), models.FrequencyWeekly, 0, date(2024, 1, 8)},
		{"weekly across month", date(2024, 2, 26), models.FrequencyWeekly, 0, date(2024, 3, 4)},
		{"monthly due day", date(2024, 1, 15), models.FrequencyMonthly, 15, date(2024, 2, 15)},
		{"monthly clamps to 30", date(2024, 3, 31), models.FrequencyMonthly, 31, date(2024, 4, 30)},
		{"monthly reverts to 31", date(2024, 4, 30), models.FrequencyMonthly, 31, date(2024, 5, 31)},
		{"monthly clamps february", date(2024, 1, 31), models.FrequencyMonthly, 31, date(2024, 2, 29)},
		{"monthly december", date(2024, 12, 10), models.FrequencyMonthly, 10, date(2025, 1, 10)},
		{"monthly without due day", date(2024, 1, 20), models.FrequencyMonthly, 0, date(2024, 2, 20)},
		{"yearly", date(2024, 6, 1), models.FrequencyYearly, 0, date(2025, 6, 1)},
		{"yearly leap day clamps", date(2024, 2, 29), models.FrequencyYearly, 29, date(2025, 2, 28)},
		{"yearly leap day returns", date(2027, 2, 28), models.FrequencyYearly, 29, date(2028, 2, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextDate(tt.ref, tt.freq, tt.dueDay)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.After(tt.ref))
		})
	}
}

func TestNextDate_UnknownFrequency(t *testing.T) {
	_, err := NextDate(date(2024, 1, 1), "fortnightly", 0)
	assert.ErrorIs(t, err, models.ErrInvalidRule)
}

func TestNextDate_Day31NeverDrifts(t *testing.T) {
	cur := date(2024, 1, 31)
	var got []time.Time
	for i := 0; i < 12; i++ {
		next, err := NextDate(cur, models.FrequencyMonthly, 31)
		require.NoError(t, err)
		got = append(got, next)
		cur = next
	}

	for _, d := range got {
		assert.Equal(t, DaysIn(d.Year(), d.Month()), d.Day(), "expected last day of %s", d.Month())
	}
	assert.Equal(t, date(2024, 2, 29), got[0])
	assert.Equal(t, date(2024, 3, 31), got[1])
	assert.Equal(t, date(2024, 4, 30), got[2])
	assert.Equal(t, date(2024, 5, 31), got[3])
}

// Both zones skip from 00:00 to 01:00 on these days, so the day has no local
// midnight.
var midnightDSTStarts = []struct {
	zone string
	day  time.Time
}{
	{"America/Santiago", date(2024, 9, 8)},
	{"America/Sao_Paulo", date(2018, 11, 4)},
}

func TestNextDate_AcrossMidnightDSTStart(t *testing.T) {
	for _, tt := range midnightDSTStarts {
		t.Run(tt.zone, func(t *testing.T) {
			loc, err := time.LoadLocation(tt.zone)
			require.NoError(t, err)
			before := tt.day.AddDate(0, 0, -1)
			local := time.Date(before.Year(), before.Month(), before.Day(), 0, 0, 0, 0, loc)

			for _, ref := range []time.Time{before, local} {
				daily, err := NextDate(ref, models.FrequencyDaily, 0)
				require.NoError(t, err)
				assert.Equal(t, tt.day, daily)

				weekly, err := NextDate(ref, models.FrequencyWeekly, 0)
				require.NoError(t, err)
				assert.Equal(t, before.AddDate(0, 0, 7), weekly)
				assert.Equal(t, before.Weekday(), weekly.Weekday())
			}

			prevMonth := time.Date(tt.day.Year(), tt.day.Month()-1, tt.day.Day(), 0, 0, 0, 0, loc)
			monthly, err := NextDate(prevMonth, models.FrequencyMonthly, tt.day.Day())
			require.NoError(t, err)
			assert.Equal(t, tt.day, monthly)
			assert.Equal(t, tt.day, ClampDay(tt.day.Year(), tt.day.Month(), tt.day.Day()))
		})
	}
}

func TestNextDate_ReturnsUTCDates(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	ref := time.Date(2024, 1, 15, 0, 0, 0, 0, loc)
	got, err := NextDate(ref, models.FrequencyMonthly, 15)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 15), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestFirstDue(t *testing.T) {
	day := func(d int) *int { return &d }
	tests := []struct {
		name string
		rule models.RecurrenceRule
		want time.Time
	}{
		{
			"monthly before due day",
			models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: day(15), StartDate: date(2024, 1, 10)},
			date(2024, 1, 15),
		},
		{
			"monthly on due day",
			models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: day(15), StartDate: date(2024, 1, 15)},
			date(2024, 1, 15),
		},
		{
			"monthly past due day",
			models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: day(5), StartDate: date(2024, 1, 20)},
			date(2024, 2, 5),
		},
		{
			"monthly past due day clamps",
			models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: day(30), StartDate: date(2024, 1, 31)},
			date(2024, 2, 29),
		},
		{
			"monthly due day beyond short month",
			models.RecurrenceRule{Frequency: models.FrequencyMonthly, DueDay: day(31), StartDate: date(2024, 4, 2)},
			date(2024, 4, 30),
		},
		{
			"monthly without due day",
			models.RecurrenceRule{Frequency: models.FrequencyMonthly, StartDate: date(2024, 1, 20)},
			date(2024, 1, 20),
		},
		{
			"weekly",
			models.RecurrenceRule{Frequency: models.FrequencyWeekly, StartDate: date(2024, 1, 3)},
			date(2024, 1, 3),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstDue(&tt.rule))
		})
	}
}
