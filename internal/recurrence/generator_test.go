package recurrence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/lifeledger/internal/models"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func monthlyRule(dueDay int, start time.Time) *models.RecurrenceRule {
	return &models.RecurrenceRule{
		ID:        uuid.New(),
		UserID:    42,
		Name:      "Rent",
		Amount:    decimal.RequireFromString("1200.00"),
		Type:      models.TransactionTypeExpense,
		Category:  "Housing",
		Frequency: models.FrequencyMonthly,
		DueDay:    intPtr(dueDay),
		StartDate: start,
		Active:    true,
	}
}

func dailyRule(start time.Time) *models.RecurrenceRule {
	return &models.RecurrenceRule{
		ID:        uuid.New(),
		UserID:    42,
		Name:      "Coffee",
		Amount:    decimal.RequireFromString("4.50"),
		Type:      models.TransactionTypeExpense,
		Category:  "Food",
		Frequency: models.FrequencyDaily,
		StartDate: start,
		Active:    true,
	}
}

func TestPlan_FirstGenerationAlignsToDueDay(t *testing.T) {
	rule := monthlyRule(15, date(2024, 1, 10))

	plan, err := NewGenerator(0).Plan(rule, date(2024, 1, 20))
	require.NoError(t, err)

	assert.Equal(t, []time.Time{date(2024, 1, 15)}, plan.Dates)
	assert.Equal(t, date(2024, 2, 15), plan.Next)
	assert.Equal(t, StopCaughtUp, plan.Stop)
}

func TestPlan_ResumesFromWatermark(t *testing.T) {
	rule := monthlyRule(15, date(2024, 1, 10))
	rule.LastGenerated = timePtr(date(2024, 1, 15))

	plan, err := NewGenerator(0).Plan(rule, date(2024, 4, 1))
	require.NoError(t, err)

	assert.Equal(t, []time.Time{date(2024, 2, 15), date(2024, 3, 15)}, plan.Dates)
	assert.Equal(t, date(2024, 4, 15), plan.Next)
}

func TestPlan_WeeklyIncludesToday(t *testing.T) {
	rule := dailyRule(date(2023, 12, 25))
	rule.Frequency = models.FrequencyWeekly
	rule.LastGenerated = timePtr(date(2024, 1, 1))

	plan, err := NewGenerator(0).Plan(rule, date(2024, 1, 22))
	require.NoError(t, err)

	assert.Equal(t, []time.Time{date(2024, 1, 8), date(2024, 1, 15), date(2024, 1, 22)}, plan.Dates)
}

func TestPlan_CatchUpBound(t *testing.T) {
	rule := dailyRule(date(2021, 1, 1))
	today := date(2024, 1, 1)

	plan, err := NewGenerator(DefaultCatchUpLimit).Plan(rule, today)
	require.NoError(t, err)

	require.Len(t, plan.Dates, 12)
	assert.Equal(t, date(2021, 1, 1), plan.Dates[0])
	assert.Equal(t, date(2021, 1, 12), plan.Dates[11])
	assert.Equal(t, StopLimited, plan.Stop)
	assert.Equal(t, date(2021, 1, 13), plan.Next)

	// The next run continues from the advanced watermark.
	rule.LastGenerated = timePtr(plan.Dates[11])
	plan, err = NewGenerator(DefaultCatchUpLimit).Plan(rule, today)
	require.NoError(t, err)
	require.Len(t, plan.Dates, 12)
	assert.Equal(t, date(2021, 1, 13), plan.Dates[0])
}

func TestPlan_ConfigurableLimit(t *testing.T) {
	rule := dailyRule(date(2024, 1, 1))

	plan, err := NewGenerator(3).Plan(rule, date(2024, 2, 1))
	require.NoError(t, err)
	assert.Len(t, plan.Dates, 3)
	assert.Equal(t, StopLimited, plan.Stop)
}

func TestPlan_EndDateBeforeNextCandidate(t *testing.T) {
	rule := monthlyRule(15, date(2024, 1, 1))
	rule.LastGenerated = timePtr(date(2024, 3, 15))
	rule.EndDate = timePtr(date(2024, 4, 10))

	plan, err := NewGenerator(0).Plan(rule, date(2024, 6, 1))
	require.NoError(t, err)

	assert.Empty(t, plan.Dates)
	assert.Equal(t, StopLapsed, plan.Stop)
	assert.Equal(t, date(2024, 3, 15), *rule.LastGenerated)
}

func TestPlan_EndDateStopsMidCatchUp(t *testing.T) {
	rule := dailyRule(date(2024, 1, 1))
	rule.EndDate = timePtr(date(2024, 1, 3))

	plan, err := NewGenerator(0).Plan(rule, date(2024, 1, 10))
	require.NoError(t, err)

	assert.Equal(t, []time.Time{date(2024, 1, 1), date(2024, 1, 2), date(2024, 1, 3)}, plan.Dates)
	assert.Equal(t, StopLapsed, plan.Stop)
}

func TestPlan_OccurrenceLimit(t *testing.T) {
	rule := dailyRule(date(2024, 1, 1))
	rule.MaxOccurrences = intPtr(5)
	rule.GeneratedCount = 3
	rule.LastGenerated = timePtr(date(2024, 1, 3))

	plan, err := NewGenerator(0).Plan(rule, date(2024, 1, 31))
	require.NoError(t, err)

	assert.Equal(t, []time.Time{date(2024, 1, 4), date(2024, 1, 5)}, plan.Dates)
	assert.Equal(t, StopExhausted, plan.Stop)
}

func TestPlan_FutureStart(t *testing.T) {
	rule := monthlyRule(1, date(2024, 6, 1))

	plan, err := NewGenerator(0).Plan(rule, date(2024, 5, 20))
	require.NoError(t, err)
	assert.Empty(t, plan.Dates)
	assert.Equal(t, StopCaughtUp, plan.Stop)
	assert.Equal(t, date(2024, 6, 1), plan.Next)
}

func TestPlan_WatermarkBeforeMovedStart(t *testing.T) {
	rule := monthlyRule(10, date(2024, 5, 1))
	rule.LastGenerated = timePtr(date(2024, 1, 10))

	plan, err := NewGenerator(0).Plan(rule, date(2024, 6, 15))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2024, 5, 10), date(2024, 6, 10)}, plan.Dates)
}

func TestPlan_Inactive(t *testing.T) {
	rule := dailyRule(date(2024, 1, 1))
	rule.Active = false

	plan, err := NewGenerator(0).Plan(rule, date(2024, 1, 10))
	require.NoError(t, err)
	assert.Empty(t, plan.Dates)
	assert.Equal(t, StopInactive, plan.Stop)
}

func TestPlan_InvalidRule(t *testing.T) {
	rule := dailyRule(date(2024, 1, 1))
	rule.Frequency = "hourly"

	_, err := NewGenerator(0).Plan(rule, date(2024, 1, 10))
	assert.ErrorIs(t, err, models.ErrInvalidRule)
}

func TestPlan_NormalizesTodayTimeOfDay(t *testing.T) {
	rule := monthlyRule(15, date(2024, 1, 10))

	plan, err := NewGenerator(0).Plan(rule, time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2024, 1, 15)}, plan.Dates)
}

func TestPlan_Day31Rule(t *testing.T) {
	rule := monthlyRule(31, date(2024, 1, 1))

	plan, err := NewGenerator(0).Plan(rule, date(2024, 6, 30))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		date(2024, 1, 31),
		date(2024, 2, 29),
		date(2024, 3, 31),
		date(2024, 4, 30),
		date(2024, 5, 31),
		date(2024, 6, 30),
	}, plan.Dates)
}

func TestPlan_MidnightDSTStart(t *testing.T) {
	saoPaulo, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	santiago, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)

	t.Run("daily keeps advancing", func(t *testing.T) {
		rule := dailyRule(time.Date(2018, 11, 1, 0, 0, 0, 0, saoPaulo))
		today := models.Today(time.Date(2018, 11, 20, 15, 0, 0, 0, time.UTC), saoPaulo)

		plan, err := NewGenerator(0).Plan(rule, today)
		require.NoError(t, err)

		require.Len(t, plan.Dates, 12)
		for i, d := range plan.Dates {
			assert.Equal(t, date(2018, 11, 1+i), d)
		}
		assert.Equal(t, date(2018, 11, 13), plan.Next)
		assert.Equal(t, StopLimited, plan.Stop)
	})

	t.Run("weekly keeps its weekday", func(t *testing.T) {
		rule := dailyRule(date(2024, 9, 1))
		rule.Frequency = models.FrequencyWeekly

		plan, err := NewGenerator(0).Plan(rule, models.Today(time.Date(2024, 9, 21, 15, 0, 0, 0, time.UTC), santiago))
		require.NoError(t, err)

		assert.Equal(t, []time.Time{date(2024, 9, 1), date(2024, 9, 8), date(2024, 9, 15)}, plan.Dates)
		for _, d := range plan.Dates {
			assert.Equal(t, time.Sunday, d.Weekday())
		}
	})

	t.Run("due day on the transition", func(t *testing.T) {
		rule := monthlyRule(8, date(2024, 8, 1))

		plan, err := NewGenerator(0).Plan(rule, models.Today(time.Date(2024, 9, 8, 12, 0, 0, 0, time.UTC), santiago))
		require.NoError(t, err)

		require.Len(t, plan.Dates, 2)
		assert.Equal(t, "2024-09-08", models.FormatDate(plan.Dates[1]))
	})
}
