package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/hray3182/lifeledger/internal/models"
	"github.com/hray3182/lifeledger/internal/recurrence"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRunMessage_LimitAndErrors(t *testing.T) {
	res := recurrence.Result{
		Generated: 12,
		Outcomes: []recurrence.RuleOutcome{
			{Name: "Gym", Created: 12, Dates: []time.Time{day(2024, 1, 1)}, Stop: recurrence.StopLimited},
			{Name: "Broken"},
		},
		Errors: []recurrence.RuleError{{RuleID: uuid.New(), Name: "Broken", Err: errors.New("boom")}},
	}

	text := runMessage(res).Text
	assert.Contains(t, text, "12 recurring entries added")
	assert.Contains(t, text, "• Gym: 2024-01-01")
	assert.Contains(t, text, "Gym has more past dates")
	assert.Contains(t, text, "Broken could not be processed")
	assert.NotContains(t, text, "• Broken")
}

func TestStartMessage_DefaultsName(t *testing.T) {
	assert.Contains(t, startMessage("", recurrence.Result{}).Text, "Hi there!")
}

func TestRulesMessage_Status(t *testing.T) {
	end := day(2024, 1, 3)
	finished := &models.RecurrenceRule{
		Name: "Trial", Amount: decimal.NewFromInt(1), Type: models.TransactionTypeExpense,
		Frequency: models.FrequencyDaily, StartDate: day(2024, 1, 1), EndDate: &end, Active: true,
	}
	paused := &models.RecurrenceRule{
		Name: "Gym", Amount: decimal.NewFromInt(30), Type: models.TransactionTypeExpense, Category: "Health",
		Frequency: models.FrequencyWeekly, StartDate: day(2024, 1, 1), Active: false,
	}

	res := rulesMessage([]*models.RecurrenceRule{finished, paused}, day(2024, 2, 1))
	assert.Contains(t, res.Text, "1. Trial · expense 1.00")
	assert.Contains(t, res.Text, "🏁 finished")
	assert.Contains(t, res.Text, "2. Gym · expense 30.00 · Health")
	assert.Contains(t, res.Text, "every Monday")
	assert.Contains(t, res.Text, "⏸ paused")
	assert.NotEmpty(t, res.Entities)
}

func TestCommitmentsMessage(t *testing.T) {
	c := recurrence.Commitments{
		Income:  decimal.RequireFromString("5000"),
		Expense: decimal.RequireFromString("1652"),
		Net:     decimal.RequireFromString("3348"),
	}
	text := commitmentsMessage(c).Text
	assert.Contains(t, text, "💰 Income: 5000.00")
	assert.Contains(t, text, "💸 Expense: 1652.00")
	assert.Contains(t, text, "📈 Net: 3348.00")
}

func TestUpcomingMessage_Empty(t *testing.T) {
	assert.Equal(t, "Nothing is coming up.", upcomingMessage(nil).Text)
}
