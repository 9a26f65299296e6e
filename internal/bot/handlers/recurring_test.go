package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/lifeledger/internal/models"
)

func TestParseAddRecurring(t *testing.T) {
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	rule, err := parseAddRecurring("expense 1200.50 monthly:31 2024-01-01 Flat rent", today)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeExpense, rule.Type)
	assert.Equal(t, "1200.5", rule.Amount.String())
	assert.Equal(t, models.FrequencyMonthly, rule.Frequency)
	require.NotNil(t, rule.DueDay)
	assert.Equal(t, 31, *rule.DueDay)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rule.StartDate)
	assert.Equal(t, "Flat rent", rule.Name)
	assert.True(t, rule.Active)

	rule, err = parseAddRecurring("INCOME 20 Weekly today Pocket money", today)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeIncome, rule.Type)
	assert.Equal(t, models.FrequencyWeekly, rule.Frequency)
	assert.Nil(t, rule.DueDay)
	assert.Equal(t, today, rule.StartDate)
}

func TestParseAddRecurring_Errors(t *testing.T) {
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		args string
		want string
	}{
		{"expense 10 daily today", "not enough arguments"},
		{"gift 10 daily today Cake", "type must be expense or income"},
		{"expense -3 daily today Cake", "invalid amount"},
		{"expense 10 hourly today Cake", "frequency must be"},
		{"expense 10 weekly:3 today Cake", "only applies to monthly"},
		{"expense 10 monthly:0 today Cake", "due day must be between 1 and 31"},
		{"expense 10 monthly:x today Cake", "due day must be between 1 and 31"},
		{"expense 10 daily 10/03/2024 Cake", "start must be YYYY-MM-DD or today"},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			_, err := parseAddRecurring(tt.args, today)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
