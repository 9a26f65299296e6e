package recurrence

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hray3182/lifeledger/internal/models"
)

// Upcoming returns the next n due dates strictly after after, without
// writing anything. Dates already covered by the watermark are skipped and the
// rule's end date and occurrence limit are honored.
func Upcoming(rule *models.RecurrenceRule, after time.Time, n int) ([]time.Time, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if !rule.Active || n <= 0 {
		return nil, nil
	}
	after = models.Date(after)

	candidate, err := seed(rule)
	if err != nil {
		return nil, err
	}
	anchor := AnchorDay(rule)
	count := rule.GeneratedCount

	var dates []time.Time
	for len(dates) < n {
		if rule.EndDate != nil && candidate.After(models.Date(*rule.EndDate)) {
			break
		}
		if rule.MaxOccurrences != nil && count >= *rule.MaxOccurrences {
			break
		}
		if candidate.After(after) {
			dates = append(dates, candidate)
		}
		count++
		if candidate, err = NextDate(candidate, rule.Frequency, anchor); err != nil {
			return nil, err
		}
	}
	return dates, nil
}

// Due is one upcoming occurrence of a rule.
type Due struct {
	Rule *models.RecurrenceRule
	Date time.Time
}

// Schedule merges the upcoming dates of rules into one list ordered by date
// and returns the first n. Rules that fail validation are left out.
func Schedule(rules []*models.RecurrenceRule, after time.Time, n int) []Due {
	var out []Due
	for _, rule := range rules {
		dates, err := Upcoming(rule, after, n)
		if err != nil {
			continue
		}
		for _, d := range dates {
			out = append(out, Due{Rule: rule, Date: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Rule.Name < out[j].Rule.Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

var (
	weeksPerMonth = decimal.NewFromInt(52).Div(decimal.NewFromInt(12))
	daysPerMonth  = decimal.NewFromInt(30)
	monthsPerYear = decimal.NewFromInt(12)
)

// Commitments is the monthly-equivalent total of a set of rules.
type Commitments struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// MonthlyAmount normalizes a rule's amount to one month.
func MonthlyAmount(rule *models.RecurrenceRule) decimal.Decimal {
	switch rule.Frequency {
	case models.FrequencyDaily:
		return rule.Amount.Mul(daysPerMonth)
	case models.FrequencyWeekly:
		return rule.Amount.Mul(weeksPerMonth).Round(2)
	case models.FrequencyYearly:
		return rule.Amount.Div(monthsPerYear).Round(2)
	}
	return rule.Amount
}

// Totals sums the monthly commitments of the active rules.
func Totals(rules []*models.RecurrenceRule) Commitments {
	var c Commitments
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		amount := MonthlyAmount(rule)
		switch rule.Type {
		case models.TransactionTypeIncome:
			c.Income = c.Income.Add(amount)
		case models.TransactionTypeExpense:
			c.Expense = c.Expense.Add(amount)
		}
	}
	c.Net = c.Income.Sub(c.Expense)
	return c
}
