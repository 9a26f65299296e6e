package recurrence

import (
	"time"

	"github.com/hray3182/lifeledger/internal/models"
)

// DefaultCatchUpLimit bounds how many occurrences one rule may generate in a
// single run. A rule further behind resumes on the next run.
const DefaultCatchUpLimit = 12

type StopReason string

const (
	StopCaughtUp  StopReason = "caught_up"
	StopLimited   StopReason = "catch_up_limit"
	StopLapsed    StopReason = "lapsed"
	StopExhausted StopReason = "exhausted"
	StopInactive  StopReason = "inactive"
)

// Plan is the outcome of catch-up planning for one rule.
type Plan struct {
	Dates []time.Time
	// Next is the first candidate that was not emitted.
	Next time.Time
	Stop StopReason
}

type Generator struct {
	Limit int
}

func NewGenerator(limit int) *Generator {
	if limit <= 0 {
		limit = DefaultCatchUpLimit
	}
	return &Generator{Limit: limit}
}

// Plan computes the due dates of rule that are on or before today and have
// not been generated yet, in chronological order.
func (g *Generator) Plan(rule *models.RecurrenceRule, today time.Time) (Plan, error) {
	if err := rule.Validate(); err != nil {
		return Plan{}, err
	}
	today = models.Date(today)

	candidate, err := seed(rule)
	if err != nil {
		return Plan{}, err
	}
	if !rule.Active {
		return Plan{Next: candidate, Stop: StopInactive}, nil
	}

	var end *time.Time
	if rule.EndDate != nil {
		e := models.Date(*rule.EndDate)
		end = &e
	}

	limit := g.Limit
	if limit <= 0 {
		limit = DefaultCatchUpLimit
	}
	anchor := AnchorDay(rule)

	plan := Plan{Stop: StopCaughtUp}
	for !candidate.After(today) {
		if end != nil && candidate.After(*end) {
			plan.Stop = StopLapsed
			break
		}
		if rule.MaxOccurrences != nil && rule.GeneratedCount+len(plan.Dates) >= *rule.MaxOccurrences {
			plan.Stop = StopExhausted
			break
		}
		if len(plan.Dates) >= limit {
			plan.Stop = StopLimited
			break
		}
		plan.Dates = append(plan.Dates, candidate)
		if candidate, err = NextDate(candidate, rule.Frequency, anchor); err != nil {
			return Plan{}, err
		}
	}
	plan.Next = candidate
	return plan, nil
}

func seed(rule *models.RecurrenceRule) (time.Time, error) {
	first := FirstDue(rule)
	if rule.LastGenerated == nil {
		return first, nil
	}
	next, err := NextDate(*rule.LastGenerated, rule.Frequency, AnchorDay(rule))
	if err != nil {
		return time.Time{}, err
	}
	// The start date was moved past the watermark by a later edit.
	if next.Before(first) {
		return first, nil
	}
	return next, nil
}
