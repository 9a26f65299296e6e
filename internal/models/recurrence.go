package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// RecurrenceRule is a recurring bill or income owned by a user.
type RecurrenceRule struct {
	ID             uuid.UUID       `json:"id"`
	UserID         int64           `json:"user_id"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	Type           TransactionType `json:"type"`
	Category       string          `json:"category"`
	Frequency      Frequency       `json:"frequency"`
	DueDay         *int            `json:"due_day"` // monthly only
	StartDate      time.Time       `json:"start_date"`
	EndDate        *time.Time      `json:"end_date"`
	MaxOccurrences *int            `json:"max_occurrences"`
	GeneratedCount int             `json:"generated_count"`
	LastGenerated  *time.Time      `json:"last_generated"` // watermark
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Validate checks the fields the engine relies on.
func (r *RecurrenceRule) Validate() error {
	if !r.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRule, r.Frequency)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRule, r.Type)
	}
	if r.DueDay != nil && r.Frequency != FrequencyMonthly {
		return fmt.Errorf("%w: due day only applies to monthly rules", ErrInvalidRule)
	}
	if r.DueDay != nil && (*r.DueDay < 1 || *r.DueDay > 31) {
		return fmt.Errorf("%w: due day %d out of range", ErrInvalidRule, *r.DueDay)
	}
	if r.MaxOccurrences != nil && *r.MaxOccurrences < 1 {
		return fmt.Errorf("%w: occurrence limit must be positive", ErrInvalidRule)
	}
	if r.StartDate.IsZero() {
		return fmt.Errorf("%w: missing start date", ErrInvalidRule)
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidRule)
	}
	return nil
}

// Exhausted reports whether the occurrence limit has been reached.
func (r *RecurrenceRule) Exhausted() bool {
	return r.MaxOccurrences != nil && r.GeneratedCount >= *r.MaxOccurrences
}
