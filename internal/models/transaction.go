package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

type TransactionStatus string

const (
	// StatusPending marks an entry materialized from a recurrence rule.
	StatusPending TransactionStatus = "pending"
	// StatusCompleted marks an entry the user recorded directly.
	StatusCompleted TransactionStatus = "completed"
)

type Transaction struct {
	TransactionID   uuid.UUID         `json:"transaction_id"`
	UserID          int64             `json:"user_id"`
	RecurrenceID    *uuid.UUID        `json:"recurrence_id"`
	Type            TransactionType   `json:"type"`
	Amount          decimal.Decimal   `json:"amount"`
	Description     string            `json:"description"`
	Category        string            `json:"category"`
	TransactionDate time.Time         `json:"transaction_date"`
	Status          TransactionStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

// NewOccurrence builds the pending ledger entry for one due date of a rule.
func NewOccurrence(rule *RecurrenceRule, due time.Time) *Transaction {
	ruleID := rule.ID
	return &Transaction{
		TransactionID:   uuid.New(),
		UserID:          rule.UserID,
		RecurrenceID:    &ruleID,
		Type:            rule.Type,
		Amount:          rule.Amount,
		Description:     rule.Name,
		Category:        rule.Category,
		TransactionDate: due,
		Status:          StatusPending,
	}
}
