// Package ruleset reads recurrence rules from YAML files.
//
// A file holds a list of rules under the "rules" key:
//
//	user_id: 42
//	rules:
//	  - name: Rent
//	    amount: "1200.00"
//	    type: expense
//	    category: Housing
//	    frequency: monthly
//	    due_day: 31
//	    start_date: 2024-01-01
//
// A top-level user_id applies to every rule that does not set its own.
//
// Instead of frequency, due_day, end_date and max_occurrences a rule may give
// its schedule as an RRULE line:
//
//	  - name: Gym
//	    amount: "30"
//	    type: expense
//	    start_date: 2024-01-01
//	    rrule: FREQ=MONTHLY;BYMONTHDAY=-1;COUNT=12
package ruleset

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/hray3182/lifeledger/internal/models"
	"github.com/hray3182/lifeledger/internal/rrule"
)

type File struct {
	UserID int64  `yaml:"user_id,omitempty"`
	Rules  []Rule `yaml:"rules"`
}

type Rule struct {
	Name           string `yaml:"name"`
	UserID         int64  `yaml:"user_id,omitempty"`
	Amount         string `yaml:"amount"`
	Type           string `yaml:"type"`
	Category       string `yaml:"category,omitempty"`
	Frequency      string `yaml:"frequency,omitempty"`
	DueDay         *int   `yaml:"due_day,omitempty"`
	StartDate      string `yaml:"start_date"`
	EndDate        string `yaml:"end_date,omitempty"`
	MaxOccurrences *int   `yaml:"max_occurrences,omitempty"`
	Active         *bool  `yaml:"active,omitempty"`
	RRule          string `yaml:"rrule,omitempty"`
}

// Load reads and converts the rules in the file at path.
func Load(path string) ([]*models.RecurrenceRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a rule file. Unknown keys are rejected so a typo does not
// silently drop a field.
func Parse(r io.Reader) ([]*models.RecurrenceRule, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	rules := make([]*models.RecurrenceRule, 0, len(file.Rules))
	for i, raw := range file.Rules {
		if raw.UserID == 0 {
			raw.UserID = file.UserID
		}
		rule, err := raw.toModel()
		if err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i+1, raw.Name, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r Rule) toModel() (*models.RecurrenceRule, error) {
	if r.Name == "" {
		return nil, fmt.Errorf("%w: missing name", models.ErrInvalidRule)
	}
	if r.UserID == 0 {
		return nil, fmt.Errorf("%w: missing user_id", models.ErrInvalidRule)
	}

	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid amount %q", models.ErrInvalidRule, r.Amount)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", models.ErrInvalidRule)
	}

	start, err := models.ParseDate(r.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start_date %q", models.ErrInvalidRule, r.StartDate)
	}

	rule := &models.RecurrenceRule{
		UserID:         r.UserID,
		Name:           r.Name,
		Amount:         amount,
		Type:           models.TransactionType(r.Type),
		Category:       r.Category,
		Frequency:      models.Frequency(r.Frequency),
		DueDay:         r.DueDay,
		StartDate:      start,
		MaxOccurrences: r.MaxOccurrences,
		Active:         r.Active == nil || *r.Active,
	}
	if r.EndDate != "" {
		end, err := models.ParseDate(r.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid end_date %q", models.ErrInvalidRule, r.EndDate)
		}
		rule.EndDate = &end
	}

	if r.RRule != "" {
		if r.Frequency != "" || r.DueDay != nil || r.EndDate != "" || r.MaxOccurrences != nil {
			return nil, fmt.Errorf("%w: rrule replaces frequency, due_day, end_date and max_occurrences", models.ErrInvalidRule)
		}
		if err := rrule.Apply(rule, r.RRule); err != nil {
			return nil, err
		}
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}
