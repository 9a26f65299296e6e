package models

import "errors"

var (
	// ErrDuplicateOccurrence is returned by stores when an occurrence for the
	// same (rule, due date) pair already exists.
	ErrDuplicateOccurrence = errors.New("occurrence already generated")
	ErrRuleNotFound        = errors.New("recurrence rule not found")
	ErrInvalidRule         = errors.New("invalid recurrence rule")
)
