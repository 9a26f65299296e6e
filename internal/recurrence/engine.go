package recurrence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hray3182/lifeledger/internal/models"
)

// RuleSource reads the rules the engine should process.
type RuleSource interface {
	ActiveRules(ctx context.Context, userID int64) ([]*models.RecurrenceRule, error)
}

type Store interface {
	RuleSource
	OccurrenceStore
}

type RuleOutcome struct {
	RuleID  uuid.UUID
	Name    string
	Dates   []time.Time
	Created int
	Skipped int
	Stop    StopReason
}

type RuleError struct {
	RuleID uuid.UUID
	Name   string
	Err    error
}

func (e RuleError) Error() string {
	return fmt.Sprintf("rule %s (%s): %v", e.RuleID, e.Name, e.Err)
}

func (e RuleError) Unwrap() error { return e.Err }

// Result aggregates one engine run. Warning is set when the rules could not
// be read at all; the caller proceeds without generated entries this time.
type Result struct {
	RunID     uuid.UUID
	UserID    int64
	Today     time.Time
	Generated int
	Outcomes  []RuleOutcome
	Errors    []RuleError
	Warning   error
}

func (r Result) Failed() bool {
	return r.Warning != nil || len(r.Errors) > 0
}

type Engine struct {
	store     Store
	generator *Generator
	writer    *Writer
	log       zerolog.Logger
}

type Option func(*Engine)

func WithCatchUpLimit(limit int) Option {
	return func(e *Engine) { e.generator = NewGenerator(limit) }
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		generator: NewGenerator(DefaultCatchUpLimit),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.writer = NewWriter(store, e.log)
	return e
}

// Run generates every due occurrence of the user's active rules up to today.
// It never fails as a whole: per-rule failures are collected in the result
// and processing continues with the next rule.
func (e *Engine) Run(ctx context.Context, userID int64, today time.Time) Result {
	today = models.Date(today)
	res := Result{
		RunID:  uuid.New(),
		UserID: userID,
		Today:  today,
	}
	log := e.log.With().
		Str("run_id", res.RunID.String()).
		Int64("user_id", userID).
		Str("today", models.FormatDate(today)).
		Logger()

	rules, err := e.store.ActiveRules(ctx, userID)
	if err != nil {
		res.Warning = fmt.Errorf("failed to fetch recurrence rules: %w", err)
		log.Warn().Err(err).Msg("skipping recurrence generation")
		return res
	}

	for _, rule := range rules {
		outcome, err := e.runRule(ctx, rule, today)
		res.Generated += outcome.Created
		res.Outcomes = append(res.Outcomes, outcome)
		if err != nil {
			res.Errors = append(res.Errors, RuleError{RuleID: rule.ID, Name: rule.Name, Err: err})
			log.Error().Err(err).Str("rule_id", rule.ID.String()).Msg("failed to process recurrence rule")
			continue
		}
		if outcome.Stop == StopLimited {
			log.Warn().
				Str("rule_id", rule.ID.String()).
				Int("generated", len(outcome.Dates)).
				Msg("catch-up limit reached, remaining occurrences deferred to next run")
		}
	}

	log.Info().
		Int("rules", len(rules)).
		Int("generated", res.Generated).
		Int("errors", len(res.Errors)).
		Msg("recurrence run completed")
	return res
}

func (e *Engine) runRule(ctx context.Context, rule *models.RecurrenceRule, today time.Time) (outcome RuleOutcome, err error) {
	outcome = RuleOutcome{RuleID: rule.ID, Name: rule.Name}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing rule: %v", r)
		}
	}()

	plan, err := e.generator.Plan(rule, today)
	if err != nil {
		return outcome, err
	}
	outcome.Stop = plan.Stop

	summary, err := e.writer.Write(ctx, rule, plan.Dates)
	outcome.Created = summary.Created
	outcome.Skipped = summary.Skipped
	outcome.Dates = plan.Dates[:summary.Created+summary.Skipped]
	return outcome, err
}
