package recurrence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hray3182/lifeledger/internal/models"
)

// OccurrenceStore persists generated occurrences and rule watermarks.
//
// InsertOccurrence must return models.ErrDuplicateOccurrence when an entry for
// the same rule and date already exists. AdvanceWatermark must never move a
// watermark backwards.
type OccurrenceStore interface {
	InsertOccurrence(ctx context.Context, tx *models.Transaction) error
	AdvanceWatermark(ctx context.Context, ruleID uuid.UUID, due time.Time) error
}

type WriteSummary struct {
	Created   int
	Skipped   int
	Watermark *time.Time
}

type Writer struct {
	store OccurrenceStore
	log   zerolog.Logger
}

func NewWriter(store OccurrenceStore, log zerolog.Logger) *Writer {
	return &Writer{store: store, log: log}
}

// Write materializes each due date in order: insert the occurrence, then
// advance the rule's watermark to it. On error the watermark stays at the
// last date that was durably advanced, so the next run retries from there.
func (w *Writer) Write(ctx context.Context, rule *models.RecurrenceRule, dates []time.Time) (WriteSummary, error) {
	summary := WriteSummary{Watermark: rule.LastGenerated}

	for _, due := range dates {
		tx := models.NewOccurrence(rule, due)
		err := w.store.InsertOccurrence(ctx, tx)
		switch {
		case errors.Is(err, models.ErrDuplicateOccurrence):
			summary.Skipped++
			w.log.Debug().
				Str("rule_id", rule.ID.String()).
				Str("date", models.FormatDate(due)).
				Msg("occurrence already generated, advancing watermark")
		case err != nil:
			return summary, fmt.Errorf("failed to insert occurrence for %s: %w", models.FormatDate(due), err)
		default:
			summary.Created++
		}

		if err := w.store.AdvanceWatermark(ctx, rule.ID, due); err != nil {
			return summary, fmt.Errorf("failed to advance watermark to %s: %w", models.FormatDate(due), err)
		}

		d := due
		rule.LastGenerated = &d
		rule.GeneratedCount++
		summary.Watermark = &d
	}

	return summary, nil
}
