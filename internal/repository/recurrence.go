package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hray3182/lifeledger/internal/database"
	"github.com/hray3182/lifeledger/internal/models"
)

type RecurrenceRepository struct {
	db *database.DB
}

func NewRecurrenceRepository(db *database.DB) *RecurrenceRepository {
	return &RecurrenceRepository{db: db}
}

const recurrenceColumns = `id, user_id, name, amount::text, type, category, frequency, due_day, start_date, end_date,
	max_occurrences, generated_count, last_generated, active, created_at`

func (r *RecurrenceRepository) Create(ctx context.Context, rule *models.RecurrenceRule) error {
	return insertRule(ctx, r.db.Pool, rule)
}

// CreateAll inserts rules in one transaction.
func (r *RecurrenceRepository) CreateAll(ctx context.Context, rules []*models.RecurrenceRule) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rule := range rules {
		if err := insertRule(ctx, tx, rule); err != nil {
			return fmt.Errorf("rule %q: %w", rule.Name, err)
		}
	}
	return tx.Commit(ctx)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertRule(ctx context.Context, q rowQuerier, rule *models.RecurrenceRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	return q.QueryRow(ctx,
		`INSERT INTO recurrence (id, user_id, name, amount, type, category, frequency, due_day, start_date,
		 end_date, max_occurrences, generated_count, last_generated, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING created_at`,
		rule.ID, rule.UserID, rule.Name, rule.Amount.String(), rule.Type, rule.Category, rule.Frequency,
		rule.DueDay, rule.StartDate, rule.EndDate, rule.MaxOccurrences, rule.GeneratedCount,
		rule.LastGenerated, rule.Active,
	).Scan(&rule.CreatedAt)
}

func (r *RecurrenceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RecurrenceRule, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+recurrenceColumns+` FROM recurrence WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules, err := r.scanRules(rows)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, models.ErrRuleNotFound
	}
	return rules[0], nil
}

func (r *RecurrenceRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.RecurrenceRule, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+recurrenceColumns+` FROM recurrence WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanRules(rows)
}

func (r *RecurrenceRepository) GetActive(ctx context.Context, userID int64) ([]*models.RecurrenceRule, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+recurrenceColumns+` FROM recurrence WHERE user_id = $1 AND active ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanRules(rows)
}

func (r *RecurrenceRepository) SetActive(ctx context.Context, id uuid.UUID, userID int64, active bool) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE recurrence SET active = $1 WHERE id = $2 AND user_id = $3`,
		active, id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrRuleNotFound
	}
	return nil
}

// AdvanceWatermark moves last_generated forward to due and counts the
// occurrence. An older or equal due date leaves the row untouched.
func (r *RecurrenceRepository) AdvanceWatermark(ctx context.Context, id uuid.UUID, due time.Time) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE recurrence SET last_generated = $2, generated_count = generated_count + 1
		 WHERE id = $1 AND (last_generated IS NULL OR last_generated < $2)`,
		id, due,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM recurrence WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return models.ErrRuleNotFound
	}
	return nil
}

func (r *RecurrenceRepository) scanRules(rows pgx.Rows) ([]*models.RecurrenceRule, error) {
	var rules []*models.RecurrenceRule
	for rows.Next() {
		rule := &models.RecurrenceRule{}
		var amount string
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.Name, &amount, &rule.Type, &rule.Category,
			&rule.Frequency, &rule.DueDay, &rule.StartDate, &rule.EndDate, &rule.MaxOccurrences,
			&rule.GeneratedCount, &rule.LastGenerated, &rule.Active, &rule.CreatedAt); err != nil {
			return nil, err
		}
		var err error
		if rule.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
