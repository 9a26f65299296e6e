// Package sqlite is a single-file store for recurrence rules and their
// generated occurrences, used for local runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/hray3182/lifeledger/internal/models"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) EnsureUser(ctx context.Context, userID int64, userName string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, user_name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET user_name = excluded.user_name`,
		userID, userName, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

const ruleColumns = `id, user_id, name, amount, type, category, frequency, due_day, start_date, end_date,
	max_occurrences, generated_count, last_generated, active, created_at`

func (s *Store) CreateRule(ctx context.Context, rule *models.RecurrenceRule) error {
	return insertRule(ctx, s.db, rule)
}

// CreateRules stores all of rules or, on error, none of them.
func (s *Store) CreateRules(ctx context.Context, rules []*models.RecurrenceRule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rule := range rules {
		if err := insertRule(ctx, tx, rule); err != nil {
			return fmt.Errorf("rule %q: %w", rule.Name, err)
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRule(ctx context.Context, db execer, rule *models.RecurrenceRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO recurrences (`+ruleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID.String(), rule.UserID, rule.Name, rule.Amount.String(), string(rule.Type), rule.Category,
		string(rule.Frequency), nullInt(rule.DueDay), models.FormatDate(rule.StartDate), nullDate(rule.EndDate),
		nullInt(rule.MaxOccurrences), rule.GeneratedCount, nullDate(rule.LastGenerated), rule.Active,
		rule.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}

func (s *Store) GetRule(ctx context.Context, id uuid.UUID) (*models.RecurrenceRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM recurrences WHERE id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules, err := scanRules(rows)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, models.ErrRuleNotFound
	}
	return rules[0], nil
}

func (s *Store) ListRules(ctx context.Context, userID int64) ([]*models.RecurrenceRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM recurrences WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRules(rows)
}

func (s *Store) ActiveRules(ctx context.Context, userID int64) ([]*models.RecurrenceRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM recurrences WHERE user_id = ? AND active = 1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRules(rows)
}

func (s *Store) SetActive(ctx context.Context, id uuid.UUID, userID int64, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recurrences SET active = ? WHERE id = ? AND user_id = ?`, active, id.String(), userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrRuleNotFound
	}
	return nil
}

// InsertOccurrence stores a generated entry. A second entry for the same
// rule and date is rejected with models.ErrDuplicateOccurrence.
func (s *Store) InsertOccurrence(ctx context.Context, tx *models.Transaction) error {
	if tx.TransactionID == uuid.Nil {
		tx.TransactionID = uuid.New()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	var recurrenceID any
	if tx.RecurrenceID != nil {
		recurrenceID = tx.RecurrenceID.String()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (transaction_id, user_id, recurrence_id, type, amount, description, category,
		 transaction_date, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		tx.TransactionID.String(), tx.UserID, recurrenceID, string(tx.Type), tx.Amount.String(), tx.Description,
		tx.Category, models.FormatDate(tx.TransactionDate), string(tx.Status), tx.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrDuplicateOccurrence
	}
	return nil
}

// AdvanceWatermark moves last_generated forward to due. An older due date is
// a no-op, so concurrent runs cannot move the watermark backwards.
func (s *Store) AdvanceWatermark(ctx context.Context, ruleID uuid.UUID, due time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recurrences SET last_generated = ?, generated_count = generated_count + 1
		 WHERE id = ? AND (last_generated IS NULL OR last_generated < ?)`,
		models.FormatDate(due), ruleID.String(), models.FormatDate(due),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM recurrences WHERE id = ?)`, ruleID.String(),
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return models.ErrRuleNotFound
	}
	return nil
}

const transactionColumns = `transaction_id, user_id, recurrence_id, type, amount, description, category,
	transaction_date, status, created_at`

func (s *Store) ListOccurrences(ctx context.Context, ruleID uuid.UUID) ([]*models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions WHERE recurrence_id = ? ORDER BY transaction_date`,
		ruleID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListEntries returns the user's entries dated from through to, inclusive,
// in date order.
func (s *Store) ListEntries(ctx context.Context, userID int64, from, to time.Time) ([]*models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions WHERE user_id = ? AND transaction_date BETWEEN ? AND ?
		 ORDER BY transaction_date, description`,
		userID, models.FormatDate(from), models.FormatDate(to),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for rows.Next() {
		var (
			tx                          models.Transaction
			id, amount, date, createdAt string
			recurrenceID                sql.NullString
			txType, status              string
		)
		if err := rows.Scan(&id, &tx.UserID, &recurrenceID, &txType, &amount, &tx.Description, &tx.Category,
			&date, &status, &createdAt); err != nil {
			return nil, err
		}
		var err error
		if tx.TransactionID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if recurrenceID.Valid {
			rid, err := uuid.Parse(recurrenceID.String)
			if err != nil {
				return nil, err
			}
			tx.RecurrenceID = &rid
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
		}
		if tx.TransactionDate, err = models.ParseDate(date); err != nil {
			return nil, err
		}
		tx.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		tx.Type = models.TransactionType(txType)
		tx.Status = models.TransactionStatus(status)
		out = append(out, &tx)
	}
	return out, rows.Err()
}

func scanRules(rows *sql.Rows) ([]*models.RecurrenceRule, error) {
	var rules []*models.RecurrenceRule
	for rows.Next() {
		var (
			rule                              models.RecurrenceRule
			id, amount, ruleType, freq, start string
			createdAt                         string
			dueDay, maxOccurrences            sql.NullInt64
			endDate, lastGenerated            sql.NullString
		)
		if err := rows.Scan(&id, &rule.UserID, &rule.Name, &amount, &ruleType, &rule.Category, &freq, &dueDay,
			&start, &endDate, &maxOccurrences, &rule.GeneratedCount, &lastGenerated, &rule.Active, &createdAt); err != nil {
			return nil, err
		}

		var err error
		if rule.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if rule.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
		}
		if rule.StartDate, err = models.ParseDate(start); err != nil {
			return nil, err
		}
		if rule.EndDate, err = parseNullDate(endDate); err != nil {
			return nil, err
		}
		if rule.LastGenerated, err = parseNullDate(lastGenerated); err != nil {
			return nil, err
		}
		rule.Type = models.TransactionType(ruleType)
		rule.Frequency = models.Frequency(freq)
		rule.DueDay = intFromNull(dueDay)
		rule.MaxOccurrences = intFromNull(maxOccurrences)
		rule.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		rules = append(rules, &rule)
	}
	return rules, rows.Err()
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return models.FormatDate(*t)
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func parseNullDate(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := models.ParseDate(v.String)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", v.String, err)
	}
	return &t, nil
}
