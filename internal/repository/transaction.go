package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/hray3182/lifeledger/internal/database"
	"github.com/hray3182/lifeledger/internal/models"
)

const uniqueViolation = "23505"

type TransactionRepository struct {
	db *database.DB
}

func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Insert stores tx. A second row for the same recurrence and date violates
// idx_transaction_recurrence_date and is reported as
// models.ErrDuplicateOccurrence.
func (r *TransactionRepository) Insert(ctx context.Context, tx *models.Transaction) error {
	if tx.TransactionID == uuid.Nil {
		tx.TransactionID = uuid.New()
	}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO transaction (transaction_id, user_id, recurrence_id, type, amount, description, category,
		 transaction_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		tx.TransactionID, tx.UserID, tx.RecurrenceID, tx.Type, tx.Amount.String(), tx.Description, tx.Category,
		tx.TransactionDate, tx.Status,
	).Scan(&tx.CreatedAt)
	return mapInsertError(err)
}

func (r *TransactionRepository) GetByRecurrence(ctx context.Context, recurrenceID uuid.UUID) ([]*models.Transaction, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+transactionColumns+`
		 FROM transaction WHERE recurrence_id = $1
		 ORDER BY transaction_date`,
		recurrenceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

func (r *TransactionRepository) GetByDateRange(ctx context.Context, userID int64, start, end time.Time) ([]*models.Transaction, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+transactionColumns+`
		 FROM transaction WHERE user_id = $1 AND transaction_date BETWEEN $2 AND $3
		 ORDER BY transaction_date, description`,
		userID, models.Date(start), models.Date(end),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

const transactionColumns = `transaction_id, user_id, recurrence_id, type, amount::text, description, category,
	transaction_date, status, created_at`

func (r *TransactionRepository) scanTransactions(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	for rows.Next() {
		tx := &models.Transaction{}
		var amount string
		if err := rows.Scan(&tx.TransactionID, &tx.UserID, &tx.RecurrenceID, &tx.Type, &amount,
			&tx.Description, &tx.Category, &tx.TransactionDate, &tx.Status, &tx.CreatedAt); err != nil {
			return nil, err
		}
		var err error
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func mapInsertError(err error) error {
	if isUniqueViolation(err) {
		return models.ErrDuplicateOccurrence
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
