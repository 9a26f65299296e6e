package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hray3182/lifeledger/internal/database"
	"github.com/hray3182/lifeledger/internal/models"
)

// Store exposes the PostgreSQL repositories behind the ledger store methods
// used by the engine, the CLI and the bot.
type Store struct {
	db           *database.DB
	Users        *UserRepository
	Recurrences  *RecurrenceRepository
	Transactions *TransactionRepository
}

func NewStore(db *database.DB) *Store {
	return &Store{
		db:           db,
		Users:        NewUserRepository(db),
		Recurrences:  NewRecurrenceRepository(db),
		Transactions: NewTransactionRepository(db),
	}
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func (s *Store) EnsureUser(ctx context.Context, userID int64, userName string) error {
	_, err := s.Users.GetOrCreate(ctx, userID, userName)
	return err
}

func (s *Store) CreateRule(ctx context.Context, rule *models.RecurrenceRule) error {
	return s.Recurrences.Create(ctx, rule)
}

func (s *Store) CreateRules(ctx context.Context, rules []*models.RecurrenceRule) error {
	return s.Recurrences.CreateAll(ctx, rules)
}

func (s *Store) GetRule(ctx context.Context, id uuid.UUID) (*models.RecurrenceRule, error) {
	return s.Recurrences.GetByID(ctx, id)
}

func (s *Store) ListRules(ctx context.Context, userID int64) ([]*models.RecurrenceRule, error) {
	return s.Recurrences.GetByUserID(ctx, userID)
}

func (s *Store) ActiveRules(ctx context.Context, userID int64) ([]*models.RecurrenceRule, error) {
	return s.Recurrences.GetActive(ctx, userID)
}

func (s *Store) SetActive(ctx context.Context, id uuid.UUID, userID int64, active bool) error {
	return s.Recurrences.SetActive(ctx, id, userID, active)
}

func (s *Store) InsertOccurrence(ctx context.Context, tx *models.Transaction) error {
	return s.Transactions.Insert(ctx, tx)
}

func (s *Store) AdvanceWatermark(ctx context.Context, ruleID uuid.UUID, due time.Time) error {
	return s.Recurrences.AdvanceWatermark(ctx, ruleID, due)
}

func (s *Store) ListOccurrences(ctx context.Context, ruleID uuid.UUID) ([]*models.Transaction, error) {
	return s.Transactions.GetByRecurrence(ctx, ruleID)
}

func (s *Store) ListEntries(ctx context.Context, userID int64, from, to time.Time) ([]*models.Transaction, error) {
	return s.Transactions.GetByDateRange(ctx, userID, from, to)
}
