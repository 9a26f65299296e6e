// Package ledger selects the persistence backend for rules and generated
// transactions.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hray3182/lifeledger/internal/config"
	"github.com/hray3182/lifeledger/internal/database"
	"github.com/hray3182/lifeledger/internal/models"
	"github.com/hray3182/lifeledger/internal/repository"
	"github.com/hray3182/lifeledger/internal/sqlite"
)

// Store is implemented by both the SQLite and the PostgreSQL backends.
type Store interface {
	EnsureUser(ctx context.Context, userID int64, userName string) error
	CreateRule(ctx context.Context, rule *models.RecurrenceRule) error
	CreateRules(ctx context.Context, rules []*models.RecurrenceRule) error
	GetRule(ctx context.Context, id uuid.UUID) (*models.RecurrenceRule, error)
	ListRules(ctx context.Context, userID int64) ([]*models.RecurrenceRule, error)
	ActiveRules(ctx context.Context, userID int64) ([]*models.RecurrenceRule, error)
	SetActive(ctx context.Context, id uuid.UUID, userID int64, active bool) error
	InsertOccurrence(ctx context.Context, tx *models.Transaction) error
	AdvanceWatermark(ctx context.Context, ruleID uuid.UUID, due time.Time) error
	ListOccurrences(ctx context.Context, ruleID uuid.UUID) ([]*models.Transaction, error)
	ListEntries(ctx context.Context, userID int64, from, to time.Time) ([]*models.Transaction, error)
	Close() error
}

var (
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*repository.Store)(nil)
)

// Open connects to the backend named by cfg.StoreDriver. The PostgreSQL
// backend is migrated before it is returned; SQLite applies its schema on open.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("path", cfg.SQLitePath).Msg("opened sqlite store")
		return s, nil
	case config.DriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseURI, log)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Debug().Msg("connected to postgres store")
		return repository.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
