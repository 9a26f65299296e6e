package recurrence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hray3182/lifeledger/internal/models"
)

// memStore is an in-memory Store enforcing the (rule, date) uniqueness and
// the monotonic watermark the real stores provide.
type memStore struct {
	mu          sync.Mutex
	rules       map[uuid.UUID]*models.RecurrenceRule
	order       []uuid.UUID
	occurrences map[string]*models.Transaction

	readErr    error
	insertErr  map[uuid.UUID]error
	advanceErr map[uuid.UUID]error
}

func newMemStore(rules ...*models.RecurrenceRule) *memStore {
	s := &memStore{
		rules:       make(map[uuid.UUID]*models.RecurrenceRule),
		occurrences: make(map[string]*models.Transaction),
		insertErr:   make(map[uuid.UUID]error),
		advanceErr:  make(map[uuid.UUID]error),
	}
	for _, r := range rules {
		cp := *r
		s.rules[r.ID] = &cp
		s.order = append(s.order, r.ID)
	}
	return s
}

func occurrenceKey(ruleID uuid.UUID, due time.Time) string {
	return ruleID.String() + "/" + models.FormatDate(due)
}

func (s *memStore) ActiveRules(_ context.Context, userID int64) ([]*models.RecurrenceRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	var out []*models.RecurrenceRule
	for _, id := range s.order {
		r := s.rules[id]
		if r.UserID == userID && r.Active {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) InsertOccurrence(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.RecurrenceID == nil {
		return errors.New("occurrence without rule")
	}
	if err := s.insertErr[*tx.RecurrenceID]; err != nil {
		return err
	}
	key := occurrenceKey(*tx.RecurrenceID, tx.TransactionDate)
	if _, ok := s.occurrences[key]; ok {
		return models.ErrDuplicateOccurrence
	}
	s.occurrences[key] = tx
	return nil
}

func (s *memStore) AdvanceWatermark(_ context.Context, ruleID uuid.UUID, due time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.advanceErr[ruleID]; err != nil {
		return err
	}
	r, ok := s.rules[ruleID]
	if !ok {
		return models.ErrRuleNotFound
	}
	if r.LastGenerated != nil && !r.LastGenerated.Before(due) {
		return nil
	}
	d := due
	r.LastGenerated = &d
	r.GeneratedCount++
	return nil
}

func (s *memStore) rule(id uuid.UUID) models.RecurrenceRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.rules[id]
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.occurrences)
}
