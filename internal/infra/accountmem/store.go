package accountmem

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/domain"
)

// Store is an in-memory IdentityStore for no-db mode and tests.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.AccountRecord
	now     func() time.Time
}

func New() *Store {
	return NewWithClock(nil)
}

func NewWithClock(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{records: map[string]domain.AccountRecord{}, now: now}
}

func (s *Store) FindByID(ctx context.Context, id string) (domain.AccountRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.AccountRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return domain.AccountRecord{}, domain.ErrNotFound
	}
	return record, nil
}

func (s *Store) Put(record domain.AccountRecord) {
	now := s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[record.ID]; ok && record.CreatedAt.IsZero() {
		record.CreatedAt = existing.CreatedAt
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	s.records[record.ID] = record
}

func (s *Store) SetStatus(id string, status domain.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	record.Status = status
	record.UpdatedAt = s.now().UTC()
	s.records[id] = record
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Seed loads entries of the form "id:status" or "id:status:role" separated
// by commas.
func (s *Store) Seed(seed string) error {
	for _, entry := range strings.Split(seed, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("invalid seed account %q", entry)
		}
		record := domain.AccountRecord{
			ID:     parts[0],
			Status: domain.AccountStatus(parts[1]),
			Role:   domain.RoleUser,
		}
		if len(parts) == 3 {
			role := domain.Role(parts[2])
			if !role.Valid() {
				return fmt.Errorf("invalid seed role %q", parts[2])
			}
			record.Role = role
		}
		s.Put(record)
	}
	return nil
}
