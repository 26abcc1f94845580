package record

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"phonetrack/internal/sentinel"
	"phonetrack/internal/tracking/models"
	id "phonetrack/pkg/domain"
)

// Error Contract:
// - UpdateOwned returns sentinel.ErrNotFound when no record matches BOTH id and owner
// - List methods return an empty slice, never ErrNotFound
// InMemoryStore keeps records in memory for tests and database-less runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.RecordID]*entry
	seq     uint64
}

// entry remembers insertion order to break createdAt ties deterministically.
type entry struct {
	record models.Record
	seq    uint64
}

func New() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.RecordID]*entry)}
}

func (s *InMemoryStore) Insert(_ context.Context, r *models.Record) error {
	if r == nil {
		return fmt.Errorf("record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[r.ID]; exists {
		return fmt.Errorf("record already exists: %w", sentinel.ErrAlreadyUsed)
	}
	s.seq++
	s.records[r.ID] = &entry{record: clone(r), seq: s.seq}
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID id.UserID) ([]*models.Record, error) {
	return s.filter(func(r *models.Record) bool { return r.OwnerID == ownerID }), nil
}

func (s *InMemoryStore) ListByPhone(_ context.Context, phone string) ([]*models.Record, error) {
	return s.filter(func(r *models.Record) bool { return r.PhoneNumber == phone }), nil
}

// UpdateOwned applies the patch only when the record exists and belongs to ownerID.
func (s *InMemoryStore) UpdateOwned(_ context.Context, recordID id.RecordID, ownerID id.UserID, fields models.UpdateFields) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.records[recordID]
	if !ok || e.record.OwnerID != ownerID {
		return nil, fmt.Errorf("record not found: %w", sentinel.ErrNotFound)
	}
	fields.Apply(&e.record)
	updated := clone(&e.record)
	return &updated, nil
}

// filter returns matches newest first.
func (s *InMemoryStore) filter(match func(*models.Record) bool) []*models.Record {
	s.mu.RLock()
	matched := make([]*entry, 0)
	for _, e := range s.records {
		if match(&e.record) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.record.CreatedAt.Equal(b.record.CreatedAt) {
			return a.record.CreatedAt.After(b.record.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]*models.Record, 0, len(matched))
	for _, e := range matched {
		r := clone(&e.record)
		out = append(out, &r)
	}
	return out
}

func clone(r *models.Record) models.Record {
	c := *r
	if r.PhotoURL != nil {
		url := *r.PhotoURL
		c.PhotoURL = &url
	}
	return c
}
