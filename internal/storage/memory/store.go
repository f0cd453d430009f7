// Package memory provides an in-memory storage implementation, used in tests
// and for running the console without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/accessops/access-console/internal/domain"
)

// Store implements the storage.Storage interface in memory.
type Store struct {
	mu          sync.RWMutex
	apiKeys     map[string]*domain.APIKey
	preferences map[string]*domain.UserPreference
	renewals    []*domain.RenewalRecord
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		apiKeys:     make(map[string]*domain.APIKey),
		preferences: make(map[string]*domain.UserPreference),
	}
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.apiKeys {
		if existing.KeyHash == key.KeyHash {
			return domain.ErrAlreadyExists
		}
	}
	k := *key
	s.apiKeys[key.ID] = &k
	return nil
}

func (s *Store) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range s.apiKeys {
		if key.KeyHash == keyHash {
			k := *key
			return &k, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]*domain.APIKey, 0, len(s.apiKeys))
	for _, key := range s.apiKeys {
		k := *key
		keys = append(keys, &k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apiKeys[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.apiKeys, id)
	return nil
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.apiKeys[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	key.LastUsedAt = &now
	return nil
}

func (s *Store) CountAPIKeys(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apiKeys), nil
}

func (s *Store) GetPreference(ctx context.Context, userEmail string) (*domain.UserPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pref, ok := s.preferences[userEmail]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p := *pref
	return &p, nil
}

func (s *Store) UpsertPreference(ctx context.Context, pref *domain.UserPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pref.UpdatedAt = time.Now()
	p := *pref
	s.preferences[pref.UserEmail] = &p
	return nil
}

func (s *Store) CreateRenewalRecord(ctx context.Context, record *domain.RenewalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.renewals {
		if existing.ID == record.ID {
			return domain.ErrAlreadyExists
		}
	}
	r := *record
	s.renewals = append(s.renewals, &r)
	return nil
}

func (s *Store) ListRenewalRecords(ctx context.Context, limit, offset int) ([]*domain.RenewalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*domain.RenewalRecord, len(s.renewals))
	for i, record := range s.renewals {
		r := *record
		records[i] = &r
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if offset >= len(records) {
		return nil, nil
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records, nil
}

func (s *Store) CountRenewalRecords(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.renewals), nil
}
