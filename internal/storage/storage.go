package storage

import (
	"context"

	"github.com/accessops/access-console/internal/domain"
)

// Storage defines the interface for the console's local storage layer: API
// keys, per-user preferences, and the renewal audit log. Catalog data is never
// stored here; it lives in the governance backend.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Close closes the storage connection.
	Close() error

	// API Keys
	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error)
	DeleteAPIKey(ctx context.Context, id string) error
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
	CountAPIKeys(ctx context.Context) (int, error)

	// Preferences
	GetPreference(ctx context.Context, userEmail string) (*domain.UserPreference, error)
	UpsertPreference(ctx context.Context, pref *domain.UserPreference) error

	// Renewal audit log
	CreateRenewalRecord(ctx context.Context, record *domain.RenewalRecord) error
	ListRenewalRecords(ctx context.Context, limit, offset int) ([]*domain.RenewalRecord, error)
	CountRenewalRecords(ctx context.Context) (int, error)
}
