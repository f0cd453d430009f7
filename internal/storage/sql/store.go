package sql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/accessops/access-console/internal/domain"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return true
	}
	return false
}

// wrapUniqueError converts UNIQUE violations to domain.ErrAlreadyExists.
func wrapUniqueError(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Store implements the storage.Storage interface using SQL.
type Store struct {
	db     *sqlx.DB
	driver string
}

// New creates a new SQL store.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Run migrations
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ============================================
// API Keys
// ============================================

func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, created_at, last_used_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.CreatedAt, key.LastUsedAt)
	return wrapUniqueError(err)
}

func (s *Store) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	var key domain.APIKey
	err := s.db.GetContext(ctx, &key,
		`SELECT id, name, key_hash, key_prefix, created_at, last_used_at FROM api_keys WHERE key_hash = $1`, keyHash)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &key, err
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	var keys []*domain.APIKey
	err := s.db.SelectContext(ctx, &keys,
		`SELECT id, name, key_hash, key_prefix, created_at, last_used_at FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}

func (s *Store) CountAPIKeys(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM api_keys`)
	return count, err
}

// ============================================
// Preferences
// ============================================

func (s *Store) GetPreference(ctx context.Context, userEmail string) (*domain.UserPreference, error) {
	var pref domain.UserPreference
	err := s.db.GetContext(ctx, &pref,
		`SELECT user_email, theme, updated_at FROM user_preferences WHERE user_email = $1`, userEmail)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &pref, err
}

func (s *Store) UpsertPreference(ctx context.Context, pref *domain.UserPreference) error {
	pref.UpdatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_preferences (user_email, theme, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_email) DO UPDATE SET theme = $2, updated_at = $3`,
		pref.UserEmail, pref.Theme, pref.UpdatedAt)
	return err
}

// ============================================
// Renewal audit log
// ============================================

func (s *Store) CreateRenewalRecord(ctx context.Context, record *domain.RenewalRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO renewal_records (id, actor_email, kind, reason, batch_count, failed_count, renewed_rows, expired_rows, override_used, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, record.ActorEmail, record.Kind, record.Reason, record.BatchCount,
		record.FailedCount, record.RenewedRows, record.ExpiredRows, record.OverrideUsed, record.CreatedAt)
	return wrapUniqueError(err)
}

func (s *Store) ListRenewalRecords(ctx context.Context, limit, offset int) ([]*domain.RenewalRecord, error) {
	var records []*domain.RenewalRecord
	err := s.db.SelectContext(ctx, &records,
		`SELECT id, actor_email, kind, reason, batch_count, failed_count, renewed_rows, expired_rows, override_used, created_at
		 FROM renewal_records ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) CountRenewalRecords(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM renewal_records`)
	return count, err
}
