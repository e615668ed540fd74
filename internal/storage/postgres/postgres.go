package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/storage"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/lib/pq"
)

type postgresStore struct {
	db     *sql.DB
	prefix string
}

// Open connects to Postgres through an instrumented driver and applies the
// pool settings from cfg.
func Open(cfg *config.Database) (*sql.DB, error) {

	db, err := otelsql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := utils.WithDBTimeout(context.Background())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func NewStore(db *sql.DB, prefix string) storage.Store {
	return &postgresStore{db: db, prefix: prefix}
}

// EnsureSchema creates the key-value table when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		CREATE TABLE IF NOT EXISTS storefront_kv (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`

	if _, err := db.ExecContext(dbCtx, query); err != nil {
		return fmt.Errorf("failed to create storefront_kv table: %w", err)
	}

	return nil
}

func (r *postgresStore) Get(ctx context.Context, key string, value any) (bool, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	key = storage.Key(r.prefix, key)

	query := `SELECT value FROM storefront_kv WHERE key = $1`

	var data []byte

	err := r.db.QueryRowContext(dbCtx, query, key).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("failed to unmarshal stored data for key %s: %w", key, err)
	}

	return true, nil
}

func (r *postgresStore) Set(ctx context.Context, key string, value any) error {

	key = storage.Key(r.prefix, key)

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO storefront_kv (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := r.db.ExecContext(dbCtx, query, key, data); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	return nil
}

func (r *postgresStore) Delete(ctx context.Context, keys ...string) error {

	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = storage.Key(r.prefix, key)
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `DELETE FROM storefront_kv WHERE key = ANY($1)`

	if _, err := r.db.ExecContext(dbCtx, query, pq.Array(prefixed)); err != nil {
		return fmt.Errorf("failed to delete keys %v: %w", prefixed, err)
	}

	return nil
}

func (r *postgresStore) Close() error {
	return r.db.Close()
}
