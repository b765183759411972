package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/vmelnikov/filedrop/internal/common"
	"github.com/vmelnikov/filedrop/internal/dbx"
	"github.com/vmelnikov/filedrop/internal/kvstore/migrations"
)

// SQLiteStore persists entries in a local sqlite database. Capacity is a
// soft limit in bytes over the sum of key+value sizes; 0 disables the limit.
type SQLiteStore struct {
	db       *sql.DB
	capacity int64
}

// OpenSQLite opens (and migrates) the store database at dsn.
func OpenSQLite(ctx context.Context, dsn string, capacity int64) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	return &SQLiteStore{db: db, capacity: capacity}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the handle for callers that need their own queries in tests.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry[%s]: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if s.capacity > 0 {
			// Usage check and write share the transaction so the quota
			// cannot be overrun between them.
			var used, existing int64
			row := tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(LENGTH(key) + LENGTH(value)), 0) FROM entries`)
			if err := row.Scan(&used); err != nil {
				return fmt.Errorf("failed to read store usage: %w", err)
			}
			row = tx.QueryRowContext(ctx, `SELECT COALESCE(LENGTH(key) + LENGTH(value), 0) FROM entries WHERE key = ?`, key)
			if err := row.Scan(&existing); err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("failed to read entry size[%s]: %w", key, err)
			}
			if used-existing+entrySize(key, value) > s.capacity {
				return common.ErrQuotaExceeded
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO entries (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		if err != nil {
			return fmt.Errorf("failed to set entry[%s]: %w", key, err)
		}
		return nil
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete entry[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	// substr comparison instead of LIKE: key prefixes such as "file_"
	// contain LIKE wildcards.
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM entries WHERE substr(key, 1, length(?)) = ? ORDER BY key`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate keys: %w", err)
	}

	return keys, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}
