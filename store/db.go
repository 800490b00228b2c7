// Package store keeps a journal of serialized errors in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zoobzio/faultline"
	jsoncodec "github.com/zoobzio/faultline/json"
	"github.com/zoobzio/faultline/store/migrations"
	_ "modernc.org/sqlite"
)

// DB is an error journal backed by a SQLite file.
type DB struct {
	*sql.DB
	path   string
	proc   *faultline.Processor
	hasher faultline.Hasher
}

// Option configures a DB.
type Option func(*DB)

// WithProcessor encodes payloads with p instead of the shared JSON processor.
func WithProcessor(p *faultline.Processor) Option {
	return func(db *DB) {
		if p != nil {
			db.proc = p
		}
	}
}

// WithHasher fingerprints errors with h. The default is BLAKE2b.
func WithHasher(h faultline.Hasher) Option {
	return func(db *DB) {
		if h != nil {
			db.hasher = h
		}
	}
}

// Open opens the journal at path, creating the file and schema if needed.
func Open(path string, opts ...Option) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	if err := migrations.Run(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db := &DB{
		DB:     sqlDB,
		path:   path,
		proc:   faultline.Use(jsoncodec.New()),
		hasher: faultline.BLAKE2bHasher(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// ContentType reports the encoding of recorded payloads.
func (db *DB) ContentType() string {
	return db.proc.ContentType()
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
