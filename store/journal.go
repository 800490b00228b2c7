package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/faultline"
	bsoncodec "github.com/zoobzio/faultline/bson"
	jsoncodec "github.com/zoobzio/faultline/json"
	msgpackcodec "github.com/zoobzio/faultline/msgpack"
	yamlcodec "github.com/zoobzio/faultline/yaml"
)

// timeLayout is fixed-width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	// ErrNotFound is returned when no entry has the requested id.
	ErrNotFound = errors.New("entry not found")

	// ErrNilError is returned when Record is given a nil error.
	ErrNilError = errors.New("cannot record a nil error")

	// ErrUnknownContentType is returned when an entry was encoded with a
	// codec the journal cannot build.
	ErrUnknownContentType = errors.New("unknown content type")
)

var codecs = []func() faultline.Codec{jsoncodec.New, yamlcodec.New, msgpackcodec.New, bsoncodec.New}

func codecFor(contentType string) (faultline.Codec, bool) {
	for _, build := range codecs {
		if c := build(); c.ContentType() == contentType {
			return c, true
		}
	}
	return nil, false
}

// Entry is one recorded error.
type Entry struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	Fingerprint string    `json:"fingerprint"`
	ContentType string    `json:"content_type"`
	Payload     []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`

	proc *faultline.Processor
}

// Err rebuilds the recorded error. Payloads written with a codec other than
// the journal's current one are decoded with the codec they were written
// with, resolving kinds against the journal's registry.
func (e *Entry) Err(ctx context.Context) (faultline.Instance, error) {
	if e.proc == nil {
		return nil, errors.New("entry is not attached to a journal")
	}
	proc := e.proc
	if e.ContentType != "" && e.ContentType != proc.ContentType() {
		c, ok := codecFor(e.ContentType)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownContentType, e.ContentType)
		}
		var err error
		proc, err = faultline.NewProcessor(c, faultline.WithProcessorRegistry(e.proc.Registry()))
		if err != nil {
			return nil, fmt.Errorf("build %s processor: %w", e.ContentType, err)
		}
	}
	return proc.Load(ctx, e.Payload)
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Kind        string
	Fingerprint string
	Limit       int
}

// Record serializes err and appends it to the journal.
func (db *DB) Record(ctx context.Context, err error) (*Entry, error) {
	if err == nil {
		return nil, ErrNilError
	}

	payload, perr := db.proc.Store(ctx, err)
	if perr != nil {
		return nil, fmt.Errorf("encode error: %w", perr)
	}
	fp, ferr := faultline.FingerprintWith(err, db.hasher)
	if ferr != nil {
		return nil, fmt.Errorf("fingerprint error: %w", ferr)
	}

	e := &Entry{
		ID:          uuid.New().String(),
		Kind:        faultline.KindOf(err),
		Message:     messageOf(err),
		Fingerprint: fp,
		ContentType: db.proc.ContentType(),
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
		proc:        db.proc,
	}

	_, xerr := db.ExecContext(ctx, `
		INSERT INTO errors (id, kind, message, fingerprint, content_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.Message, e.Fingerprint, e.ContentType, e.Payload, e.CreatedAt.Format(timeLayout))
	if xerr != nil {
		return nil, fmt.Errorf("insert entry: %w", xerr)
	}
	return e, nil
}

// Get returns the entry with the given id.
func (db *DB) Get(ctx context.Context, id string) (*Entry, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, kind, message, fingerprint, content_type, payload, created_at
		FROM errors WHERE id = ?`, id)
	e, err := db.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// List returns matching entries, newest first.
func (db *DB) List(ctx context.Context, f Filter) ([]*Entry, error) {
	var (
		conds []string
		args  []any
	)
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Fingerprint != "" {
		conds = append(conds, "fingerprint = ?")
		args = append(args, f.Fingerprint)
	}

	query := "SELECT id, kind, message, fingerprint, content_type, payload, created_at FROM errors"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := db.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns how many entries share fingerprint.
func (db *DB) Count(ctx context.Context, fingerprint string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM errors WHERE fingerprint = ?", fingerprint).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Delete removes the entry with the given id.
func (db *DB) Delete(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM errors WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (db *DB) scan(s scanner) (*Entry, error) {
	var (
		e       Entry
		created string
	)
	if err := s.Scan(&e.ID, &e.Kind, &e.Message, &e.Fingerprint, &e.ContentType, &e.Payload, &created); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	e.CreatedAt = t
	e.proc = db.proc
	return &e, nil
}

func messageOf(err error) string {
	if el, ok := err.(faultline.ErrorLike); ok {
		return el.Message()
	}
	return err.Error()
}
