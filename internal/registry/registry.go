// Package registry persists the set of previously-ingested works, keyed by
// canonical ISBN.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/isbn"
)

// Entry statuses. Tentative rows are written at dedup_check and either
// finalized at completed or dropped on terminal failure.
const (
	StatusTentative  = "tentative"
	StatusCompleted  = "completed"
	StatusSuperseded = "superseded"
)

// Entry is one previously-ingested work.
type Entry struct {
	ISBN            string
	Title           string
	Author          string
	FirstIngestedAt time.Time
	LastSessionID   string
	Sections        int
	Words           int
	Status          string
}

// lockTimeout bounds per-ISBN mutex acquisition before yielding
// store_unreachable.
const lockTimeout = 5 * time.Second

// Registry serializes operations per canonical ISBN and persists entries in
// an embedded sqlite database.
type Registry struct {
	db     *sql.DB
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]chan struct{}
}

// Open opens or creates the registry database at path.
func Open(path string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := openDB(path)
	if err != nil {
		return nil, common.NewAppError(common.CodeStoreUnreachable, "registry", err)
	}
	return &Registry{db: db, logger: logger, locks: make(map[string]chan struct{})}, nil
}

// Close releases the database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Acquire takes the per-ISBN mutex, canonicalizing first. The returned
// release function is idempotent. Acquisition gives up after five seconds
// with store_unreachable.
func (r *Registry) Acquire(rawISBN string) (release func(), err error) {
	canonical, err := isbn.Canonicalize(rawISBN)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	ch, ok := r.locks[canonical]
	if !ok {
		ch = make(chan struct{}, 1)
		r.locks[canonical] = ch
	}
	r.mu.Unlock()

	select {
	case ch <- struct{}{}:
	case <-time.After(lockTimeout):
		return nil, common.Errorf(common.CodeStoreUnreachable, "isbn %s lock timeout", canonical)
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}

// Lookup returns the entry for an ISBN, or nil when the work is unknown.
func (r *Registry) Lookup(ctx context.Context, rawISBN string) (*Entry, error) {
	canonical, err := isbn.Canonicalize(rawISBN)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT isbn, title, author, first_ingested_at, last_session_id, sections, words, status
		FROM ingested_works WHERE isbn = ?`, canonical)

	var e Entry
	var ingestedAt int64
	err = row.Scan(&e.ISBN, &e.Title, &e.Author, &ingestedAt, &e.LastSessionID, &e.Sections, &e.Words, &e.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewAppError(common.CodeStoreUnreachable, "registry lookup", err)
	}
	e.FirstIngestedAt = time.Unix(ingestedAt, 0).UTC()
	return &e, nil
}

// PutTentative records an in-flight ingest. Fails if the work already has
// any entry.
func (r *Registry) PutTentative(ctx context.Context, e Entry) error {
	canonical, err := isbn.Canonicalize(e.ISBN)
	if err != nil {
		return err
	}
	if e.FirstIngestedAt.IsZero() {
		e.FirstIngestedAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ingested_works (isbn, title, author, first_ingested_at, last_session_id, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		canonical, e.Title, e.Author, e.FirstIngestedAt.Unix(), e.LastSessionID, StatusTentative)
	if err != nil {
		return common.NewAppError(common.CodeStoreConflict, "registry put", err)
	}
	r.logger.Debug("registry.tentative", "isbn", canonical, "session", e.LastSessionID)
	return nil
}

// Finalize marks a tentative entry completed and records the counts.
func (r *Registry) Finalize(ctx context.Context, rawISBN string, sections, words int) error {
	canonical, err := isbn.Canonicalize(rawISBN)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE ingested_works SET sections = ?, words = ?, status = ?
		WHERE isbn = ?`, sections, words, StatusCompleted, canonical)
	if err != nil {
		return common.NewAppError(common.CodeStoreUnreachable, "registry finalize", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.Errorf(common.CodeStoreConflict, "no tentative entry for %s", canonical)
	}
	r.logger.Info("registry.finalized", "isbn", canonical, "sections", sections, "words", words)
	return nil
}

// DropTentative rolls back an in-flight entry. Completed entries are left
// untouched.
func (r *Registry) DropTentative(ctx context.Context, rawISBN string) error {
	canonical, err := isbn.Canonicalize(rawISBN)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		DELETE FROM ingested_works WHERE isbn = ? AND status = ?`, canonical, StatusTentative)
	if err != nil {
		return common.NewAppError(common.CodeStoreUnreachable, "registry drop", err)
	}
	return nil
}

// Recent returns the most recently ingested works, newest first.
func (r *Registry) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT isbn, title, author, first_ingested_at, last_session_id, sections, words, status
		FROM ingested_works ORDER BY first_ingested_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, common.NewAppError(common.CodeStoreUnreachable, "registry recent", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ingestedAt int64
		if err := rows.Scan(&e.ISBN, &e.Title, &e.Author, &ingestedAt, &e.LastSessionID, &e.Sections, &e.Words, &e.Status); err != nil {
			return nil, err
		}
		e.FirstIngestedAt = time.Unix(ingestedAt, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Ping verifies the database is reachable.
func (r *Registry) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
