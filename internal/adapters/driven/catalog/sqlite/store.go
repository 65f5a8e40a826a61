// Package sqlite provides the SQLite-backed catalog. The catalog holds
// source and document metadata for introspection surfaces; search hits
// never read from it.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docdex-io/docdex/internal/adapters/driven/catalog/sqlite/migrations"
	"github.com/docdex-io/docdex/internal/core/domain"
	"github.com/docdex-io/docdex/internal/core/ports/driven"
)

// Store is a unified SQLite-based catalog that provides access to the
// metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite catalog at the specified data directory.
// If dataDir is empty, defaults to ~/.docdex/data/catalog.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docdex", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "catalog.db")

	// WAL mode for better concurrency between the serving process and a
	// concurrent ingest run.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SourceStore returns a SourceStore interface backed by this store.
func (s *Store) SourceStore() driven.SourceStore {
	return &sourceStore{store: s}
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Source Store ====================

// sourceStore implements driven.SourceStore.
type sourceStore struct {
	store *Store
}

var _ driven.SourceStore = (*sourceStore)(nil)

// Save stores or updates a source.
func (s *sourceStore) Save(ctx context.Context, source domain.Source) error {
	now := time.Now().UTC()
	if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	source.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sources (id, name, title, origin, language, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			title = excluded.title,
			origin = excluded.origin,
			language = excluded.language,
			version = excluded.version,
			updated_at = excluded.updated_at
	`, source.ID, source.Name, source.Title, source.Origin, source.Language,
		source.Version, source.CreatedAt, source.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// Get retrieves a source by ID.
func (s *sourceStore) Get(ctx context.Context, id string) (*domain.Source, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, title, origin, language, version, created_at, updated_at
		FROM sources WHERE id = ?
	`, id)

	source, err := scanSource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}
	return source, nil
}

// List returns all sources ordered by name.
func (s *sourceStore) List(ctx context.Context) ([]domain.Source, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, title, origin, language, version, created_at, updated_at
		FROM sources ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, *source)
	}
	return sources, rows.Err()
}

// Delete removes a source and, via cascade, its documents.
func (s *sourceStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}
	return nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSource(row scanner) (*domain.Source, error) {
	var source domain.Source
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&source.ID, &source.Name, &source.Title, &source.Origin,
		&source.Language, &source.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		source.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		source.UpdatedAt = updatedAt.Time
	}
	return &source, nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocuments stores or updates a batch of documents in one transaction.
func (s *documentStore) SaveDocuments(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, source_id, path, title, content, content_hash)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			path = excluded.path,
			title = excluded.title,
			content = excluded.content,
			content_hash = excluded.content_hash
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		// content_hash is an unsigned 64-bit digest stored in a signed
		// column; the conversion round-trips.
		if _, err := stmt.ExecContext(ctx, doc.ID, doc.SourceID, doc.Path,
			doc.Title, doc.Content, int64(doc.ContentHash)); err != nil {
			return fmt.Errorf("saving document %s: %w", doc.ID, err)
		}
	}

	return tx.Commit()
}

// GetDocument retrieves a document by ID, including content.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_id, path, title, content, content_hash
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	var hash int64
	if err := row.Scan(&doc.ID, &doc.SourceID, &doc.Path, &doc.Title, &doc.Content, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.ContentHash = uint64(hash)
	return &doc, nil
}

// ListBySource returns the documents of one source ordered by path.
// Content is omitted; callers needing it use GetDocument.
func (s *documentStore) ListBySource(ctx context.Context, sourceID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source_id, path, title, content_hash
		FROM documents WHERE source_id = ? ORDER BY path
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		var hash int64
		if err := rows.Scan(&doc.ID, &doc.SourceID, &doc.Path, &doc.Title, &hash); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.ContentHash = uint64(hash)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteBySource removes all documents of a source.
func (s *documentStore) DeleteBySource(ctx context.Context, sourceID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE source_id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// SaveRun records a completed ingestion run.
func (s *runStore) SaveRun(ctx context.Context, run driven.IngestRun) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, source_id, model, dimensions, passages, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.SourceID, run.Model, run.Dimensions, run.Passages, run.FinishedAt)

	if err != nil {
		return fmt.Errorf("saving ingest run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent run.
func (s *runStore) LatestRun(ctx context.Context) (*driven.IngestRun, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_id, model, dimensions, passages, finished_at
		FROM ingest_runs ORDER BY finished_at DESC, id DESC LIMIT 1
	`)

	var run driven.IngestRun
	var finishedAt sql.NullTime
	if err := row.Scan(&run.ID, &run.SourceID, &run.Model, &run.Dimensions,
		&run.Passages, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning ingest run: %w", err)
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return &run, nil
}
