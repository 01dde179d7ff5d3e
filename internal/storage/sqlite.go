package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/pdcheck/internal/identity"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"

	_ "modernc.org/sqlite"
)

// similarLimit caps the candidate pool handed to the resolver
const similarLimit = 100

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const schema = `
CREATE TABLE IF NOT EXISTS works (
	id               TEXT PRIMARY KEY,
	content_key      TEXT NOT NULL,
	title_norm       TEXT NOT NULL,
	author_norm      TEXT NOT NULL,
	publication_year INTEGER,
	record_json      TEXT NOT NULL,
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_works_content_key ON works(content_key);
CREATE INDEX IF NOT EXISTS idx_works_author_norm ON works(author_norm);
`

// SQLiteStore persists works as JSON documents keyed by ID, with the
// normalized columns the resolver searches on
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases from splitting per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.StoredWorkRecord, error) {
	return s.queryOne(ctx, `SELECT record_json FROM works WHERE id = ?`, id)
}

func (s *SQLiteStore) FindByKey(ctx context.Context, contentKey string) (*models.StoredWorkRecord, error) {
	return s.queryOne(ctx, `SELECT record_json FROM works WHERE content_key = ? ORDER BY created_at, id LIMIT 1`, contentKey)
}

// FindSimilar narrows the pool to works by the same normalized author or
// sharing any significant title word, the same pool MemoryStore builds; the
// resolver does the real scoring
func (s *SQLiteStore) FindSimilar(ctx context.Context, work models.NormalizedWork) ([]models.StoredWorkRecord, error) {
	author := identity.NormalizeAuthor(work.AuthorName)
	terms := titleTerms(work.Title)
	if author == "" && len(terms) == 0 {
		return nil, nil
	}

	var clauses []string
	var args []any
	if author != "" {
		clauses = append(clauses, "author_norm = ?")
		args = append(args, author)
	}
	for _, term := range terms {
		// whole-word match on the space-separated normalized title
		clauses = append(clauses, `(' ' || title_norm || ' ') LIKE ? ESCAPE '\'`)
		args = append(args, "% "+likeEscaper.Replace(term)+" %")
	}
	args = append(args, similarLimit)

	query := `SELECT record_json FROM works WHERE ` + strings.Join(clauses, " OR ") + ` ORDER BY created_at, id LIMIT ?`
	return s.queryMany(ctx, query, args...)
}

// Upsert writes rec inside a transaction, assigning an ID to new records
func (s *SQLiteStore) Upsert(ctx context.Context, rec models.StoredWorkRecord) (models.StoredWorkRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	doc, err := json.Marshal(rec)
	if err != nil {
		return models.StoredWorkRecord{}, fmt.Errorf("failed to encode work: %w", err)
	}

	var year sql.NullInt64
	if rec.Work.PublicationYear != nil {
		year = sql.NullInt64{Int64: int64(*rec.Work.PublicationYear), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.StoredWorkRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO works (id, content_key, title_norm, author_norm, publication_year, record_json, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			content_key=excluded.content_key, title_norm=excluded.title_norm,
			author_norm=excluded.author_norm, publication_year=excluded.publication_year,
			record_json=excluded.record_json, updated_at=excluded.updated_at`,
		rec.ID, rec.ContentKey,
		identity.NormalizeTitle(rec.Work.Title), identity.NormalizeAuthor(rec.Work.AuthorName),
		year, string(doc), rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return models.StoredWorkRecord{}, fmt.Errorf("failed to upsert work: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.StoredWorkRecord{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.StoredWorkRecord, error) {
	return s.queryMany(ctx, `SELECT record_json FROM works ORDER BY created_at, id`)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM works WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete work: %w", err)
	}
	return nil
}

func (s *SQLiteStore) queryOne(ctx context.Context, query string, args ...any) (*models.StoredWorkRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query work: %w", err)
	}

	var rec models.StoredWorkRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode work: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) queryMany(ctx context.Context, query string, args ...any) ([]models.StoredWorkRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query works: %w", err)
	}
	defer rows.Close()

	var result []models.StoredWorkRecord
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan work: %w", err)
		}
		var rec models.StoredWorkRecord
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode work: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
