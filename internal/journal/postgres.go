package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/kotoba-app/kotoba/internal/vocab"
)

// Schema returns the SQL DDL for the entries table. The embedding dimension
// is baked into the vector column type at schema creation time and must match
// the configured embeddings model; changing it later requires a manual schema
// update. Execute via [PostgresStore.Migrate] or apply manually during
// deployment.
func Schema(embeddingDimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS entries (
    id                  TEXT PRIMARY KEY,
    language            TEXT NOT NULL,
    day                 TEXT NOT NULL DEFAULT '',
    original            TEXT NOT NULL,
    corrected           TEXT NOT NULL DEFAULT '',
    annotated_original  TEXT NOT NULL DEFAULT '',
    annotated_corrected TEXT NOT NULL DEFAULT '',
    diff_markup         TEXT NOT NULL DEFAULT '',
    vocabulary          JSONB NOT NULL DEFAULT '[]',
    degraded            BOOLEAN NOT NULL DEFAULT false,
    embedding           vector(%d),
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_entries_language ON entries(language);
CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at);
CREATE INDEX IF NOT EXISTS idx_entries_embedding
    ON entries USING hnsw (embedding vector_cosine_ops);
`, embeddingDimensions)
}

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database with the
// pgvector extension. Vocabulary is serialised as JSONB; embeddings are
// stored in a vector column and compared with cosine distance.
type PostgresStore struct {
	db   DB
	dims int
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. embeddingDimensions must match the output dimension of
// the configured embeddings model. The caller is responsible for calling
// [PostgresStore.Migrate] before issuing queries.
func NewPostgresStore(db DB, embeddingDimensions int) *PostgresStore {
	return &PostgresStore{db: db, dims: embeddingDimensions}
}

// Migrate executes the [Schema] DDL against the database, creating the
// vector extension, entries table and indexes if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema(s.dims))
	if err != nil {
		return fmt.Errorf("journal: migrate: %w", err)
	}
	return nil
}

// Create implements [Store]. It assigns a random UUID when e.ID is empty and
// fills e.CreatedAt from the database.
func (s *PostgresStore) Create(ctx context.Context, e *Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	vocabJSON, err := json.Marshal(emptyVocab(e.Vocabulary))
	if err != nil {
		return fmt.Errorf("journal: marshal vocabulary: %w", err)
	}

	// A nil embedding is stored as SQL NULL so that similarity search can
	// skip entries written without an embeddings provider.
	var embedding any
	if len(e.Embedding) > 0 {
		embedding = pgvector.NewVector(e.Embedding)
	}

	const query = `
		INSERT INTO entries (
			id, language, day, original, corrected,
			annotated_original, annotated_corrected, diff_markup,
			vocabulary, degraded, embedding
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at`

	err = s.db.QueryRow(ctx, query,
		e.ID, e.Language, e.Day, e.Original, e.Corrected,
		e.AnnotatedOriginal, e.AnnotatedCorrected, e.DiffMarkup,
		vocabJSON, e.Degraded, embedding,
	).Scan(&e.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("journal: entry with id %q already exists", e.ID)
		}
		return fmt.Errorf("journal: create: %w", err)
	}
	return nil
}

const entryColumns = `id, language, day, original, corrected,
       annotated_original, annotated_corrected, diff_markup,
       vocabulary, degraded, created_at`

// Get implements [Store]. It returns (nil, nil) if no entry with the given
// ID exists. The embedding column is not read back.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Entry, error) {
	const query = `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE id = $1`

	var (
		e         Entry
		vocabJSON []byte
	)
	err := s.db.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.Language, &e.Day, &e.Original, &e.Corrected,
		&e.AnnotatedOriginal, &e.AnnotatedCorrected, &e.DiffMarkup,
		&vocabJSON, &e.Degraded, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("journal: get %q: %w", id, err)
	}

	if err := json.Unmarshal(vocabJSON, &e.Vocabulary); err != nil {
		return nil, fmt.Errorf("journal: unmarshal vocabulary: %w", err)
	}
	return &e, nil
}

// List implements [Store]. Entries are returned newest first.
func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if f.Language == "" {
		const query = `
			SELECT ` + entryColumns + `
			FROM entries
			ORDER BY created_at DESC
			LIMIT $1`
		rows, err = s.db.Query(ctx, query, f.limit())
	} else {
		const query = `
			SELECT ` + entryColumns + `
			FROM entries
			WHERE language = $1
			ORDER BY created_at DESC
			LIMIT $2`
		rows, err = s.db.Query(ctx, query, f.Language, f.limit())
	}
	if err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			vocabJSON []byte
		)
		if err := rows.Scan(
			&e.ID, &e.Language, &e.Day, &e.Original, &e.Corrected,
			&e.AnnotatedOriginal, &e.AnnotatedCorrected, &e.DiffMarkup,
			&vocabJSON, &e.Degraded, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("journal: list scan: %w", err)
		}
		if err := json.Unmarshal(vocabJSON, &e.Vocabulary); err != nil {
			return nil, fmt.Errorf("journal: unmarshal vocabulary: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	return entries, nil
}

// SimilarTo implements [Store]. The distance computation happens entirely in
// SQL: the query entry's embedding is resolved in a sub-select, so the vector
// never round-trips through the application.
func (s *PostgresStore) SimilarTo(ctx context.Context, id string, topK int) ([]SimilarEntry, error) {
	const query = `
		SELECT e.id, e.language, e.day, e.original, e.corrected,
		       e.annotated_original, e.annotated_corrected, e.diff_markup,
		       e.vocabulary, e.degraded, e.created_at,
		       e.embedding <=> q.embedding AS distance
		FROM entries e,
		     (SELECT language, embedding FROM entries WHERE id = $1) q
		WHERE e.id <> $1
		  AND e.language = q.language
		  AND e.embedding IS NOT NULL
		  AND q.embedding IS NOT NULL
		ORDER BY distance
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, id, topK)
	if err != nil {
		return nil, fmt.Errorf("journal: similar to %q: %w", id, err)
	}
	defer rows.Close()

	results := []SimilarEntry{}
	for rows.Next() {
		var (
			se        SimilarEntry
			vocabJSON []byte
		)
		if err := rows.Scan(
			&se.Entry.ID, &se.Entry.Language, &se.Entry.Day,
			&se.Entry.Original, &se.Entry.Corrected,
			&se.Entry.AnnotatedOriginal, &se.Entry.AnnotatedCorrected, &se.Entry.DiffMarkup,
			&vocabJSON, &se.Entry.Degraded, &se.Entry.CreatedAt,
			&se.Distance,
		); err != nil {
			return nil, fmt.Errorf("journal: similar scan: %w", err)
		}
		if err := json.Unmarshal(vocabJSON, &se.Entry.Vocabulary); err != nil {
			return nil, fmt.Errorf("journal: unmarshal vocabulary: %w", err)
		}
		results = append(results, se)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: similar to %q: %w", id, err)
	}
	return results, nil
}

// emptyVocab returns v if non-nil, otherwise an empty non-nil slice. This
// ensures JSON marshalling produces "[]" instead of "null".
func emptyVocab(v []vocab.Item) []vocab.Item {
	if v == nil {
		return []vocab.Item{}
	}
	return v
}

// isDuplicateKeyError checks whether a PostgreSQL error is a unique-violation
// (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
