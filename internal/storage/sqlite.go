package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nitobe/mitsukeru/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not
// exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snippets (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		subcategory TEXT,
		keywords TEXT,
		description TEXT,
		search_text TEXT,
		language TEXT,
		code TEXT NOT NULL,
		dependencies TEXT,
		difficulty TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_snippets_category ON snippets(category);

	CREATE TABLE IF NOT EXISTS snippet_embeddings (
		snippet_id TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		vector BLOB NOT NULL,
		dimensions INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (snippet_id) REFERENCES snippets(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertSnippet inserts or replaces a snippet by ID.
func (s *SQLiteStore) UpsertSnippet(ctx context.Context, snippet *models.Snippet) error {
	keywordsJSON, err := json.Marshal(snippet.Keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}
	depsJSON, err := json.Marshal(snippet.Dependencies)
	if err != nil {
		return fmt.Errorf("failed to marshal dependencies: %w", err)
	}

	now := time.Now()
	if snippet.CreatedAt.IsZero() {
		snippet.CreatedAt = now
	}
	snippet.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snippets (id, category, subcategory, keywords, description, search_text, language, code, dependencies, difficulty, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			subcategory = excluded.subcategory,
			keywords = excluded.keywords,
			description = excluded.description,
			search_text = excluded.search_text,
			language = excluded.language,
			code = excluded.code,
			dependencies = excluded.dependencies,
			difficulty = excluded.difficulty,
			updated_at = excluded.updated_at`,
		snippet.ID, snippet.Category, snippet.Subcategory, string(keywordsJSON),
		snippet.Description, snippet.SearchText, snippet.Language, snippet.Code,
		string(depsJSON), snippet.Difficulty, snippet.CreatedAt, snippet.UpdatedAt,
	)
	return err
}

// GetSnippet returns a snippet by ID.
func (s *SQLiteStore) GetSnippet(ctx context.Context, id string) (*models.Snippet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, category, subcategory, keywords, description, search_text, language, code, dependencies, difficulty, created_at, updated_at
		 FROM snippets WHERE id = ?`, id,
	)
	snippet, err := scanSnippet(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snippet not found: %s", id)
	}
	return snippet, err
}

// DeleteSnippet removes a snippet and its cached embedding.
func (s *SQLiteStore) DeleteSnippet(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snippet_embeddings WHERE snippet_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListSnippets returns all snippets ordered by ID.
func (s *SQLiteStore) ListSnippets(ctx context.Context) ([]*models.Snippet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, subcategory, keywords, description, search_text, language, code, dependencies, difficulty, created_at, updated_at
		 FROM snippets ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snippets []*models.Snippet
	for rows.Next() {
		snippet, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		snippets = append(snippets, snippet)
	}
	return snippets, rows.Err()
}

// BatchUpsertSnippets upserts snippets in a single transaction.
func (s *SQLiteStore) BatchUpsertSnippets(ctx context.Context, snippets []*models.Snippet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snippets (id, category, subcategory, keywords, description, search_text, language, code, dependencies, difficulty, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			subcategory = excluded.subcategory,
			keywords = excluded.keywords,
			description = excluded.description,
			search_text = excluded.search_text,
			language = excluded.language,
			code = excluded.code,
			dependencies = excluded.dependencies,
			difficulty = excluded.difficulty,
			updated_at = excluded.updated_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, snippet := range snippets {
		keywordsJSON, err := json.Marshal(snippet.Keywords)
		if err != nil {
			return fmt.Errorf("failed to marshal keywords for %s: %w", snippet.ID, err)
		}
		depsJSON, err := json.Marshal(snippet.Dependencies)
		if err != nil {
			return fmt.Errorf("failed to marshal dependencies for %s: %w", snippet.ID, err)
		}
		if snippet.CreatedAt.IsZero() {
			snippet.CreatedAt = now
		}
		snippet.UpdatedAt = now
		if _, err := stmt.ExecContext(ctx,
			snippet.ID, snippet.Category, snippet.Subcategory, string(keywordsJSON),
			snippet.Description, snippet.SearchText, snippet.Language, snippet.Code,
			string(depsJSON), snippet.Difficulty, snippet.CreatedAt, snippet.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// PutEmbedding stores the cached embedding for a snippet along with the
// hash of the content it was computed from.
func (s *SQLiteStore) PutEmbedding(ctx context.Context, snippetID, contentHash string, vector []float32) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snippet_embeddings (snippet_id, content_hash, vector, dimensions, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(snippet_id) DO UPDATE SET
			content_hash = excluded.content_hash,
			vector = excluded.vector,
			dimensions = excluded.dimensions,
			created_at = excluded.created_at`,
		snippetID, contentHash, float32SliceToBytes(vector), len(vector), time.Now(),
	)
	return err
}

// GetEmbedding returns the cached embedding for a snippet, or nil when
// none is stored or the stored entry was computed from different content.
func (s *SQLiteStore) GetEmbedding(ctx context.Context, snippetID, contentHash string) ([]float32, error) {
	var blob []byte
	var dims int
	err := s.db.QueryRowContext(ctx,
		`SELECT vector, dimensions FROM snippet_embeddings WHERE snippet_id = ? AND content_hash = ?`,
		snippetID, contentHash,
	).Scan(&blob, &dims)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	vector := bytesToFloat32Slice(blob)
	if len(vector) != dims {
		return nil, fmt.Errorf("corrupt embedding for %s: stored %d floats, header says %d", snippetID, len(vector), dims)
	}
	return vector, nil
}

// DeleteEmbedding removes the cached embedding for a snippet.
func (s *SQLiteStore) DeleteEmbedding(ctx context.Context, snippetID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snippet_embeddings WHERE snippet_id = ?`, snippetID)
	return err
}

// CountSnippets returns the total number of snippets.
func (s *SQLiteStore) CountSnippets(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snippets`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnippet(row rowScanner) (*models.Snippet, error) {
	var snippet models.Snippet
	var keywordsJSON, depsJSON string
	err := row.Scan(&snippet.ID, &snippet.Category, &snippet.Subcategory, &keywordsJSON,
		&snippet.Description, &snippet.SearchText, &snippet.Language, &snippet.Code,
		&depsJSON, &snippet.Difficulty, &snippet.CreatedAt, &snippet.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if keywordsJSON != "" {
		if err := json.Unmarshal([]byte(keywordsJSON), &snippet.Keywords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keywords for %s: %w", snippet.ID, err)
		}
	}
	if depsJSON != "" {
		if err := json.Unmarshal([]byte(depsJSON), &snippet.Dependencies); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dependencies for %s: %w", snippet.ID, err)
		}
	}
	return &snippet, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
