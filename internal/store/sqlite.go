package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	_ "modernc.org/sqlite"

	apperrors "github.com/voxnote/voxnote/backend/internal/errors"
	"github.com/voxnote/voxnote/backend/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcriptions (
	id TEXT PRIMARY KEY,
	timestamp INTEGER NOT NULL,
	text TEXT NOT NULL,
	raw_text TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL CHECK(status IN ('success', 'error')),
	error_message TEXT NOT NULL DEFAULT '',
	speech_model TEXT NOT NULL DEFAULT '',
	llm_model TEXT NOT NULL DEFAULT '',
	word_count INTEGER NOT NULL DEFAULT 0,
	audio_seconds REAL NOT NULL DEFAULT 0,
	synced INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_transcriptions_timestamp ON transcriptions(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_transcriptions_synced ON transcriptions(synced);
`

const recordColumns = `id, timestamp, text, raw_text, status, error_message,
	speech_model, llm_model, word_count, audio_seconds, synced`

// SQLiteStore is the on-disk Store implementation backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the record database under dataDir.
func Open(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return open(filepath.Join(dataDir, "records.db"))
}

// OpenInMemory opens a private in-memory database, used by tests. Each
// call gets its own database.
func OpenInMemory() (*SQLiteStore, error) {
	name := fmt.Sprintf("mem_%d", memSeq.Add(1))
	return open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
}

var memSeq atomic.Int64

func open(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.Wrap(apperrors.ErrMigration, "failed to apply schema", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListPage returns up to limit records starting at offset, newest first.
// A non-empty searchQuery filters on text and raw_text.
func (s *SQLiteStore) ListPage(ctx context.Context, limit, offset int, searchQuery string) ([]*models.TranscriptionRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM transcriptions`
	args := []interface{}{}

	if searchQuery != "" {
		query += ` WHERE text LIKE ? ESCAPE '\' OR raw_text LIKE ? ESCAPE '\'`
		pattern := likePattern(searchQuery)
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY timestamp DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, "list page query failed", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Count returns the number of records matching searchQuery.
func (s *SQLiteStore) Count(ctx context.Context, searchQuery string) (int, error) {
	query := `SELECT COUNT(*) FROM transcriptions`
	args := []interface{}{}
	if searchQuery != "" {
		query += ` WHERE text LIKE ? ESCAPE '\' OR raw_text LIKE ? ESCAPE '\'`
		pattern := likePattern(searchQuery)
		args = append(args, pattern, pattern)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStore, "count query failed", err)
	}
	return count, nil
}

// ListAll returns the complete unfiltered record set, newest first.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]*models.TranscriptionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM transcriptions ORDER BY timestamp DESC`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, "list all query failed", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Get returns the record with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.TranscriptionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM transcriptions WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("record %s not found", id))
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, "get query failed", err)
	}
	return rec, nil
}

// Delete removes the record with the given id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM transcriptions WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, "delete failed", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, "delete failed", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("record %s not found", id))
	}
	return nil
}

// DeleteAll removes every record.
func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transcriptions`); err != nil {
		return apperrors.Wrap(apperrors.ErrStore, "delete all failed", err)
	}
	return nil
}

// MarkSynced flips the record's synced flag to true.
func (s *SQLiteStore) MarkSynced(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE transcriptions SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, "mark synced failed", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, "mark synced failed", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("record %s not found", id))
	}
	return nil
}

// ImportIfAbsent inserts the record unless its id already exists.
func (s *SQLiteStore) ImportIfAbsent(ctx context.Context, rec *models.TranscriptionRecord) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO transcriptions
			(id, timestamp, text, raw_text, status, error_message,
			 speech_model, llm_model, word_count, audio_seconds, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp, rec.Text, rec.RawText, rec.Status, rec.ErrorMessage,
		rec.SpeechModel, rec.LLMModel, rec.WordCount, rec.AudioSeconds, rec.Synced)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrStore, "import failed", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrStore, "import failed", err)
	}
	return affected > 0, nil
}

// Retry resets a failed record for re-transcription: the error payload is
// cleared and the record is unmarked as synced so the next push reflects
// the retried content.
func (s *SQLiteStore) Retry(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE transcriptions
		SET error_message = '', synced = 0
		WHERE id = ? AND status = 'error'`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, "retry failed", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, "retry failed", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("failed record %s not found", id))
	}
	return nil
}

// likePattern wraps the user query for a substring LIKE match, escaping
// LIKE metacharacters in the query itself.
func likePattern(q string) string {
	escaped := make([]rune, 0, len(q))
	for _, r := range q {
		if r == '%' || r == '_' || r == '\\' {
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, r)
	}
	return "%" + string(escaped) + "%"
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.TranscriptionRecord, error) {
	var rec models.TranscriptionRecord
	err := row.Scan(
		&rec.ID, &rec.Timestamp, &rec.Text, &rec.RawText, &rec.Status,
		&rec.ErrorMessage, &rec.SpeechModel, &rec.LLMModel,
		&rec.WordCount, &rec.AudioSeconds, &rec.Synced)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*models.TranscriptionRecord, error) {
	var records []*models.TranscriptionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStore, "scan failed", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, "row iteration failed", err)
	}
	return records, nil
}
