package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vedsharma/apireplay/internal/model"
)

const (
	dbFile = "apireplay.db"

	// Secure file permissions - owner read/write only
	secureFileMode = 0600 // -rw-------
	secureDirMode  = 0700 // drwx------
)

// ensureSecureFile creates a file with secure permissions if it doesn't exist,
// or verifies/fixes permissions if it does exist. This prevents a TOCTOU race
// condition where the file could be created with insecure default permissions.
func ensureSecureFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, secureFileMode)
		if err != nil {
			return fmt.Errorf("failed to create secure file: %w", err)
		}
		f.Close()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Mode().Perm() != secureFileMode {
		if err := os.Chmod(path, secureFileMode); err != nil {
			return fmt.Errorf("failed to set secure permissions: %w", err)
		}
	}
	return nil
}

// SQLiteStorage is the durable record store. Ids come from an
// AUTOINCREMENT column and are never reused after a delete.
type SQLiteStorage struct {
	db *sql.DB
}

// Open opens (creating if needed) the record database in dataDir.
func Open(dataDir string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(dataDir, secureDirMode); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, dbFile)
	if err := ensureSecureFile(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One connection serializes writers from concurrent submissions.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &SQLiteStorage{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME NOT NULL,
		method TEXT NOT NULL,
		url TEXT NOT NULL,
		params TEXT NOT NULL DEFAULT '[]',
		headers TEXT NOT NULL DEFAULT '{}',
		body TEXT,
		tags TEXT NOT NULL DEFAULT '[]',
		collection TEXT NOT NULL DEFAULT '',
		prescript TEXT NOT NULL DEFAULT '',
		status INTEGER,
		response_time_ms INTEGER,
		response_kind TEXT NOT NULL DEFAULT 'text',
		response TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

const recordColumns = `id, created_at, method, url, params, headers, body, tags,
	collection, prescript, status, response_time_ms, response_kind, response`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Append stores rec and returns its new id. rec.ID is ignored.
func (s *SQLiteStorage) Append(ctx context.Context, rec model.Record) (int64, error) {
	return insertRecord(ctx, s.db, rec)
}

// Import appends copies of recs with fresh ids, in order, atomically.
func (s *SQLiteStorage) Import(ctx context.Context, recs []model.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if _, err := insertRecord(ctx, tx, rec); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(recs), nil
}

func insertRecord(ctx context.Context, db execer, rec model.Record) (int64, error) {
	params, err := json.Marshal(nonNilParams(rec.Params))
	if err != nil {
		return 0, fmt.Errorf("encode params: %w", err)
	}
	headers, err := json.Marshal(nonNilHeaders(rec.Headers))
	if err != nil {
		return 0, fmt.Errorf("encode headers: %w", err)
	}
	tags, err := json.Marshal(nonNilTags(rec.Tags))
	if err != nil {
		return 0, fmt.Errorf("encode tags: %w", err)
	}

	var body sql.NullString
	if rec.Body != nil {
		body = sql.NullString{String: *rec.Body, Valid: true}
	}
	var status, elapsed sql.NullInt64
	if rec.Status != nil {
		status = sql.NullInt64{Int64: int64(*rec.Status), Valid: true}
	}
	if rec.ResponseTime != nil {
		elapsed = sql.NullInt64{Int64: *rec.ResponseTime, Valid: true}
	}
	date := rec.Date
	if date.IsZero() {
		date = time.Now()
	}
	kind, response := encodePayload(rec.Response)

	res, err := db.ExecContext(ctx, `
		INSERT INTO records (
			created_at, method, url, params, headers, body, tags,
			collection, prescript, status, response_time_ms, response_kind, response
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		date.UTC(), string(rec.Method), rec.URL, string(params), string(headers), body, string(tags),
		rec.Collection, rec.Prescript, status, elapsed, kind, response,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// List returns every record in insertion order. Display ordering is the
// caller's concern.
func (s *SQLiteStorage) List(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM records ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns the record with id, or nil when there is none.
func (s *SQLiteStorage) Get(ctx context.Context, id int64) (*model.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes the record with id. A missing id is not an error.
func (s *SQLiteStorage) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	return err
}

// Clear removes every record. The id sequence is kept.
func (s *SQLiteStorage) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM records")
	return err
}

// UpdateResponse replaces the captured response of a record. It reports
// whether a record was changed.
func (s *SQLiteStorage) UpdateResponse(ctx context.Context, id int64, payload model.Payload) (bool, error) {
	kind, response := encodePayload(payload)
	res, err := s.db.ExecContext(ctx, "UPDATE records SET response_kind = ?, response = ? WHERE id = ?", kind, response, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (model.Record, error) {
	var (
		rec                    model.Record
		method, kind, response string
		params, headers, tags  string
		body                   sql.NullString
		status, elapsed        sql.NullInt64
	)
	err := row.Scan(
		&rec.ID, &rec.Date, &method, &rec.URL, &params, &headers, &body, &tags,
		&rec.Collection, &rec.Prescript, &status, &elapsed, &kind, &response,
	)
	if err != nil {
		return model.Record{}, err
	}

	rec.Method = model.Method(method)
	if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
		return model.Record{}, fmt.Errorf("record %d: decode params: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(headers), &rec.Headers); err != nil {
		return model.Record{}, fmt.Errorf("record %d: decode headers: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
		return model.Record{}, fmt.Errorf("record %d: decode tags: %w", rec.ID, err)
	}
	rec.Params = nonNilParams(rec.Params)
	rec.Headers = nonNilHeaders(rec.Headers)
	rec.Tags = nonNilTags(rec.Tags)

	if body.Valid {
		b := body.String
		rec.Body = &b
	}
	if status.Valid {
		code := int(status.Int64)
		rec.Status = &code
	}
	if elapsed.Valid {
		ms := elapsed.Int64
		rec.ResponseTime = &ms
	}
	rec.Response = decodePayload(model.PayloadKind(kind), response)
	return rec, nil
}

func encodePayload(p model.Payload) (string, string) {
	switch p.Kind {
	case model.PayloadStructured:
		return string(model.PayloadStructured), string(p.Data)
	case model.PayloadFailed:
		return string(model.PayloadFailed), p.Text
	default:
		return string(model.PayloadText), p.Text
	}
}

func decodePayload(kind model.PayloadKind, stored string) model.Payload {
	switch kind {
	case model.PayloadStructured:
		if !json.Valid([]byte(stored)) {
			return model.TextPayload(stored)
		}
		return model.StructuredPayload([]byte(stored))
	case model.PayloadFailed:
		return model.FailedPayload(stored)
	default:
		return model.TextPayload(stored)
	}
}

func nonNilParams(p []model.KeyValue) []model.KeyValue {
	if p == nil {
		return []model.KeyValue{}
	}
	return p
}

func nonNilHeaders(h map[string]string) map[string]string {
	if h == nil {
		return map[string]string{}
	}
	return h
}

func nonNilTags(t []string) []string {
	if t == nil {
		return []string{}
	}
	return t
}
