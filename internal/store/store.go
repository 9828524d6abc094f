package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Catalog records which snapshot of each SDK is on disk.
type Catalog interface {
	// RecordSnapshot replaces the snapshot of snap.SDK with snap and files,
	// returning the new snapshot ID.
	RecordSnapshot(snap Snapshot, files []FileRecord) (int64, error)
	// LatestSnapshot returns the current snapshot of sdk, or nil if none.
	LatestSnapshot(sdk string) (*Snapshot, error)
	// ListFiles returns the file records of sdk's snapshot ordered by path.
	ListFiles(sdk string) ([]FileRecord, error)
	// DeleteSnapshot forgets sdk and its files.
	DeleteSnapshot(sdk string) error
	// GetMeta returns a metadata value by key, or "" if not set.
	GetMeta(key string) (string, error)
	// SetMeta sets a metadata key-value pair; an empty value removes the key.
	SetMeta(key, value string) error
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Catalog backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and initializes the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) RecordSnapshot(snap Snapshot, files []FileRecord) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// Files of the previous snapshot go with it (ON DELETE CASCADE).
	if _, err := tx.Exec("DELETE FROM snapshots WHERE sdk = ?", snap.SDK); err != nil {
		return 0, err
	}

	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	res, err := tx.Exec(
		"INSERT INTO snapshots (sdk, source_ref, fetched_at, file_count, size_bytes) VALUES (?, ?, ?, ?, ?)",
		snap.SDK, snap.SourceRef, snap.FetchedAt.UTC(), snap.FileCount, snap.SizeBytes,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare("INSERT INTO files (snapshot_id, path, hash, size_bytes) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, f := range files {
		if _, err := stmt.Exec(id, f.Path, f.Hash, f.SizeBytes); err != nil {
			return 0, fmt.Errorf("insert file %s: %w", f.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLiteStore) LatestSnapshot(sdk string) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.QueryRow(
		"SELECT id, sdk, source_ref, fetched_at, file_count, size_bytes FROM snapshots WHERE sdk = ?", sdk,
	).Scan(&snap.ID, &snap.SDK, &snap.SourceRef, &snap.FetchedAt, &snap.FileCount, &snap.SizeBytes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SQLiteStore) ListFiles(sdk string) ([]FileRecord, error) {
	rows, err := s.db.Query(`
		SELECT f.path, f.hash, f.size_bytes
		FROM files f
		JOIN snapshots s ON s.id = f.snapshot_id
		WHERE s.sdk = ?
		ORDER BY f.path
	`, sdk)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.Path, &f.Hash, &f.SizeBytes); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *SQLiteStore) DeleteSnapshot(sdk string) error {
	_, err := s.db.Exec("DELETE FROM snapshots WHERE sdk = ?", sdk)
	return err
}

func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) SetMeta(key, value string) error {
	if value == "" {
		_, err := s.db.Exec("DELETE FROM meta WHERE key = ?", key)
		return err
	}
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
