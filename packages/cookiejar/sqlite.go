package cookiejar

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const createCookiesTable = `CREATE TABLE IF NOT EXISTS cookies (
	domain             TEXT    NOT NULL,
	include_subdomains INTEGER NOT NULL DEFAULT 0,
	path               TEXT    NOT NULL,
	secure             INTEGER NOT NULL DEFAULT 0,
	http_only          INTEGER NOT NULL DEFAULT 0,
	expires            INTEGER NOT NULL DEFAULT 0,
	name               TEXT    NOT NULL,
	value              TEXT    NOT NULL,
	PRIMARY KEY (domain, path, name)
)`

// SQLiteStore keeps cookies in a single table of a SQLite database file.
type SQLiteStore struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie database: %w", err)
	}

	s := &SQLiteStore{db: db, queryTimeout: 5 * time.Second}

	ctx, cancel := s.context()
	defer cancel()
	if _, err := db.ExecContext(ctx, createCookiesTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare cookie database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.queryTimeout)
}

func (s *SQLiteStore) Load() ([]Entry, error) {
	ctx, cancel := s.context()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT domain, include_subdomains, path, secure, http_only, expires, name, value FROM cookies`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			expires int64
		)
		if err := rows.Scan(&e.Domain, &e.IncludeSubdomains, &e.Path, &e.Secure, &e.HttpOnly, &expires, &e.Name, &e.Value); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if expires > 0 {
			e.Expires = time.Unix(expires, 0)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Save replaces the stored cookies with entries in one transaction.
func (s *SQLiteStore) Save(entries []Entry) error {
	ctx, cancel := s.context()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cookies`); err != nil {
		return fmt.Errorf("clearing cookies: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cookies (domain, include_subdomains, path, secure, http_only, expires, name, value) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		var expires int64
		if !e.Expires.IsZero() {
			expires = e.Expires.Unix()
		}
		if _, err := stmt.ExecContext(ctx, e.Domain, e.IncludeSubdomains, e.Path, e.Secure, e.HttpOnly, expires, e.Name, e.Value); err != nil {
			return fmt.Errorf("storing cookie %s: %w", e.Name, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
