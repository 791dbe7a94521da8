// Package sqlite implements the user store on SQLite via the pure-Go
// modernc.org/sqlite driver. It follows the same error contract as the
// postgres store: constraint violations and missing rows come back as
// authcore sentinels, never as raw driver errors.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/kvels/authcore"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_admin INTEGER NOT NULL DEFAULT 0,
	is_confirmed INTEGER NOT NULL DEFAULT 0
);
`

// Store persists users in a SQLite users table.
type Store struct {
	db *sql.DB
}

var _ authcore.UserStore = (*Store)(nil)

// Open opens (or creates) the database at path and prepares the store.
// Parent directories are created as needed. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}

	// A single writer connection sidesteps SQLITE_BUSY under concurrency.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InitSchema creates the users table if it does not exist yet.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, email, passwordHash string, isAdmin, isConfirmed bool) (*authcore.User, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, is_admin, is_confirmed)
		VALUES (?, ?, ?, ?)
	`, email, passwordHash, isAdmin, isConfirmed)
	if err != nil {
		return nil, classify(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}
	return &authcore.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		IsConfirmed:  isConfirmed,
	}, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*authcore.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, is_admin, is_confirmed
		FROM users
		WHERE id = ?
	`, id)
	return scanUser(row)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*authcore.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, is_admin, is_confirmed
		FROM users
		WHERE email = ?
	`, email)
	return scanUser(row)
}

func (s *Store) Update(ctx context.Context, u *authcore.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			email = ?,
			password_hash = ?,
			is_admin = ?,
			is_confirmed = ?
		WHERE id = ?
	`, u.Email, u.PasswordHash, u.IsAdmin, u.IsConfirmed, u.ID)
	if err != nil {
		return classify(err)
	}
	return requireRow(res)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	return requireRow(res)
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}
	if n == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*authcore.User, error) {
	var u authcore.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.IsConfirmed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authcore.ErrUserNotFound
		}
		return nil, classify(err)
	}
	return &u, nil
}

// classify maps driver errors onto the package sentinels.
func classify(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return authcore.ErrEmailAlreadyExists
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return authcore.ErrUserNotFound
	}
	return fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
}
