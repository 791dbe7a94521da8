// Package postgres implements the user store on PostgreSQL via pgx.
//
// Native driver errors never leave this package: unique violations on the
// email column become [authcore.ErrEmailAlreadyExists], missing rows become
// [authcore.ErrUserNotFound], and everything else is surfaced as
// [authcore.ErrBackendUnavailable] with the driver detail preserved in the
// message.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kvels/authcore"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_admin BOOLEAN NOT NULL DEFAULT FALSE,
	is_confirmed BOOLEAN NOT NULL DEFAULT FALSE
);
`

// DB is the slice of pgxpool.Pool the store needs. *pgxpool.Pool satisfies
// it, and so do the pgxmock pools used in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Store persists users in a PostgreSQL users table.
type Store struct {
	db DB
}

var _ authcore.UserStore = (*Store)(nil)

// New wraps an existing connection pool.
func New(db DB) *Store {
	return &Store{db: db}
}

// Connect opens a pool for the given DSN and wraps it. The caller owns the
// pool lifecycle through [Store.Close].
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}
	return &Store{db: pool}, nil
}

// Close releases the underlying pool if the store owns one.
func (s *Store) Close() {
	if pool, ok := s.db.(*pgxpool.Pool); ok {
		pool.Close()
	}
}

// InitSchema creates the users table if it does not exist yet.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, email, passwordHash string, isAdmin, isConfirmed bool) (*authcore.User, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, is_admin, is_confirmed)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, email, passwordHash, isAdmin, isConfirmed)

	var id int64
	if err := row.Scan(&id); err != nil {
		return nil, classify(err)
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
	row := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, is_admin, is_confirmed
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*authcore.User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, is_admin, is_confirmed
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (s *Store) Update(ctx context.Context, u *authcore.User) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET
			email = $2,
			password_hash = $3,
			is_admin = $4,
			is_confirmed = $5
		WHERE id = $1
	`, u.ID, u.Email, u.PasswordHash, u.IsAdmin, u.IsConfirmed)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}
	return nil
}

func scanUser(row pgx.Row) (*authcore.User, error) {
	var u authcore.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.IsConfirmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authcore.ErrUserNotFound
		}
		return nil, classify(err)
	}
	return &u, nil
}

// classify maps driver errors onto the package sentinels.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return authcore.ErrEmailAlreadyExists
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return authcore.ErrUserNotFound
	}
	return fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
}
