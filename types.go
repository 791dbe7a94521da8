package authcore

import (
	"context"
	"time"
)

// User is the durable account record exchanged with a [UserStore]. The ID
// is assigned by the store on creation and immutable thereafter. The
// password hash is opaque to everything except the password package.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsAdmin      bool
	IsConfirmed  bool
}

// SignupForm is the transient input to [Service.Signup]. It is validated
// before any store access.
type SignupForm struct {
	Email    string
	Password string
}

// LoginForm is the transient input to [Service.Login] and
// [Service.LoginFor].
type LoginForm struct {
	Email    string
	Password string
}

// UserStore is the durable persistence contract consumed by [Service].
//
// Every implementation must translate its native failure signals into
// exactly four outcomes: success, [ErrEmailAlreadyExists] (unique
// violation on email), [ErrUserNotFound] (missing row), and
// [ErrBackendUnavailable] (anything else). This translation belongs to the
// adapter; the Service never inspects backend-specific codes.
//
// Implementations provide their own concurrency control; Create, Update,
// and Delete are atomic at the boundary they expose.
type UserStore interface {
	// Create persists a new user and returns it with the store-assigned ID.
	Create(ctx context.Context, email, passwordHash string, isAdmin, isConfirmed bool) (*User, error)
	// GetByID fetches a user by ID.
	GetByID(ctx context.Context, id int64) (*User, error)
	// GetByEmail fetches a user by email. Case policy is fixed by the store.
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Update replaces all mutable fields of the user identified by u.ID.
	Update(ctx context.Context, u *User) error
	// Delete removes the user. A second Delete on the same ID fails with
	// ErrUserNotFound; deletion is not idempotent at this layer.
	Delete(ctx context.Context, id int64) error
}

// SessionStore is the ephemeral cache contract consumed by [Service]. It
// maps an opaque session key to a user ID, optionally with an expiry.
//
// Absence is not an error: Get reports it through its ok result and Remove
// on a missing key is a no-op. Implementations must never hold two live
// mappings under the same key and must serialize operations on the same
// key so a concurrent Remove and Get cannot observe a torn state.
type SessionStore interface {
	// Insert stores the mapping with no expiry, overwriting any prior
	// mapping under the same key.
	Insert(ctx context.Context, userID int64, key string) error
	// InsertFor stores the mapping with an expiry. After ttl elapses a
	// subsequent Get behaves as if the key was never inserted.
	InsertFor(ctx context.Context, userID int64, key string, ttl time.Duration) error
	// Get returns the live mapping, or ok=false when missing or expired.
	Get(ctx context.Context, key string) (userID int64, ok bool, err error)
	// Remove deletes the mapping if present.
	Remove(ctx context.Context, key string) error
	// RemoveAllForUser invalidates every live session of the user.
	RemoveAllForUser(ctx context.Context, userID int64) error
}

// Validator screens signup forms before any store mutation. Rules are
// deployment policy; the default (see [DefaultValidator]) checks only that
// the email parses and the password is non-trivial.
type Validator interface {
	ValidateSignup(form *SignupForm) error
}

// ValidatorFunc adapts a function to the [Validator] interface.
type ValidatorFunc func(form *SignupForm) error

// ValidateSignup calls f.
func (f ValidatorFunc) ValidateSignup(form *SignupForm) error {
	return f(form)
}
