package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/kvels/authcore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.InitSchema(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "a@b.c", "hash", false, true)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	byID, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Email != "a@b.c" || !byID.IsConfirmed || byID.IsAdmin {
		t.Fatalf("unexpected user: %+v", byID)
	}

	byEmail, err := store.GetByEmail(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("expected id %d, got %d", created.ID, byEmail.ID)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "a@b.c", "hash", false, false); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := store.Create(ctx, "a@b.c", "other", false, false)
	if !errors.Is(err, authcore.ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestGetMiss(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetByID(ctx, 404); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound by id, got %v", err)
	}
	if _, err := store.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound by email, got %v", err)
	}
}

func TestUpdatePersists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u, err := store.Create(ctx, "a@b.c", "hash", false, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	u.PasswordHash = "rehash"
	u.IsConfirmed = true
	if err := store.Update(ctx, u); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PasswordHash != "rehash" || !got.IsConfirmed {
		t.Fatalf("update not persisted: %+v", got)
	}
}

func TestUpdateMissingUser(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(context.Background(), &authcore.User{ID: 404, Email: "x@y.z"})
	if !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u, err := store.Create(ctx, "a@b.c", "hash", false, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, u.ID); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}

func TestDeletedEmailCanBeReused(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "a@b.c", "hash", false, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Create(ctx, "a@b.c", "hash2", false, false); err != nil {
		t.Fatalf("recreate after delete: %v", err)
	}
}
