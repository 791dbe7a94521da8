package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/kvels/authcore"
)

func TestCreateAssignsSequentialIDs(t *testing.T) {
	store := New()
	ctx := context.Background()

	a, err := store.Create(ctx, "a@b.c", "h1", false, false)
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := store.Create(ctx, "b@b.c", "h2", false, false)
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	if b.ID != a.ID+1 {
		t.Fatalf("expected sequential ids, got %d then %d", a.ID, b.ID)
	}
}

func TestDuplicateEmailLeavesStoreUnchanged(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.Create(ctx, "a@b.c", "h1", false, false); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, "a@b.c", "h2", true, true); !errors.Is(err, authcore.ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 user, got %d", store.Len())
	}

	u, err := store.GetByEmail(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.PasswordHash != "h1" {
		t.Fatal("rejected signup must not overwrite the existing record")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.Create(ctx, "a@b.c", "h1", false, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.PasswordHash = "mutated"

	again, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.PasswordHash != "h1" {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestUpdateEmailCollision(t *testing.T) {
	store := New()
	ctx := context.Background()

	a, _ := store.Create(ctx, "a@b.c", "h1", false, false)
	store.Create(ctx, "b@b.c", "h2", false, false)

	a.Email = "b@b.c"
	if err := store.Update(ctx, a); !errors.Is(err, authcore.ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestUpdateRelabelsEmailIndex(t *testing.T) {
	store := New()
	ctx := context.Background()

	a, _ := store.Create(ctx, "a@b.c", "h1", false, false)
	a.Email = "new@b.c"
	if err := store.Update(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := store.GetByEmail(ctx, "a@b.c"); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected old email unlinked, got %v", err)
	}
	if _, err := store.GetByEmail(ctx, "new@b.c"); err != nil {
		t.Fatalf("expected new email linked, got %v", err)
	}
}

func TestDeleteMissing(t *testing.T) {
	store := New()

	if err := store.Delete(context.Background(), 404); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
