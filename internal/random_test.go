package internal

import (
	"strings"
	"testing"
)

func TestNewSessionKeyLengthAndCharset(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		key, err := NewSessionKey(32)
		if err != nil {
			t.Fatalf("NewSessionKey error: %v", err)
		}
		if len(key) != 32 {
			t.Fatalf("expected 32 characters, got %d", len(key))
		}
		for _, r := range key {
			if r < '!' || r > '~' {
				t.Fatalf("character %q outside printable ASCII", r)
			}
		}
		if seen[key] {
			t.Fatalf("duplicate key generated: %q", key)
		}
		seen[key] = true
	}
}

func TestNewPasswordRejectsNonPositiveLength(t *testing.T) {
	if _, err := NewPassword(0); err == nil {
		t.Fatal("expected error for zero length")
	}
	if _, err := NewPassword(-3); err == nil {
		t.Fatal("expected error for negative length")
	}
}

func TestRandomStringNoSpaces(t *testing.T) {
	key, err := NewSessionKey(256)
	if err != nil {
		t.Fatalf("NewSessionKey error: %v", err)
	}
	if strings.ContainsAny(key, " \t\n") {
		t.Fatalf("key contains whitespace: %q", key)
	}
}
