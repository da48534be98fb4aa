package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSessionExpiresWithoutActivity(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewManager(time.Hour)
	m.now = func() time.Time { return now }

	_, token, err := m.Register("alice_01", "secret12")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	now = now.Add(50 * time.Minute)
	if _, ok := m.ResolveSession(token); !ok {
		t.Fatalf("expected session to be valid before ttl")
	}

	// Resolving slid the expiry forward.
	now = now.Add(50 * time.Minute)
	if _, ok := m.ResolveSession(token); !ok {
		t.Fatalf("expected refreshed session to be valid")
	}

	now = now.Add(2 * time.Hour)
	if _, ok := m.ResolveSession(token); ok {
		t.Fatalf("expected idle session to expire")
	}
}

func TestUnknownTokenIsRejected(t *testing.T) {
	m := NewManager(0)
	if _, ok := m.ResolveSession("invalid-token"); ok {
		t.Fatalf("unknown token should not resolve")
	}
	if _, ok := m.ResolveSession(""); ok {
		t.Fatalf("empty token should not resolve")
	}
}

func TestUpdateProfile(t *testing.T) {
	for name, m := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			account, token, err := m.Register("alice_01", "secret12")
			if err != nil {
				t.Fatalf("register failed: %v", err)
			}

			updated, err := m.UpdateProfile(account.ID, "  Alice  ", "avatar-3")
			if err != nil {
				t.Fatalf("update failed: %v", err)
			}
			if updated.DisplayName != "Alice" || updated.Avatar != "avatar-3" {
				t.Fatalf("unexpected profile %+v", updated)
			}

			resolved, ok := m.ResolveSession(token)
			if !ok || resolved.Name() != "Alice" {
				t.Fatalf("expected resolved name Alice, got %+v", resolved)
			}

			if _, err := m.UpdateProfile(account.ID, "   ", ""); !errors.Is(err, ErrInvalidDisplayName) {
				t.Fatalf("expected ErrInvalidDisplayName, got %v", err)
			}
			if _, err := m.UpdateProfile(account.ID+999, "Bob", ""); !errors.Is(err, ErrAccountNotFound) {
				t.Fatalf("expected ErrAccountNotFound, got %v", err)
			}
		})
	}
}
