package auth

import "testing"

func TestPlayerIDRoundTrip(t *testing.T) {
	id := PlayerID(100042)
	if id != "u:100042" {
		t.Fatalf("unexpected player id %q", id)
	}
	accountID, ok := ParsePlayerID(id)
	if !ok || accountID != 100042 {
		t.Fatalf("expected account 100042, got %d (%v)", accountID, ok)
	}

	for _, raw := range []string{GuestID("abc"), "bot_123", "u:", "u:x", "u:0"} {
		if _, ok := ParsePlayerID(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}
