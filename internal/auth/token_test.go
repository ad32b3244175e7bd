package auth

import "testing"

func TestNewOpaqueToken(t *testing.T) {
	raw, hash, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if raw == "" || hash == "" || raw == hash {
		t.Fatalf("unexpected token pair raw=%q hash=%q", raw, hash)
	}
	if HashToken(raw) != hash {
		t.Fatalf("expected HashToken to reproduce the stored digest")
	}
	other, _, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if other == raw {
		t.Fatalf("expected distinct tokens")
	}
}
