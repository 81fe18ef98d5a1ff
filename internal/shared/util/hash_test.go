package util

import "testing"

func TestHashUserKey(t *testing.T) {
	id := "email:a1b2c3"
	got := HashUserKey(id)
	if got != HashUserKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestHashUserKeyDistinguishesUsers(t *testing.T) {
	if HashUserKey("email:one") == HashUserKey("email:two") {
		t.Fatal("expected distinct hashes for distinct users")
	}
}
