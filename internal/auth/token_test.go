package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := CreateAccessToken("s3cret", "alice", time.Hour)
	if err != nil {
		t.Fatalf("CreateAccessToken error: %v", err)
	}

	principal, err := ParseValidate("s3cret", token)
	if err != nil {
		t.Fatalf("ParseValidate error: %v", err)
	}
	if principal != "alice" {
		t.Fatalf("principal = %q, want %q", principal, "alice")
	}
}

func TestParseValidate_WrongSecret(t *testing.T) {
	token, err := CreateAccessToken("s3cret", "alice", time.Hour)
	if err != nil {
		t.Fatalf("CreateAccessToken error: %v", err)
	}
	if _, err := ParseValidate("other", token); err == nil {
		t.Fatalf("expected error for wrong secret")
	}
}

func TestParseValidate_ExpiredToken(t *testing.T) {
	token, err := CreateAccessToken("s3cret", "alice", -time.Minute)
	if err != nil {
		t.Fatalf("CreateAccessToken error: %v", err)
	}
	if _, err := ParseValidate("s3cret", token); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestParseValidate_Garbage(t *testing.T) {
	if _, err := ParseValidate("s3cret", "not-a-token"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}
