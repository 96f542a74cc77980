package cramauth_test

import (
	"testing"
	"time"

	ca "github.com/Colin-Posat/cramingo-auth"
)

func TestSessionCodecRoundTrip(t *testing.T) {
	codec, err := ca.NewSessionCodec("secret", "cramauth-test")
	if err != nil {
		t.Fatalf("NewSessionCodec failed: %v", err)
	}

	token, err := codec.Issue("acct-1", "a@example.com", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.AccountID != "acct-1" || claims.Email != "a@example.com" || claims.Username != "alice" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestSessionCodecRequiresKey(t *testing.T) {
	if _, err := ca.NewSessionCodec("", "issuer"); err == nil {
		t.Fatal("expected error for empty signing key")
	}
}

func TestSessionCodecExpiry(t *testing.T) {
	codec, err := ca.NewSessionCodec("secret", "cramauth-test")
	if err != nil {
		t.Fatalf("NewSessionCodec failed: %v", err)
	}
	codec.TTL = -time.Hour

	token, err := codec.Issue("acct-1", "a@example.com", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	_, err = codec.Verify(token)
	if !ca.IsCode(err, ca.ErrCodeTokenExpired) {
		t.Fatalf("Verify error = %v, want token_expired", err)
	}
}

func TestSessionCodecRejectsForeignTokens(t *testing.T) {
	codec, _ := ca.NewSessionCodec("secret", "cramauth-test")

	otherKey, _ := ca.NewSessionCodec("other-secret", "cramauth-test")
	otherIssuer, _ := ca.NewSessionCodec("secret", "someone-else")

	tests := []struct {
		name  string
		token func() string
	}{
		{"garbage", func() string { return "not.a.token" }},
		{"wrong key", func() string {
			tok, _ := otherKey.Issue("acct-1", "a@example.com", "alice")
			return tok
		}},
		{"wrong issuer", func() string {
			tok, _ := otherIssuer.Issue("acct-1", "a@example.com", "alice")
			return tok
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := codec.Verify(tt.token()); !ca.IsCode(err, ca.ErrCodeInvalidToken) {
				t.Fatalf("Verify error = %v, want invalid_token", err)
			}
		})
	}
}

func TestSessionCodecDefaultTTL(t *testing.T) {
	if ca.DefaultSessionTTL != 7*24*time.Hour {
		t.Fatalf("default TTL = %v, want 7 days", ca.DefaultSessionTTL)
	}
}
