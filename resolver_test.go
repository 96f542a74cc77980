package cramauth_test

import (
	"context"
	"testing"

	ca "github.com/Colin-Posat/cramingo-auth"
)

// signupAccount runs the full signup for a password account and returns it.
func signupAccount(t *testing.T, env *testEnv, email, password, username string) *ca.UserAccount {
	t.Helper()
	ctx := context.Background()
	if err := env.Flow.Initiate(ctx, email, password, username); err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	result, err := env.Flow.Finalize(ctx, email, "UCSC", "")
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	return result.Account
}

func TestResolveByPassword(t *testing.T) {
	env, tmpDir := setupTestEnv(t)
	defer cleanup(t, tmpDir)
	ctx := context.Background()

	account := signupAccount(t, env, "alice@example.com", "hunter2", "alice")

	tests := []struct {
		name     string
		email    string
		password string
		wantCode string
	}{
		{"success", "alice@example.com", "hunter2", ""},
		{"mixed case email", "ALICE@example.com", "hunter2", ""},
		{"wrong password", "alice@example.com", "nope", ca.ErrCodeInvalidCreds},
		{"unknown email", "nobody@example.com", "hunter2", ca.ErrCodeInvalidCreds},
		{"missing email", "", "hunter2", ca.ErrCodeValidation},
		{"missing password", "alice@example.com", "", ca.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.Resolver.ByPassword(ctx, tt.email, tt.password)
			if tt.wantCode != "" {
				if !ca.IsCode(err, tt.wantCode) {
					t.Fatalf("ByPassword error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("ByPassword failed: %v", err)
			}
			if res.AccountID != account.AccountID {
				t.Errorf("account id = %s, want %s", res.AccountID, account.AccountID)
			}
		})
	}
}

func TestResolveByGoogleToken(t *testing.T) {
	env, tmpDir := setupTestEnv(t)
	defer cleanup(t, tmpDir)
	ctx := context.Background()

	pu, err := env.Provider.CreateGoogleUser(ctx, "gina@example.com", "Gina", "")
	if err != nil {
		t.Fatalf("CreateGoogleUser failed: %v", err)
	}
	token, err := env.Provider.CreateLoginToken(ctx, pu.UID)
	if err != nil {
		t.Fatalf("CreateLoginToken failed: %v", err)
	}

	res, err := env.Resolver.ByGoogleToken(ctx, token)
	if err != nil {
		t.Fatalf("ByGoogleToken failed: %v", err)
	}
	if res.AccountID != pu.UID {
		t.Errorf("account id = %s, want %s", res.AccountID, pu.UID)
	}

	// Dev tokens are single use, so a replay must be rejected.
	if _, err := env.Resolver.ByGoogleToken(ctx, token); !ca.IsCode(err, ca.ErrCodeInvalidToken) {
		t.Fatalf("replayed token error = %v, want invalid_token", err)
	}
}

func TestResolveByGoogleEmailFallback(t *testing.T) {
	env, tmpDir := setupTestEnv(t)
	defer cleanup(t, tmpDir)
	ctx := context.Background()

	googleUser, err := env.Provider.CreateGoogleUser(ctx, "gmail@example.com", "G", "")
	if err != nil {
		t.Fatalf("CreateGoogleUser failed: %v", err)
	}
	passwordAccount := signupAccount(t, env, "local@example.com", "pass123", "local")

	t.Run("verifiable token wins", func(t *testing.T) {
		token, err := env.Provider.CreateLoginToken(ctx, googleUser.UID)
		if err != nil {
			t.Fatalf("CreateLoginToken failed: %v", err)
		}
		res, err := env.Resolver.ByGoogleEmailFallback(ctx, "gmail@example.com", token)
		if err != nil {
			t.Fatalf("fallback failed: %v", err)
		}
		if res.AccountID != googleUser.UID || res.NeedsLinking {
			t.Errorf("resolution = %+v", res)
		}
	})

	t.Run("unverifiable token falls back to email", func(t *testing.T) {
		res, err := env.Resolver.ByGoogleEmailFallback(ctx, "gmail@example.com", "opaque-custom-token")
		if err != nil {
			t.Fatalf("fallback failed: %v", err)
		}
		if res.AccountID != googleUser.UID {
			t.Errorf("account id = %s, want %s", res.AccountID, googleUser.UID)
		}
	})

	t.Run("password account refuses google login", func(t *testing.T) {
		res, err := env.Resolver.ByGoogleEmailFallback(ctx, "local@example.com", "opaque-custom-token")
		if !ca.IsCode(err, ca.ErrCodeProviderMismatch) {
			t.Fatalf("error = %v, want provider_mismatch", err)
		}
		if res == nil || !res.NeedsLinking {
			t.Fatalf("resolution = %+v, want NeedsLinking", res)
		}
		if res.AccountID != passwordAccount.AccountID {
			t.Errorf("account id = %s, want %s", res.AccountID, passwordAccount.AccountID)
		}
	})

	t.Run("linked account allows google login", func(t *testing.T) {
		if err := env.Provider.AddProviderLink(ctx, passwordAccount.AccountID, ca.GoogleProviderID); err != nil {
			t.Fatalf("AddProviderLink failed: %v", err)
		}
		res, err := env.Resolver.ByGoogleEmailFallback(ctx, "local@example.com", "opaque-custom-token")
		if err != nil {
			t.Fatalf("fallback after linking failed: %v", err)
		}
		if res.NeedsLinking {
			t.Error("NeedsLinking set after the provider was linked")
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := env.Resolver.ByGoogleEmailFallback(ctx, "stranger@example.com", "opaque-custom-token")
		if !ca.IsCode(err, ca.ErrCodeInvalidToken) {
			t.Fatalf("error = %v, want invalid_token", err)
		}
	})
}

func TestResolveByBearerSession(t *testing.T) {
	env, tmpDir := setupTestEnv(t)
	defer cleanup(t, tmpDir)
	ctx := context.Background()

	account := signupAccount(t, env, "henry@example.com", "pass123", "henry")

	t.Run("session token", func(t *testing.T) {
		token, err := env.Codec.Issue(account.AccountID, account.Email, account.Username)
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		claims, err := env.Resolver.ByBearerSession(ctx, "Bearer "+token)
		if err != nil {
			t.Fatalf("ByBearerSession failed: %v", err)
		}
		if claims.AccountID != account.AccountID || claims.Username != "henry" {
			t.Errorf("claims = %+v", claims)
		}
	})

	t.Run("provider token accepted as fallback", func(t *testing.T) {
		token, err := env.Provider.CreateLoginToken(ctx, account.AccountID)
		if err != nil {
			t.Fatalf("CreateLoginToken failed: %v", err)
		}
		claims, err := env.Resolver.ByBearerSession(ctx, "Bearer "+token)
		if err != nil {
			t.Fatalf("ByBearerSession failed: %v", err)
		}
		if claims.AccountID != account.AccountID {
			t.Errorf("account id = %s, want %s", claims.AccountID, account.AccountID)
		}
	})

	t.Run("lowercase scheme", func(t *testing.T) {
		token, _ := env.Codec.Issue(account.AccountID, account.Email, account.Username)
		if _, err := env.Resolver.ByBearerSession(ctx, "bearer "+token); err != nil {
			t.Fatalf("ByBearerSession failed: %v", err)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		if _, err := env.Resolver.ByBearerSession(ctx, ""); !ca.IsCode(err, ca.ErrCodeUnauthorized) {
			t.Fatalf("error = %v, want unauthorized", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := env.Resolver.ByBearerSession(ctx, "Bearer garbage"); !ca.IsCode(err, ca.ErrCodeInvalidToken) {
			t.Fatalf("error = %v, want invalid_token", err)
		}
	})

	t.Run("provider identity without profile document", func(t *testing.T) {
		pu, err := env.Provider.CreateGoogleUser(ctx, "noprofile@example.com", "NP", "")
		if err != nil {
			t.Fatalf("CreateGoogleUser failed: %v", err)
		}
		token, _ := env.Codec.Issue(pu.UID, "", "")
		claims, err := env.Resolver.ByBearerSession(ctx, "Bearer "+token)
		if err != nil {
			t.Fatalf("ByBearerSession failed: %v", err)
		}
		if claims.AccountID != pu.UID || claims.Email != "" {
			t.Errorf("claims = %+v, want bare account id", claims)
		}
	})
}
