package cramauth

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
)

// Resolution is the outcome of mapping a login signal to an account.
// NeedsLinking is set when the account exists under a different credential
// type and must not be silently logged into.
type Resolution struct {
	AccountID    string
	NeedsLinking bool
}

// AccountResolver maps heterogeneous login inputs to exactly one account.
type AccountResolver struct {
	Accounts AccountStore
	Provider IdentityProvider
	Codec    *SessionCodec
}

// verifyStrategy is one step in an ordered verification chain. Each
// strategy either yields an account id or an error; the first success wins.
type verifyStrategy func(ctx context.Context, token string) (string, error)

// ByPassword resolves a password login by email. The provider performs the
// actual password check; every credential failure collapses to the same
// low-detail error so callers cannot probe which emails exist.
func (r *AccountResolver) ByPassword(ctx context.Context, email, password string) (*Resolution, error) {
	if email == "" {
		return nil, NewAuthError(ErrCodeValidation, "Email is required", "email")
	}
	if password == "" {
		return nil, NewAuthError(ErrCodeValidation, "Password is required", "password")
	}
	pu, err := r.Provider.VerifyPassword(ctx, strings.ToLower(email), password)
	if err != nil {
		if errors.Is(err, ErrProviderUserNotFound) {
			return nil, NewAuthError(ErrCodeInvalidCreds, "Invalid credentials", "")
		}
		return nil, err
	}
	return &Resolution{AccountID: pu.UID}, nil
}

// ByGoogleToken verifies a provider-issued identity token. The embedded
// account id is authoritative; no further provider lookups happen.
func (r *AccountResolver) ByGoogleToken(ctx context.Context, token string) (*Resolution, error) {
	pu, err := r.Provider.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, NewAuthError(ErrCodeInvalidToken, "Invalid identity token", "token")
	}
	return &Resolution{AccountID: pu.UID}, nil
}

// ByGoogleEmailFallback handles Google logins whose token may not be a
// verifiable identity token (custom tokens from client-side flows). The
// token is tried first; on failure the account is looked up by email and
// its provider links decide whether a Google login may proceed. An account
// without a Google link is refused with a linking hint instead of a
// session.
func (r *AccountResolver) ByGoogleEmailFallback(ctx context.Context, email, token string) (*Resolution, error) {
	if email == "" {
		return nil, NewAuthError(ErrCodeValidation, "Email is required", "email")
	}

	if pu, err := r.Provider.VerifyIDToken(ctx, token); err == nil {
		return &Resolution{AccountID: pu.UID}, nil
	} else {
		slog.Warn("identity token verification failed, falling back to email lookup", "error", err)
	}

	pu, err := r.Provider.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, ErrProviderUserNotFound) {
			return nil, NewAuthError(ErrCodeInvalidToken, "Invalid identity token", "token")
		}
		return nil, err
	}

	links, err := r.Provider.ProviderLinks(ctx, pu.UID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(links, GoogleProviderID) {
		return &Resolution{AccountID: pu.UID, NeedsLinking: true},
			NewAuthError(ErrCodeProviderMismatch, "Account exists with a different sign-in method", "")
	}
	return &Resolution{AccountID: pu.UID}, nil
}

// ByBearerSession resolves a bearer Authorization header value. Both
// locally issued session credentials and provider-issued identity tokens
// arrive at the same call sites, so verification is an ordered strategy
// chain: the session codec first, then the identity provider. Only when
// every strategy fails is the token rejected.
func (r *AccountResolver) ByBearerSession(ctx context.Context, headerValue string) (*SessionClaims, error) {
	token, ok := stripBearer(headerValue)
	if !ok {
		return nil, NewAuthError(ErrCodeUnauthorized, "Authorization required", "")
	}

	strategies := []verifyStrategy{
		func(_ context.Context, t string) (string, error) {
			claims, err := r.Codec.Verify(t)
			if err != nil {
				return "", err
			}
			return claims.AccountID, nil
		},
		func(ctx context.Context, t string) (string, error) {
			pu, err := r.Provider.VerifyIDToken(ctx, t)
			if err != nil {
				return "", err
			}
			return pu.UID, nil
		},
	}

	var lastErr error
	for _, verify := range strategies {
		accountID, err := verify(ctx, token)
		if err == nil && accountID != "" {
			return r.claimsFor(ctx, accountID)
		}
		lastErr = err
	}
	slog.Warn("bearer token failed all verification strategies", "error", lastErr)
	return nil, NewAuthError(ErrCodeInvalidToken, "Invalid or expired token", "")
}

// claimsFor fills session claims from the stored account when one exists;
// a provider-only identity still resolves, with profile fields left empty.
func (r *AccountResolver) claimsFor(ctx context.Context, accountID string) (*SessionClaims, error) {
	account, err := r.Accounts.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &SessionClaims{AccountID: accountID}, nil
		}
		return nil, err
	}
	return &SessionClaims{
		AccountID: account.AccountID,
		Email:     account.Email,
		Username:  account.Username,
	}, nil
}

// stripBearer splits a "Bearer <token>" header value.
func stripBearer(headerValue string) (string, bool) {
	parts := strings.SplitN(headerValue, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
