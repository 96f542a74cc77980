package cramauth

import (
	"context"
	"log/slog"
	"net/http"
)

type accountIDKey struct{}

// Middleware extracts the authenticated account from incoming requests and
// makes it available to downstream handlers. Tokens are accepted from the
// Authorization header and, when configured, from a cookie set by the
// browser-session login mode.
type Middleware struct {
	Resolver *AccountResolver

	// AuthHeader defaults to "Authorization".
	AuthHeader string

	// AuthCookieName optionally names a cookie holding a bare session
	// token (no Bearer prefix).
	AuthCookieName string
}

func (m *Middleware) EnsureDefaults() {
	if m.AuthHeader == "" {
		m.AuthHeader = "Authorization"
	}
}

// AccountIDFromContext returns the account id a middleware stored on the
// request context, or "" when the request is unauthenticated.
func AccountIDFromContext(ctx context.Context) string {
	if v := ctx.Value(accountIDKey{}); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithAccountID returns a context carrying the account id.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey{}, accountID)
}

// ExtractAccount resolves the bearer credential if one is present and
// stores the account id in the request context. It never rejects; use
// RequireAccount to enforce authentication.
func (m *Middleware) ExtractAccount(next http.Handler) http.Handler {
	m.EnsureDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := m.resolve(r); claims != nil {
			r = r.WithContext(WithAccountID(r.Context(), claims.AccountID))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAccount rejects requests that carry no verifiable credential.
func (m *Middleware) RequireAccount(next http.Handler) http.Handler {
	m.EnsureDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := m.resolve(r)
		if claims == nil {
			http.Error(w, `{"error": "Authorization required", "code": "unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAccountID(r.Context(), claims.AccountID)))
	})
}

func (m *Middleware) resolve(r *http.Request) *SessionClaims {
	candidates := r.Header.Values(m.AuthHeader)
	if m.AuthCookieName != "" {
		for _, cookie := range r.CookiesNamed(m.AuthCookieName) {
			if cookie.Value != "" {
				candidates = append(candidates, "Bearer "+cookie.Value)
			}
		}
	}
	for _, candidate := range candidates {
		claims, err := m.Resolver.ByBearerSession(r.Context(), candidate)
		if err == nil {
			return claims
		}
		slog.Warn("bearer credential rejected", "error", err)
	}
	return nil
}
