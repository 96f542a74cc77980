// Package grpc provides authentication interceptors for internal gRPC
// services. Bearer credentials arrive in the "authorization" metadata and
// are verified with the same dual-mode chain the HTTP endpoints use; the
// resolved account id is placed on the handler context.
package grpc

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// DefaultMetadataKeyAuth is the metadata key carrying the bearer credential.
const DefaultMetadataKeyAuth = "authorization"

type accountIDKey struct{}

// Config holds the metadata key configuration.
type Config struct {
	// MetadataKeyAuth is the gRPC metadata key carrying "Bearer <token>".
	// Defaults to "authorization".
	MetadataKeyAuth string
}

func DefaultConfig() *Config {
	return &Config{MetadataKeyAuth: DefaultMetadataKeyAuth}
}

func (c *Config) EnsureDefaults() {
	if c.MetadataKeyAuth == "" {
		c.MetadataKeyAuth = DefaultMetadataKeyAuth
	}
}

// AccountIDFromContext returns the account id the interceptor resolved, or
// "" for unauthenticated requests.
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

// IsAuthenticated reports whether the context carries a resolved account.
func IsAuthenticated(ctx context.Context) bool {
	return AccountIDFromContext(ctx) != ""
}

// TokenToOutgoingContext attaches a bearer credential to an outgoing call.
func TokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, DefaultMetadataKeyAuth, "Bearer "+token)
}

// authHeaderFromContext returns the first value of the auth metadata key.
func authHeaderFromContext(ctx context.Context, config *Config) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(config.MetadataKeyAuth); len(values) > 0 {
		return values[0]
	}
	return ""
}
