package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	ca "github.com/Colin-Posat/cramingo-auth"
)

// InterceptorConfig configures the auth interceptor behavior.
type InterceptorConfig struct {
	// Config holds the metadata key configuration.
	*Config

	// Resolver verifies incoming bearer credentials.
	Resolver *ca.AccountResolver

	// RequireAuth when true rejects unauthenticated requests.
	// When false, requests proceed but AccountIDFromContext returns "".
	RequireAuth bool

	// PublicMethods is a set of method names that don't require auth.
	// Only used when RequireAuth is true. Keys are full method names like
	// "/package.Service/Method".
	PublicMethods map[string]bool
}

// DefaultInterceptorConfig returns a config that requires auth for all
// methods.
func DefaultInterceptorConfig(resolver *ca.AccountResolver) *InterceptorConfig {
	return &InterceptorConfig{
		Config:        DefaultConfig(),
		Resolver:      resolver,
		RequireAuth:   true,
		PublicMethods: make(map[string]bool),
	}
}

// NewPublicMethodsConfig creates a config with the specified public methods.
func NewPublicMethodsConfig(resolver *ca.AccountResolver, publicMethods ...string) *InterceptorConfig {
	config := DefaultInterceptorConfig(resolver)
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

// OptionalAuthConfig returns a config that allows unauthenticated requests.
func OptionalAuthConfig(resolver *ca.AccountResolver) *InterceptorConfig {
	config := DefaultInterceptorConfig(resolver)
	config.RequireAuth = false
	return config
}

func (c *InterceptorConfig) ensureDefaults() {
	if c.Config == nil {
		c.Config = DefaultConfig()
	}
	c.Config.EnsureDefaults()
	if c.PublicMethods == nil {
		c.PublicMethods = make(map[string]bool)
	}
}

// UnaryAuthInterceptor returns a gRPC unary interceptor that verifies the
// bearer credential from metadata and injects the account id.
func UnaryAuthInterceptor(config *InterceptorConfig) grpc.UnaryServerInterceptor {
	config.ensureDefaults()
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		accountID := config.resolveAccount(ctx)
		if config.RequireAuth && !config.PublicMethods[info.FullMethod] && accountID == "" {
			return nil, status.Error(codes.Unauthenticated, "authentication required")
		}
		if accountID != "" {
			ctx = WithAccountID(ctx, accountID)
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor returns a gRPC stream interceptor with the same
// behavior as UnaryAuthInterceptor.
func StreamAuthInterceptor(config *InterceptorConfig) grpc.StreamServerInterceptor {
	config.ensureDefaults()
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()
		accountID := config.resolveAccount(ctx)
		if config.RequireAuth && !config.PublicMethods[info.FullMethod] && accountID == "" {
			return status.Error(codes.Unauthenticated, "authentication required")
		}
		if accountID != "" {
			ss = &wrappedStream{ServerStream: ss, ctx: WithAccountID(ctx, accountID)}
		}
		return handler(srv, ss)
	}
}

// resolveAccount verifies the bearer metadata value. A missing or invalid
// credential resolves to "".
func (c *InterceptorConfig) resolveAccount(ctx context.Context) string {
	header := authHeaderFromContext(ctx, c.Config)
	if header == "" {
		return ""
	}
	claims, err := c.Resolver.ByBearerSession(ctx, header)
	if err != nil {
		return ""
	}
	return claims.AccountID
}

// wrappedStream overrides the stream context with the authenticated one.
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}
