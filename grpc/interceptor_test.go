package grpc

import (
	"context"
	"os"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	ca "github.com/Colin-Posat/cramingo-auth"
	"github.com/Colin-Posat/cramingo-auth/provider/dev"
	"github.com/Colin-Posat/cramingo-auth/stores"
)

// setupResolver builds a resolver over temp-dir stores and returns a valid
// session token for a seeded account.
func setupResolver(t *testing.T) (*ca.AccountResolver, string) {
	tmpDir, err := os.MkdirTemp("", "cramauth-grpc-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	provider, err := dev.New(tmpDir + "/idp")
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	codec, err := ca.NewSessionCodec("test-secret", "cramauth-test")
	if err != nil {
		t.Fatalf("Failed to create codec: %v", err)
	}
	accounts := stores.NewFSAccountStore(tmpDir)
	resolver := &ca.AccountResolver{Accounts: accounts, Provider: provider, Codec: codec}

	token, err := codec.Issue("acct-42", "a@example.com", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return resolver, token
}

func TestInterceptorConfigs(t *testing.T) {
	resolver, _ := setupResolver(t)

	config := DefaultInterceptorConfig(resolver)
	if !config.RequireAuth {
		t.Error("expected RequireAuth to be true by default")
	}
	if config.PublicMethods == nil {
		t.Error("expected PublicMethods to be initialized")
	}

	public := NewPublicMethodsConfig(resolver, "/pkg.Svc/Method1")
	if !public.PublicMethods["/pkg.Svc/Method1"] {
		t.Error("expected Method1 to be public")
	}
	if public.PublicMethods["/pkg.Svc/Method2"] {
		t.Error("expected Method2 to not be public")
	}

	optional := OptionalAuthConfig(resolver)
	if optional.RequireAuth {
		t.Error("expected RequireAuth to be false")
	}
}

func TestUnaryAuthInterceptor(t *testing.T) {
	resolver, token := setupResolver(t)
	interceptor := UnaryAuthInterceptor(DefaultInterceptorConfig(resolver))
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Method"}

	t.Run("valid token", func(t *testing.T) {
		md := metadata.Pairs(DefaultMetadataKeyAuth, "Bearer "+token)
		ctx := metadata.NewIncomingContext(context.Background(), md)

		var gotAccountID string
		_, err := interceptor(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
			gotAccountID = AccountIDFromContext(ctx)
			return "result", nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotAccountID != "acct-42" {
			t.Errorf("account id = %q, want acct-42", gotAccountID)
		}
	})

	t.Run("missing metadata", func(t *testing.T) {
		_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
			t.Error("handler should not be called")
			return nil, nil
		})
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("error = %v, want Unauthenticated", err)
		}
	})

	t.Run("bad token", func(t *testing.T) {
		md := metadata.Pairs(DefaultMetadataKeyAuth, "Bearer garbage")
		ctx := metadata.NewIncomingContext(context.Background(), md)
		_, err := interceptor(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
			t.Error("handler should not be called")
			return nil, nil
		})
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("error = %v, want Unauthenticated", err)
		}
	})

	t.Run("public method", func(t *testing.T) {
		public := UnaryAuthInterceptor(NewPublicMethodsConfig(resolver, "/pkg.Svc/Public"))
		publicInfo := &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Public"}
		called := false
		_, err := public(context.Background(), nil, publicInfo, func(ctx context.Context, req any) (any, error) {
			called = true
			return nil, nil
		})
		if err != nil || !called {
			t.Fatalf("public method blocked: err=%v called=%v", err, called)
		}
	})

	t.Run("optional auth", func(t *testing.T) {
		opt := UnaryAuthInterceptor(OptionalAuthConfig(resolver))
		called := false
		_, err := opt(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
			called = true
			if AccountIDFromContext(ctx) != "" {
				t.Error("unexpected account id")
			}
			return nil, nil
		})
		if err != nil || !called {
			t.Fatalf("optional auth blocked: err=%v called=%v", err, called)
		}
	})
}

// fakeStream is a minimal ServerStream for interceptor tests.
type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeStream) Context() context.Context { return f.ctx }

func TestStreamAuthInterceptor(t *testing.T) {
	resolver, token := setupResolver(t)
	interceptor := StreamAuthInterceptor(DefaultInterceptorConfig(resolver))
	info := &grpc.StreamServerInfo{FullMethod: "/pkg.Svc/Stream"}

	t.Run("valid token", func(t *testing.T) {
		md := metadata.Pairs(DefaultMetadataKeyAuth, "Bearer "+token)
		stream := &fakeStream{ctx: metadata.NewIncomingContext(context.Background(), md)}

		var gotAccountID string
		err := interceptor(nil, stream, info, func(srv any, ss grpc.ServerStream) error {
			gotAccountID = AccountIDFromContext(ss.Context())
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotAccountID != "acct-42" {
			t.Errorf("account id = %q, want acct-42", gotAccountID)
		}
	})

	t.Run("missing metadata", func(t *testing.T) {
		stream := &fakeStream{ctx: context.Background()}
		err := interceptor(nil, stream, info, func(srv any, ss grpc.ServerStream) error {
			t.Error("handler should not be called")
			return nil
		})
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("error = %v, want Unauthenticated", err)
		}
	})
}
