package cramauth_test

import (
	"os"
	"testing"

	ca "github.com/Colin-Posat/cramingo-auth"
	"github.com/Colin-Posat/cramingo-auth/provider/dev"
	"github.com/Colin-Posat/cramingo-auth/stores"
)

// testEnv bundles the pieces most tests need.
type testEnv struct {
	Signups  ca.SignupStore
	Accounts ca.AccountStore
	Provider *dev.Provider
	Codec    *ca.SessionCodec
	Flow     *ca.SignupFlow
	Resolver *ca.AccountResolver
	Merger   *ca.AccountMerger
}

// setupTestEnv creates a temporary storage directory and wires the flows
// against the file stores and the dev identity provider.
func setupTestEnv(t *testing.T) (*testEnv, string) {
	tmpDir, err := os.MkdirTemp("", "cramauth-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	provider, err := dev.New(tmpDir + "/idp")
	if err != nil {
		t.Fatalf("Failed to create dev provider: %v", err)
	}
	codec, err := ca.NewSessionCodec("test-secret-key", "cramauth-test")
	if err != nil {
		t.Fatalf("Failed to create session codec: %v", err)
	}

	env := &testEnv{
		Signups:  stores.NewFSSignupStore(tmpDir),
		Accounts: stores.NewFSAccountStore(tmpDir),
		Provider: provider,
		Codec:    codec,
	}
	env.Flow = &ca.SignupFlow{Signups: env.Signups, Accounts: env.Accounts, Provider: env.Provider, Codec: env.Codec}
	env.Resolver = &ca.AccountResolver{Accounts: env.Accounts, Provider: env.Provider, Codec: env.Codec}
	env.Merger = &ca.AccountMerger{Accounts: env.Accounts}
	return env, tmpDir
}

// cleanup removes the temporary storage directory
func cleanup(t *testing.T, tmpDir string) {
	if err := os.RemoveAll(tmpDir); err != nil {
		t.Logf("Warning: failed to cleanup temp dir: %v", err)
	}
}
