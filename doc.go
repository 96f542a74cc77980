// Package cramauth implements account resolution and session issuance for
// the Cramingo backend.
//
// Cramauth separates the problem into four collaborators: a signup flow, an
// account resolver, an account merger, and a session token codec. Durable
// state lives in two external collaborators injected at construction time.
//
// # Architecture
//
// StagedSignup: credentials recorded when a signup starts, held until the
// client supplies the remaining profile data. No durable account exists yet.
//
// UserAccount: the durable profile document, keyed by the account id the
// identity provider issued. Email is the cross-provider join key.
//
// IdentityProvider: the external authority of record for account existence,
// password verification, identity-token verification, and provider links.
//
// SessionCredential: a stateless signed token carrying account id, email and
// username, valid for seven days. There is no server-side session table.
//
// # Basic Usage
//
// Set up stores and a provider, then wire the flow components:
//
//	signups := stores.NewFSSignupStore(storagePath)
//	accounts := stores.NewFSAccountStore(storagePath)
//	provider, err := dev.New(storagePath)
//	codec, err := cramauth.NewSessionCodec(secretKey, "cramingo")
//
//	flow := &cramauth.SignupFlow{
//	    Signups:  signups,
//	    Accounts: accounts,
//	    Provider: provider,
//	    Codec:    codec,
//	}
//	resolver := &cramauth.AccountResolver{
//	    Accounts: accounts,
//	    Provider: provider,
//	    Codec:    codec,
//	}
//	merger := &cramauth.AccountMerger{Accounts: accounts}
//
// The httpapi package mounts these behind the JSON endpoint surface; the
// grpc package verifies the same session credentials on gRPC metadata.
//
// # Store Implementations
//
// The stores package provides a file-based document store suitable for
// development and tests, a Cloud Datastore implementation for production,
// and a GORM implementation for SQL deployments.
//
// # Concurrency
//
// All operations are request scoped. The stores provide per-document atomic
// reads and writes but no cross-document transactions; concurrent finalize
// attempts for the same email are resolved by the identity provider's own
// email-uniqueness constraint, and the loser observes a duplicate-account
// error rather than a partial state.
//
// # Testing
//
// Handlers and flows are tested without a running server using
// httptest.NewRequest and httptest.ResponseRecorder, with temporary storage
// directories for isolation.
package cramauth
