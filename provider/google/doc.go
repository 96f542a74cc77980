// Package google implements the identity provider interface on top of
// Google's Identity Toolkit REST API and ID token verification.
//
// Identity tokens are validated locally via google.golang.org/api/idtoken
// against the configured OAuth client id. Account lookup, password
// verification, and account creation go through the Identity Toolkit
// accounts:lookup, accounts:signInWithPassword, and accounts:signUp
// endpoints authenticated by API key. One-time login tokens are signed
// with a service account key when one is configured.
package google
