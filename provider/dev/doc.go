// Package dev implements a file-backed identity provider for local
// development and tests. Accounts live as JSON documents on disk, passwords
// are hashed with bcrypt, and login tokens are single-use random values
// with a short expiry.
//
// The provider enforces email uniqueness when creating accounts, matching
// the guarantee production providers give, so signup race behavior can be
// exercised without network access.
//
// Not safe for multi-process use; a single mutex guards all state.
package dev
