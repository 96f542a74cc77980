//go:build !wasm
// +build !wasm

// Package gae provides Google Cloud Datastore implementations of the
// cramauth store interfaces, for deployment on Google Cloud Platform.
//
// # Datastore Kinds
//
//   - StagedSignup: credentials staged during the two-phase signup,
//     keyed by email
//   - UserAccount: durable profile documents, keyed by the provider-issued
//     account id, with an indexed email property for the secondary lookup
//
// # Namespacing
//
// Both stores accept a Datastore namespace to isolate environments:
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	signups := gae.NewSignupStore(client, "")
//	accounts := gae.NewAccountStore(client, "")
package gae
