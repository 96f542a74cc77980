//go:build !wasm
// +build !wasm

// Package gorm provides GORM-based implementations of the cramauth store
// interfaces. It supports any database that GORM supports (PostgreSQL, MySQL,
// SQLite, etc.) and is suitable for deployments requiring relational storage.
//
// # Database Schema
//
// The package auto-migrates the following tables:
//   - staged_signups: Pending signups awaiting profile completion
//   - user_accounts: Finalized account documents, keyed by provider UID
//
// The user_accounts.email column carries a unique index so concurrent
// finalizations of the same email cannot both persist a profile.
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	gormstore.AutoMigrate(db)
//	signups := gormstore.NewSignupStore(db)
//	accounts := gormstore.NewAccountStore(db)
package gorm
