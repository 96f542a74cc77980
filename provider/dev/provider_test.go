package dev_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	ca "github.com/Colin-Posat/cramingo-auth"
	"github.com/Colin-Posat/cramingo-auth/provider/dev"
)

func setupProvider(t *testing.T) *dev.Provider {
	tmpDir, err := os.MkdirTemp("", "cramauth-devidp-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	p, err := dev.New(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	return p
}

func TestCreateUserAndVerifyPassword(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	pu, err := p.CreateUser(ctx, "Alice@Example.com", "hunter2", "alice")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if pu.UID == "" {
		t.Fatal("empty uid")
	}
	if pu.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased", pu.Email)
	}

	got, err := p.VerifyPassword(ctx, "alice@example.com", "hunter2")
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if got.UID != pu.UID {
		t.Errorf("uid = %s, want %s", got.UID, pu.UID)
	}

	if _, err := p.VerifyPassword(ctx, "alice@example.com", "wrong"); !errors.Is(err, ca.ErrProviderUserNotFound) {
		t.Errorf("wrong password error = %v, want ErrProviderUserNotFound", err)
	}
	if _, err := p.VerifyPassword(ctx, "nobody@example.com", "hunter2"); !errors.Is(err, ca.ErrProviderUserNotFound) {
		t.Errorf("unknown email error = %v, want ErrProviderUserNotFound", err)
	}
}

func TestCreateUserEnforcesEmailUniqueness(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	if _, err := p.CreateUser(ctx, "bob@example.com", "pass1", "bob"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := p.CreateUser(ctx, "BOB@example.com", "pass2", "bob2"); !errors.Is(err, ca.ErrEmailInUse) {
		t.Fatalf("duplicate CreateUser error = %v, want ErrEmailInUse", err)
	}
	if _, err := p.CreateGoogleUser(ctx, "bob@example.com", "Bob", ""); !errors.Is(err, ca.ErrEmailInUse) {
		t.Fatalf("duplicate CreateGoogleUser error = %v, want ErrEmailInUse", err)
	}
}

func TestProviderLinks(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	pu, err := p.CreateUser(ctx, "carol@example.com", "pass", "carol")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	links, err := p.ProviderLinks(ctx, pu.UID)
	if err != nil {
		t.Fatalf("ProviderLinks failed: %v", err)
	}
	if len(links) != 1 || links[0] != "password" {
		t.Fatalf("links = %v, want [password]", links)
	}

	if err := p.AddProviderLink(ctx, pu.UID, ca.GoogleProviderID); err != nil {
		t.Fatalf("AddProviderLink failed: %v", err)
	}
	// Linking twice is a no-op.
	if err := p.AddProviderLink(ctx, pu.UID, ca.GoogleProviderID); err != nil {
		t.Fatalf("second AddProviderLink failed: %v", err)
	}
	links, _ = p.ProviderLinks(ctx, pu.UID)
	if len(links) != 2 || links[1] != ca.GoogleProviderID {
		t.Fatalf("links = %v, want [password google.com]", links)
	}
}

func TestLoginTokenLifecycle(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	pu, err := p.CreateGoogleUser(ctx, "dora@example.com", "Dora", "")
	if err != nil {
		t.Fatalf("CreateGoogleUser failed: %v", err)
	}

	token, err := p.CreateLoginToken(ctx, pu.UID)
	if err != nil {
		t.Fatalf("CreateLoginToken failed: %v", err)
	}
	got, err := p.VerifyIDToken(ctx, token)
	if err != nil {
		t.Fatalf("VerifyIDToken failed: %v", err)
	}
	if got.UID != pu.UID || got.Email != "dora@example.com" {
		t.Errorf("got %+v", got)
	}

	// Single use.
	if _, err := p.VerifyIDToken(ctx, token); err == nil {
		t.Fatal("replayed token accepted")
	}

	if _, err := p.CreateLoginToken(ctx, "no-such-uid"); !errors.Is(err, ca.ErrProviderUserNotFound) {
		t.Errorf("CreateLoginToken for unknown uid = %v, want ErrProviderUserNotFound", err)
	}
}

func TestLoginTokenExpiry(t *testing.T) {
	p := setupProvider(t)
	p.LoginTokenTTL = -time.Second
	ctx := context.Background()

	pu, err := p.CreateGoogleUser(ctx, "earl@example.com", "Earl", "")
	if err != nil {
		t.Fatalf("CreateGoogleUser failed: %v", err)
	}
	token, err := p.CreateLoginToken(ctx, pu.UID)
	if err != nil {
		t.Fatalf("CreateLoginToken failed: %v", err)
	}
	if _, err := p.VerifyIDToken(ctx, token); err == nil {
		t.Fatal("expired token accepted")
	}
}
