package dev

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	ca "github.com/Colin-Posat/cramingo-auth"
)

// DefaultLoginTokenTTL bounds how long a one-time login token stays
// redeemable.
const DefaultLoginTokenTTL = 5 * time.Minute

// userRecord is the on-disk shape of a provider account.
type userRecord struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName,omitempty"`
	PhotoURL     string    `json:"photoUrl,omitempty"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Providers    []string  `json:"providers"`
	CreatedAt    time.Time `json:"createdAt"`
}

// tokenRecord is a one-time login token awaiting redemption.
type tokenRecord struct {
	UID       string    `json:"uid"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Provider is a file-backed identity provider for development and tests.
// It keeps provider accounts as JSON documents under StoragePath and
// enforces email uniqueness at account creation, which is the property
// concurrent signup finalizations lean on.
type Provider struct {
	StoragePath string

	// LoginTokenTTL defaults to DefaultLoginTokenTTL when zero.
	LoginTokenTTL time.Duration

	mu sync.Mutex
}

func New(storagePath string) (*Provider, error) {
	if storagePath == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	for _, dir := range []string{"users", "users_by_email", "tokens"} {
		if err := os.MkdirAll(filepath.Join(storagePath, dir), 0755); err != nil {
			return nil, err
		}
	}
	return &Provider{StoragePath: storagePath}, nil
}

func (p *Provider) userPath(uid string) string {
	return filepath.Join(p.StoragePath, "users", uid+".json")
}

func (p *Provider) emailPath(email string) string {
	return filepath.Join(p.StoragePath, "users_by_email", url.QueryEscape(strings.ToLower(email))+".json")
}

func (p *Provider) tokenPath(token string) string {
	return filepath.Join(p.StoragePath, "tokens", token+".json")
}

func (p *Provider) readUser(path string) (*userRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ca.ErrProviderUserNotFound
		}
		return nil, err
	}
	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *Provider) writeUser(rec *userRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.userPath(rec.UID), data, 0644); err != nil {
		return err
	}
	link := map[string]string{"uid": rec.UID}
	linkData, _ := json.Marshal(link)
	return os.WriteFile(p.emailPath(rec.Email), linkData, 0644)
}

func (p *Provider) lookupByEmail(email string) (*userRecord, error) {
	data, err := os.ReadFile(p.emailPath(email))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ca.ErrProviderUserNotFound
		}
		return nil, err
	}
	var link struct {
		UID string `json:"uid"`
	}
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, err
	}
	return p.readUser(p.userPath(link.UID))
}

func toProviderUser(rec *userRecord) *ca.ProviderUser {
	return &ca.ProviderUser{
		UID:         rec.UID,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
		PhotoURL:    rec.PhotoURL,
	}
}

func (p *Provider) GetUserByEmail(ctx context.Context, email string) (*ca.ProviderUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, err := p.lookupByEmail(email)
	if err != nil {
		return nil, err
	}
	return toProviderUser(rec), nil
}

func (p *Provider) GetUser(ctx context.Context, uid string) (*ca.ProviderUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, err := p.readUser(p.userPath(uid))
	if err != nil {
		return nil, err
	}
	return toProviderUser(rec), nil
}

func (p *Provider) VerifyPassword(ctx context.Context, email, password string) (*ca.ProviderUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, err := p.lookupByEmail(email)
	if err != nil {
		return nil, err
	}
	if rec.PasswordHash == "" {
		return nil, ca.ErrProviderUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return nil, ca.ErrProviderUserNotFound
	}
	return toProviderUser(rec), nil
}

func (p *Provider) CreateUser(ctx context.Context, email, password, displayName string) (*ca.ProviderUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	email = strings.ToLower(email)
	if _, err := p.lookupByEmail(email); err == nil {
		return nil, ca.ErrEmailInUse
	} else if !errors.Is(err, ca.ErrProviderUserNotFound) {
		return nil, err
	}

	rec := &userRecord{
		UID:         generateUID(),
		Email:       email,
		DisplayName: displayName,
		Providers:   []string{"password"},
		CreatedAt:   time.Now().UTC(),
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		rec.PasswordHash = string(hash)
	}
	if err := p.writeUser(rec); err != nil {
		return nil, err
	}
	return toProviderUser(rec), nil
}

// CreateGoogleUser registers a provider account that signs in with Google
// instead of a password. Tests and the dev login page use this to seed
// Google identities.
func (p *Provider) CreateGoogleUser(ctx context.Context, email, displayName, photoURL string) (*ca.ProviderUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	email = strings.ToLower(email)
	if _, err := p.lookupByEmail(email); err == nil {
		return nil, ca.ErrEmailInUse
	} else if !errors.Is(err, ca.ErrProviderUserNotFound) {
		return nil, err
	}

	rec := &userRecord{
		UID:         generateUID(),
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		Providers:   []string{ca.GoogleProviderID},
		CreatedAt:   time.Now().UTC(),
	}
	if err := p.writeUser(rec); err != nil {
		return nil, err
	}
	return toProviderUser(rec), nil
}

// AddProviderLink records an additional sign-in method for uid.
func (p *Provider) AddProviderLink(ctx context.Context, uid, providerID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, err := p.readUser(p.userPath(uid))
	if err != nil {
		return err
	}
	for _, existing := range rec.Providers {
		if existing == providerID {
			return nil
		}
	}
	rec.Providers = append(rec.Providers, providerID)
	return p.writeUser(rec)
}

func (p *Provider) ProviderLinks(ctx context.Context, uid string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, err := p.readUser(p.userPath(uid))
	if err != nil {
		return nil, err
	}
	return append([]string(nil), rec.Providers...), nil
}

// CreateLoginToken mints a one-time token redeemable with VerifyIDToken
// until it expires or is redeemed, whichever comes first. A zero
// LoginTokenTTL falls back to DefaultLoginTokenTTL.
func (p *Provider) CreateLoginToken(ctx context.Context, uid string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.readUser(p.userPath(uid)); err != nil {
		return "", err
	}
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	ttl := p.LoginTokenTTL
	if ttl == 0 {
		ttl = DefaultLoginTokenTTL
	}
	rec := tokenRecord{UID: uid, ExpiresAt: time.Now().Add(ttl)}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p.tokenPath(token), data, 0644); err != nil {
		return "", err
	}
	return token, nil
}

// VerifyIDToken redeems a token from CreateLoginToken. Redemption is
// single use: the token file is removed on success.
func (p *Provider) VerifyIDToken(ctx context.Context, token string) (*ca.ProviderUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	path := p.tokenPath(token)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("unknown token")
		}
		return nil, err
	}
	var rec tokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if time.Now().After(rec.ExpiresAt) {
		os.Remove(path)
		return nil, fmt.Errorf("token expired")
	}
	user, err := p.readUser(p.userPath(rec.UID))
	if err != nil {
		return nil, err
	}
	os.Remove(path)
	return toProviderUser(user), nil
}

// generateUID generates a cryptographically secure account id.
func generateUID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
