//go:build !wasm
// +build !wasm

package gae

import (
	"time"

	"cloud.google.com/go/datastore"

	ca "github.com/Colin-Posat/cramingo-auth"
)

// Kind constants for Datastore entities
const (
	KindStagedSignup = "StagedSignup"
	KindUserAccount  = "UserAccount"
)

// StagedSignupEntity is the Datastore entity for staged signups.
// Key: lowercased email.
type StagedSignupEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	Email     string         `datastore:"email"`
	Password  string         `datastore:"password,noindex"`
	Username  string         `datastore:"username"`
	CreatedAt time.Time      `datastore:"created_at"`
}

func (e *StagedSignupEntity) ToStagedSignup() *ca.StagedSignup {
	return &ca.StagedSignup{
		Email:     e.Email,
		Password:  e.Password,
		Username:  e.Username,
		CreatedAt: e.CreatedAt,
	}
}

// UserAccountEntity is the Datastore entity for account documents.
// Key: provider-issued account id. Email is indexed for the secondary
// lookup.
type UserAccountEntity struct {
	Key          *datastore.Key `datastore:"__key__"`
	Email        string         `datastore:"email"`
	Username     string         `datastore:"username"`
	University   string         `datastore:"university,noindex"`
	FieldOfStudy string         `datastore:"field_of_study,noindex"`
	PhotoURL     string         `datastore:"photo_url,noindex"`
	AuthProvider string         `datastore:"auth_provider"`
	Likes        int            `datastore:"likes,noindex"`
	CreatedAt    time.Time      `datastore:"created_at"`
	LastLoginAt  time.Time      `datastore:"last_login_at,noindex"`
}

func (e *UserAccountEntity) ToUserAccount() *ca.UserAccount {
	return &ca.UserAccount{
		AccountID:    e.Key.Name,
		Email:        e.Email,
		Username:     e.Username,
		University:   e.University,
		FieldOfStudy: e.FieldOfStudy,
		PhotoURL:     e.PhotoURL,
		AuthProvider: ca.AuthProvider(e.AuthProvider),
		Likes:        e.Likes,
		CreatedAt:    e.CreatedAt,
		LastLoginAt:  e.LastLoginAt,
	}
}

func AccountToEntity(a *ca.UserAccount, key *datastore.Key) *UserAccountEntity {
	return &UserAccountEntity{
		Key:          key,
		Email:        a.Email,
		Username:     a.Username,
		University:   a.University,
		FieldOfStudy: a.FieldOfStudy,
		PhotoURL:     a.PhotoURL,
		AuthProvider: string(a.AuthProvider),
		Likes:        a.Likes,
		CreatedAt:    a.CreatedAt,
		LastLoginAt:  a.LastLoginAt,
	}
}
