//go:build !wasm
// +build !wasm

package gorm

import (
	"time"

	ca "github.com/Colin-Posat/cramingo-auth"
)

// StagedSignupModel is the GORM model for staged signups.
type StagedSignupModel struct {
	Email     string    `gorm:"primaryKey;size:255"`
	Password  string    `gorm:"size:255"`
	Username  string    `gorm:"size:64;index"`
	CreatedAt time.Time
}

func (StagedSignupModel) TableName() string { return "staged_signups" }

func (m *StagedSignupModel) ToStagedSignup() *ca.StagedSignup {
	return &ca.StagedSignup{
		Email:     m.Email,
		Password:  m.Password,
		Username:  m.Username,
		CreatedAt: m.CreatedAt,
	}
}

// UserAccountModel is the GORM model for account documents.
type UserAccountModel struct {
	ID           string `gorm:"primaryKey;size:64"`
	Email        string `gorm:"size:255;uniqueIndex"`
	Username     string `gorm:"size:64;index"`
	University   string `gorm:"size:255"`
	FieldOfStudy string `gorm:"size:255"`
	PhotoURL     string `gorm:"size:1024"`
	AuthProvider string `gorm:"size:32"`
	Likes        int
	CreatedAt    time.Time
	LastLoginAt  time.Time
}

func (UserAccountModel) TableName() string { return "user_accounts" }

func (m *UserAccountModel) ToUserAccount() *ca.UserAccount {
	return &ca.UserAccount{
		AccountID:    m.ID,
		Email:        m.Email,
		Username:     m.Username,
		University:   m.University,
		FieldOfStudy: m.FieldOfStudy,
		PhotoURL:     m.PhotoURL,
		AuthProvider: ca.AuthProvider(m.AuthProvider),
		Likes:        m.Likes,
		CreatedAt:    m.CreatedAt,
		LastLoginAt:  m.LastLoginAt,
	}
}

func accountToModel(a *ca.UserAccount) *UserAccountModel {
	return &UserAccountModel{
		ID:           a.AccountID,
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
