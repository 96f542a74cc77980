//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	ca "github.com/Colin-Posat/cramingo-auth"
)

// AutoMigrate runs database migrations for all cramauth tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&StagedSignupModel{},
		&UserAccountModel{},
	)
}

// =============================================================================
// SignupStore
// =============================================================================

// SignupStore implements ca.SignupStore using GORM
type SignupStore struct {
	db *gorm.DB
}

func NewSignupStore(db *gorm.DB) *SignupStore {
	return &SignupStore{db: db}
}

func (s *SignupStore) GetStagedSignup(ctx context.Context, email string) (*ca.StagedSignup, error) {
	var model StagedSignupModel
	err := s.db.WithContext(ctx).First(&model, "email = ?", strings.ToLower(email)).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ca.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.ToStagedSignup(), nil
}

func (s *SignupStore) PutStagedSignup(ctx context.Context, staged *ca.StagedSignup) error {
	model := &StagedSignupModel{
		Email:     staged.Email,
		Password:  staged.Password,
		Username:  staged.Username,
		CreatedAt: staged.CreatedAt,
	}
	return s.db.WithContext(ctx).Save(model).Error
}

func (s *SignupStore) DeleteStagedSignup(ctx context.Context, email string) error {
	// Deleting a missing row is not an error.
	return s.db.WithContext(ctx).Delete(&StagedSignupModel{}, "email = ?", strings.ToLower(email)).Error
}

func (s *SignupStore) ListStagedSignups(ctx context.Context) ([]*ca.StagedSignup, error) {
	var models []StagedSignupModel
	if err := s.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*ca.StagedSignup, 0, len(models))
	for i := range models {
		out = append(out, models[i].ToStagedSignup())
	}
	return out, nil
}

// =============================================================================
// AccountStore
// =============================================================================

// AccountStore implements ca.AccountStore using GORM
type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) GetAccount(ctx context.Context, accountID string) (*ca.UserAccount, error) {
	var model UserAccountModel
	err := s.db.WithContext(ctx).First(&model, "id = ?", accountID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ca.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.ToUserAccount(), nil
}

func (s *AccountStore) GetAccountByEmail(ctx context.Context, email string) (*ca.UserAccount, error) {
	var model UserAccountModel
	err := s.db.WithContext(ctx).First(&model, "email = ?", strings.ToLower(email)).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ca.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.ToUserAccount(), nil
}

func (s *AccountStore) PutAccount(ctx context.Context, account *ca.UserAccount) error {
	return s.db.WithContext(ctx).Save(accountToModel(account)).Error
}

func (s *AccountStore) UpdateLastLogin(ctx context.Context, accountID string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&UserAccountModel{}).
		Where("id = ?", accountID).
		Update("last_login_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ca.ErrNotFound
	}
	return nil
}

func (s *AccountStore) ListAccounts(ctx context.Context) ([]*ca.UserAccount, error) {
	var models []UserAccountModel
	if err := s.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*ca.UserAccount, 0, len(models))
	for i := range models {
		out = append(out, models[i].ToUserAccount())
	}
	return out, nil
}
