package cramauth

import (
	"regexp"
	"strings"
	"time"
)

// AuthProvider identifies which credential type created an account.
type AuthProvider string

const (
	ProviderPassword AuthProvider = "password"
	ProviderGoogle   AuthProvider = "google"
)

// GoogleProviderID is the provider id Google reports in link sets.
const GoogleProviderID = "google.com"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// StagedSignup holds the credentials recorded when a signup starts, before
// any durable account exists. At most one staged signup exists per email.
type StagedSignup struct {
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStagedSignup validates the initiation fields. The password is opaque
// here; the identity provider verifies it at account creation.
func NewStagedSignup(email, password, username string) (*StagedSignup, error) {
	if email == "" {
		return nil, NewAuthError(ErrCodeValidation, "Email is required", "email")
	}
	if !emailRegex.MatchString(email) {
		return nil, NewAuthError(ErrCodeValidation, "Invalid email format", "email")
	}
	if password == "" {
		return nil, NewAuthError(ErrCodeValidation, "Password is required", "password")
	}
	if username == "" {
		return nil, NewAuthError(ErrCodeValidation, "Username is required", "username")
	}
	return &StagedSignup{
		Email:     strings.ToLower(email),
		Password:  password,
		Username:  username,
		CreatedAt: time.Now(),
	}, nil
}

// UserAccount is the durable profile document. AccountID is the id the
// identity provider issued and never changes; email is unique across all
// accounts and is the cross-provider join key.
type UserAccount struct {
	AccountID    string       `json:"account_id"`
	Email        string       `json:"email"`
	Username     string       `json:"username"`
	University   string       `json:"university"`
	FieldOfStudy string       `json:"field_of_study,omitempty"`
	PhotoURL     string       `json:"photo_url,omitempty"`
	AuthProvider AuthProvider `json:"auth_provider"`
	Likes        int          `json:"likes"`
	CreatedAt    time.Time    `json:"created_at"`
	LastLoginAt  time.Time    `json:"last_login_at"`
}

// NewUserAccount validates the required profile fields and stamps the
// creation times. Likes always starts at zero.
func NewUserAccount(accountID, email, username, university string, provider AuthProvider) (*UserAccount, error) {
	if accountID == "" {
		return nil, NewAuthError(ErrCodeValidation, "Account id is required", "accountId")
	}
	if email == "" {
		return nil, NewAuthError(ErrCodeValidation, "Email is required", "email")
	}
	if username == "" {
		return nil, NewAuthError(ErrCodeValidation, "Username is required", "username")
	}
	if university == "" {
		return nil, NewAuthError(ErrCodeValidation, "University is required", "university")
	}
	if provider != ProviderPassword && provider != ProviderGoogle {
		return nil, NewAuthError(ErrCodeValidation, "Unknown auth provider", "authProvider")
	}
	now := time.Now()
	return &UserAccount{
		AccountID:    accountID,
		Email:        strings.ToLower(email),
		Username:     username,
		University:   university,
		AuthProvider: provider,
		Likes:        0,
		CreatedAt:    now,
		LastLoginAt:  now,
	}, nil
}

// EmailLocalPart returns the part of an email before the "@", used as the
// default username for Google signups that carry no display name.
func EmailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
