package cramauth

import (
	"context"
	"time"
)

// SignupStore holds staged signups keyed by email.
type SignupStore interface {
	// GetStagedSignup returns ErrNotFound when no signup is staged for email.
	GetStagedSignup(ctx context.Context, email string) (*StagedSignup, error)

	// PutStagedSignup creates or replaces the staged signup for its email.
	PutStagedSignup(ctx context.Context, staged *StagedSignup) error

	// DeleteStagedSignup removes the staged signup. Deleting a missing
	// document is not an error.
	DeleteStagedSignup(ctx context.Context, email string) error

	// ListStagedSignups returns every staged signup. Used only by the
	// advisory username-availability scan.
	ListStagedSignups(ctx context.Context) ([]*StagedSignup, error)
}

// AccountStore holds user account documents keyed by account id, with a
// secondary lookup by email.
type AccountStore interface {
	// GetAccount returns ErrNotFound when no account exists for accountID.
	GetAccount(ctx context.Context, accountID string) (*UserAccount, error)

	// GetAccountByEmail returns ErrNotFound when no account has this email.
	GetAccountByEmail(ctx context.Context, email string) (*UserAccount, error)

	// PutAccount creates or replaces the account document.
	PutAccount(ctx context.Context, account *UserAccount) error

	// UpdateLastLogin sets only the last-login timestamp, leaving every
	// other field untouched.
	UpdateLastLogin(ctx context.Context, accountID string, at time.Time) error

	// ListAccounts returns every account document. Used only by the
	// advisory username-availability scan.
	ListAccounts(ctx context.Context) ([]*UserAccount, error)
}

// ProviderUser is the identity provider's view of an account.
type ProviderUser struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// IdentityProvider is the external authority of record for account
// existence and token verification. Password verification at login time is
// entirely the provider's concern; this core never checks a cleartext
// password outside of signup staging.
type IdentityProvider interface {
	// GetUserByEmail returns ErrProviderUserNotFound when the provider has
	// no account for email.
	GetUserByEmail(ctx context.Context, email string) (*ProviderUser, error)

	// VerifyPassword checks an email/password pair against the provider's
	// records. Unknown email and wrong password are indistinguishable to
	// callers: both return ErrProviderUserNotFound.
	VerifyPassword(ctx context.Context, email, password string) (*ProviderUser, error)

	// GetUser returns ErrProviderUserNotFound when uid is unknown.
	GetUser(ctx context.Context, uid string) (*ProviderUser, error)

	// CreateUser creates a provider account. The provider enforces email
	// uniqueness at creation and returns ErrEmailInUse on conflict; that
	// constraint is the backstop for concurrent finalize races.
	CreateUser(ctx context.Context, email, password, displayName string) (*ProviderUser, error)

	// VerifyIDToken verifies a provider-issued identity token and returns
	// the embedded account. The result is authoritative.
	VerifyIDToken(ctx context.Context, token string) (*ProviderUser, error)

	// CreateLoginToken issues a provider-specific one-time token for uid,
	// handed to clients that complete provider-side sign-in themselves.
	CreateLoginToken(ctx context.Context, uid string) (string, error)

	// ProviderLinks returns the set of provider ids linked to uid, e.g.
	// ["password"] or ["password", "google.com"].
	ProviderLinks(ctx context.Context, uid string) ([]string, error)
}
