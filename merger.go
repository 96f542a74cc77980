package cramauth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

// GoogleProfile is the inbound profile payload a Google sign-in carries.
// Password logins never carry inbound profile data.
type GoogleProfile struct {
	Email        string
	DisplayName  string
	PhotoURL     string
	University   string
	FieldOfStudy string
}

// AccountMerger decides, for a resolved account, which incoming fields may
// be written. Profile data is first-write-wins: once an account exists, a
// later login never alters username, university or photo, no matter what
// the provider's profile now says. Only the last-login timestamp moves.
type AccountMerger struct {
	Accounts AccountStore
}

// Merge applies the write policy for accountID and the incoming Google
// profile. freshSignup marks the call as a deliberate new-account signup,
// which makes university mandatory.
//
// The existence check goes email first, then account id: the same person
// can arrive with a different provider-issued id than was used to create
// the account, and email is the durable join key across providers.
func (m *AccountMerger) Merge(ctx context.Context, accountID string, in GoogleProfile, freshSignup bool) (*UserAccount, error) {
	if accountID == "" {
		return nil, NewAuthError(ErrCodeValidation, "Account id is required", "accountId")
	}
	if in.Email == "" {
		return nil, NewAuthError(ErrCodeValidation, "Email is required", "email")
	}
	email := strings.ToLower(in.Email)

	existing, err := m.Accounts.GetAccountByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		existing, err = m.Accounts.GetAccount(ctx, accountID)
	}
	if err == nil {
		// Existing account: discard every incoming profile field.
		now := time.Now()
		if err := m.Accounts.UpdateLastLogin(ctx, existing.AccountID, now); err != nil {
			log.Printf("Warning: failed to update last login for %s: %v", existing.AccountID, err)
		} else {
			existing.LastLoginAt = now
		}
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if freshSignup && in.University == "" {
		return nil, NewAuthError(ErrCodeValidation, "University is required", "university")
	}

	username := in.DisplayName
	if username == "" {
		username = EmailLocalPart(email)
	}
	university := in.University
	if university == "" {
		// Returning Google users whose profile document was lost get a
		// placeholder rather than a rejection; they can fill it in later.
		university = "Unknown"
	}

	account, err := NewUserAccount(accountID, email, username, university, ProviderGoogle)
	if err != nil {
		return nil, err
	}
	account.FieldOfStudy = in.FieldOfStudy
	account.PhotoURL = in.PhotoURL
	if err := m.Accounts.PutAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
