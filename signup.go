package cramauth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

// SignupFlow drives the two-phase signup: credentials staged first, then
// finalized with profile data into a durable account plus a session
// credential. No durable account exists until Finalize.
type SignupFlow struct {
	Signups  SignupStore
	Accounts AccountStore
	Provider IdentityProvider
	Codec    *SessionCodec
}

// SignupResult is what a successful finalization returns.
type SignupResult struct {
	Account      *UserAccount
	SessionToken string
}

// Initiate stages a signup. It fails when the identity provider already has
// an account for the email or a signup is already staged. Two concurrent
// calls for the same email can both pass those checks; the staged document
// is last-write-wins and the provider's uniqueness constraint at Finalize
// is the real backstop.
func (f *SignupFlow) Initiate(ctx context.Context, email, password, username string) error {
	staged, err := NewStagedSignup(email, password, username)
	if err != nil {
		return err
	}

	if _, err := f.Provider.GetUserByEmail(ctx, staged.Email); err == nil {
		return NewAuthError(ErrCodeDuplicateAccount, "An account already exists for this email", "email")
	} else if !errors.Is(err, ErrProviderUserNotFound) {
		return err
	}

	if _, err := f.Signups.GetStagedSignup(ctx, staged.Email); err == nil {
		return NewAuthError(ErrCodeDuplicateAccount, "A signup is already in progress for this email", "email")
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	return f.Signups.PutStagedSignup(ctx, staged)
}

// Finalize turns a staged signup into a durable account: create the
// provider identity, write the profile document, delete the staging
// document, issue a session credential, in that order. The ordering means a
// crash can leave an orphaned provider account with no profile document;
// Finalize is not idempotent, so a retry re-checks for an existing profile
// and an existing provider identity before creating anything.
func (f *SignupFlow) Finalize(ctx context.Context, email, university, fieldOfStudy string) (*SignupResult, error) {
	if email == "" {
		return nil, NewAuthError(ErrCodeValidation, "Email is required", "email")
	}
	if university == "" {
		return nil, NewAuthError(ErrCodeValidation, "University is required", "university")
	}
	email = strings.ToLower(email)

	staged, err := f.Signups.GetStagedSignup(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Absence of the staging document is the only expiry signal.
			return nil, NewAuthError(ErrCodeSessionExpired, "Signup session expired, please start over", "")
		}
		return nil, err
	}

	if _, err := f.Accounts.GetAccountByEmail(ctx, email); err == nil {
		// A previous finalize already completed; only its staging delete
		// can have been lost.
		return nil, NewAuthError(ErrCodeDuplicateAccount, "An account already exists for this email", "email")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	pu, err := f.Provider.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrProviderUserNotFound) {
		pu, err = f.Provider.CreateUser(ctx, staged.Email, staged.Password, staged.Username)
		if errors.Is(err, ErrEmailInUse) {
			// Lost the race to a concurrent finalize.
			return nil, NewAuthError(ErrCodeDuplicateAccount, "An account already exists for this email", "email")
		}
	}
	if err != nil {
		return nil, err
	}

	account, err := NewUserAccount(pu.UID, staged.Email, staged.Username, university, ProviderPassword)
	if err != nil {
		return nil, err
	}
	account.FieldOfStudy = fieldOfStudy
	if err := f.Accounts.PutAccount(ctx, account); err != nil {
		return nil, err
	}

	if err := f.Signups.DeleteStagedSignup(ctx, email); err != nil {
		log.Printf("Warning: failed to delete staged signup for %s: %v", email, err)
	}

	token, err := f.Codec.Issue(account.AccountID, account.Email, account.Username)
	if err != nil {
		return nil, err
	}
	return &SignupResult{Account: account, SessionToken: token}, nil
}

// CheckUsername reports whether a username is free. The scan covers both
// accounts and staged signups, case-insensitively. It is advisory only: a
// concurrent signup can take the name between the check and the write.
func (f *SignupFlow) CheckUsername(ctx context.Context, username string) (bool, error) {
	if len(username) < 3 {
		return false, NewAuthError(ErrCodeValidation, "Username must be at least 3 characters", "username")
	}

	accounts, err := f.Accounts.ListAccounts(ctx)
	if err != nil {
		return false, err
	}
	for _, a := range accounts {
		if strings.EqualFold(a.Username, username) {
			return false, nil
		}
	}

	staged, err := f.Signups.ListStagedSignups(ctx)
	if err != nil {
		return false, err
	}
	for _, s := range staged {
		if strings.EqualFold(s.Username, username) {
			return false, nil
		}
	}
	return true, nil
}

// touchLastLogin is shared by the login paths; failures are logged, not
// surfaced, since the login itself already succeeded.
func touchLastLogin(ctx context.Context, accounts AccountStore, accountID string) {
	if err := accounts.UpdateLastLogin(ctx, accountID, time.Now()); err != nil {
		log.Printf("Warning: failed to update last login for %s: %v", accountID, err)
	}
}
