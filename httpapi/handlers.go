package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"time"

	ca "github.com/Colin-Posat/cramingo-auth"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError renders an AuthError with its mapped status. Anything else is
// logged server side and surfaced as a generic 500.
func writeError(w http.ResponseWriter, err error) {
	var ae *ca.AuthError
	if errors.As(err, &ae) {
		writeJSON(w, ae.HTTPStatus(), ae)
		return
	}
	log.Printf("internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error": "Internal server error",
	})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return ca.NewAuthError(ca.ErrCodeValidation, "Invalid request body", "")
	}
	return nil
}

func touchLastLogin(ctx context.Context, accounts ca.AccountStore, accountID string) {
	if err := accounts.UpdateLastLogin(ctx, accountID, time.Now()); err != nil {
		log.Printf("Warning: failed to update last login for %s: %v", accountID, err)
	}
}

func (s *Server) handleSignupInitiate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Flow.Initiate(r.Context(), req.Email, req.Password, req.Username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Signup initiated",
	})
}

func (s *Server) handleSignupFinalize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		University   string `json:"university"`
		FieldOfStudy string `json:"fieldOfStudy"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.Flow.Finalize(r.Context(), req.Email, req.University, req.FieldOfStudy)
	if err != nil {
		writeError(w, err)
		return
	}
	s.setSessionToken(w, r, result.SessionToken)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": result.SessionToken,
		"user":  result.Account,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.Resolver.ByPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	account, err := s.Accounts.GetAccount(r.Context(), res.AccountID)
	if err != nil {
		if errors.Is(err, ca.ErrNotFound) {
			writeError(w, ca.NewAuthError(ca.ErrCodeAccountNotFound, "No profile found for this account", ""))
			return
		}
		writeError(w, err)
		return
	}
	touchLastLogin(r.Context(), s.Accounts, account.AccountID)

	token, err := s.Codec.Issue(account.AccountID, account.Email, account.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	s.setSessionToken(w, r, token)

	resp := map[string]any{
		"token": token,
		"user":  account,
	}
	// A provider one-time token lets clients finish provider-side sign-in
	// themselves. Its absence never fails the login.
	if loginToken, err := s.Provider.CreateLoginToken(r.Context(), account.AccountID); err == nil {
		resp["providerToken"] = loginToken
	} else {
		slog.Warn("failed to create provider login token", "error", err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionToken(w, r)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Logged out",
	})
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email   string `json:"email"`
		IDToken string `json:"idToken"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.Resolver.ByGoogleEmailFallback(r.Context(), req.Email, req.IDToken)
	if err != nil {
		if res != nil && res.NeedsLinking {
			// The account exists under a different sign-in method. The
			// client must branch into the linking flow, so this is a 200
			// with a hint, not a failure.
			writeJSON(w, http.StatusOK, map[string]any{
				"accountExists": true,
				"needsLinking":  true,
				"message":       "Account exists with a different sign-in method",
			})
			return
		}
		writeError(w, err)
		return
	}

	profile := ca.GoogleProfile{Email: req.Email}
	if pu, err := s.Provider.GetUser(r.Context(), res.AccountID); err == nil {
		profile.Email = pu.Email
		profile.DisplayName = pu.DisplayName
		profile.PhotoURL = pu.PhotoURL
	} else {
		slog.Warn("failed to load provider profile", "error", err)
	}

	account, err := s.Merger.Merge(r.Context(), res.AccountID, profile, false)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := s.Codec.Issue(account.AccountID, account.Email, account.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	s.setSessionToken(w, r, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":         token,
		"user":          account,
		"accountExists": true,
	})
}

// handleGoogleSignup creates or updates an account from a Google identity.
// The request carries the raw ID token rather than a client supplied
// account id, email or display name; those all come from the verified
// token, so a caller cannot sign up as someone else. Only the onboarding
// fields (university, field of study) are taken from the body.
func (s *Server) handleGoogleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken      string `json:"idToken"`
		University   string `json:"university"`
		FieldOfStudy string `json:"fieldOfStudy"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.Resolver.ByGoogleToken(r.Context(), req.IDToken)
	if err != nil {
		writeError(w, err)
		return
	}
	pu, err := s.Provider.GetUser(r.Context(), res.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}

	account, err := s.Merger.Merge(r.Context(), res.AccountID, ca.GoogleProfile{
		Email:        pu.Email,
		DisplayName:  pu.DisplayName,
		PhotoURL:     pu.PhotoURL,
		University:   req.University,
		FieldOfStudy: req.FieldOfStudy,
	}, true)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := s.Codec.Issue(account.AccountID, account.Email, account.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	s.setSessionToken(w, r, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  account,
	})
}

// handleGoogleExchange trades a verified identity token for a session
// credential, without creating anything. Unknown accounts are told to sign
// up instead.
func (s *Server) handleGoogleExchange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.Resolver.ByGoogleToken(r.Context(), req.IDToken)
	if err != nil {
		writeError(w, err)
		return
	}

	var account *ca.UserAccount
	if pu, err := s.Provider.GetUser(r.Context(), res.AccountID); err == nil && pu.Email != "" {
		account, err = s.Accounts.GetAccountByEmail(r.Context(), pu.Email)
		if err != nil && !errors.Is(err, ca.ErrNotFound) {
			writeError(w, err)
			return
		}
	}
	if account == nil {
		var err error
		account, err = s.Accounts.GetAccount(r.Context(), res.AccountID)
		if err != nil {
			if errors.Is(err, ca.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]any{
					"error":       "No account found, please sign up",
					"code":        ca.ErrCodeAccountNotFound,
					"needsSignup": true,
				})
				return
			}
			writeError(w, err)
			return
		}
	}

	touchLastLogin(r.Context(), s.Accounts, account.AccountID)
	token, err := s.Codec.Issue(account.AccountID, account.Email, account.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	s.setSessionToken(w, r, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  account,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	accountID := ca.AccountIDFromContext(r.Context())
	if accountID == "" {
		claims, err := s.Resolver.ByBearerSession(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, err)
			return
		}
		accountID = claims.AccountID
	}

	account, err := s.Accounts.GetAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, ca.ErrNotFound) {
			// Provider-only identity without a profile document.
			writeJSON(w, http.StatusOK, map[string]any{
				"user": map[string]any{"account_id": accountID},
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": account,
	})
}

// handleCheckAccount reports whether a durable account exists. Email is
// checked first, then account id, matching how logins resolve accounts.
func (s *Server) handleCheckAccount(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	accountID := r.URL.Query().Get("accountId")
	if email == "" && accountID == "" {
		writeError(w, ca.NewAuthError(ca.ErrCodeValidation, "Email or accountId is required", "email"))
		return
	}

	var found *ca.UserAccount
	if email != "" {
		account, err := s.Accounts.GetAccountByEmail(r.Context(), email)
		if err == nil {
			found = account
		} else if !errors.Is(err, ca.ErrNotFound) {
			writeError(w, err)
			return
		}
	}
	if found == nil && accountID != "" {
		account, err := s.Accounts.GetAccount(r.Context(), accountID)
		if err == nil {
			found = account
		} else if !errors.Is(err, ca.ErrNotFound) {
			writeError(w, err)
			return
		}
	}
	if found == nil {
		writeJSON(w, http.StatusOK, map[string]any{"exists": false})
		return
	}
	// Only existence and the sign-in method leak; no profile fields.
	writeJSON(w, http.StatusOK, map[string]any{
		"exists":       true,
		"authProvider": found.AuthProvider,
	})
}

func (s *Server) handleCheckUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	available, err := s.Flow.CheckUsername(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available": available,
	})
}

// handleForgotPassword responds identically whether or not an account
// exists for the email, so the endpoint cannot be used to enumerate
// accounts.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Email == "" {
		writeError(w, ca.NewAuthError(ca.ErrCodeValidation, "Email is required", "email"))
		return
	}

	if _, err := s.Provider.GetUserByEmail(r.Context(), req.Email); err != nil {
		if !errors.Is(err, ca.ErrProviderUserNotFound) {
			log.Printf("Warning: forgot-password lookup failed: %v", err)
		}
	} else {
		log.Printf("Password reset requested for %s", req.Email)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "If an account exists for this email, a reset link has been sent",
	})
}
