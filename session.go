package cramauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is how long an issued session credential stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionClaims is the payload carried by a session credential.
type SessionClaims struct {
	AccountID string
	Email     string
	Username  string
}

// SessionCodec signs and verifies the stateless session credential. There
// is no server-side session table; possession of a valid token is the sole
// authorization factor.
type SessionCodec struct {
	SecretKey string
	Issuer    string
	TTL       time.Duration
}

// NewSessionCodec fails when the signing key is empty. Callers treat that
// as fatal at process start.
func NewSessionCodec(secretKey, issuer string) (*SessionCodec, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("session signing key is empty")
	}
	if issuer == "" {
		issuer = "cramingo"
	}
	return &SessionCodec{SecretKey: secretKey, Issuer: issuer, TTL: DefaultSessionTTL}, nil
}

// Issue produces a signed credential for the account. A zero TTL falls
// back to DefaultSessionTTL; a negative TTL yields an already expired
// token.
func (c *SessionCodec) Issue(accountID, email, username string) (string, error) {
	now := time.Now()
	ttl := c.TTL
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      accountID,
		"email":    email,
		"username": username,
		"iss":      c.Issuer,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(c.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry and returns the embedded
// claims. Expired tokens and malformed/forged tokens come back as distinct
// codes, but handlers must present both as a generic unauthorized.
func (c *SessionCodec) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(c.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewAuthError(ErrCodeTokenExpired, "Session has expired", "")
		}
		return nil, NewAuthError(ErrCodeInvalidToken, "Invalid session token", "")
	}
	if !token.Valid {
		return nil, NewAuthError(ErrCodeInvalidToken, "Invalid session token", "")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, NewAuthError(ErrCodeInvalidToken, "Invalid session token", "")
	}
	if iss, _ := claims.GetIssuer(); iss != c.Issuer {
		return nil, NewAuthError(ErrCodeInvalidToken, "Invalid session token", "")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, NewAuthError(ErrCodeInvalidToken, "Invalid session token", "")
	}

	out := &SessionClaims{AccountID: sub}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if username, ok := claims["username"].(string); ok {
		out.Username = username
	}
	return out, nil
}
