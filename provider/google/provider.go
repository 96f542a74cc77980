package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"

	ca "github.com/Colin-Posat/cramingo-auth"
)

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// customTokenAudience is the audience Google requires on self-signed
// login tokens.
const customTokenAudience = "https://identitytoolkit.googleapis.com/google.identity.identitytoolkit.v1.IdentityToolkit"

// Config carries the Google project settings. Empty fields fall back to
// environment variables.
type Config struct {
	// APIKey authenticates Identity Toolkit REST calls.
	// Falls back to CRAMAUTH_GOOGLE_API_KEY.
	APIKey string

	// ClientID is the OAuth client id that issued identity tokens must be
	// addressed to. Falls back to CRAMAUTH_GOOGLE_CLIENT_ID.
	ClientID string

	// ServiceAccountEmail and PrivateKeyPEM sign one-time login tokens.
	// Fall back to CRAMAUTH_GOOGLE_SA_EMAIL and the file named by
	// CRAMAUTH_GOOGLE_SA_KEY_FILE. Optional: CreateLoginToken fails
	// without them, everything else works.
	ServiceAccountEmail string
	PrivateKeyPEM       []byte
}

func (c *Config) EnsureDefaults() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("CRAMAUTH_GOOGLE_API_KEY")
	}
	if c.ClientID == "" {
		c.ClientID = os.Getenv("CRAMAUTH_GOOGLE_CLIENT_ID")
	}
	if c.ServiceAccountEmail == "" {
		c.ServiceAccountEmail = os.Getenv("CRAMAUTH_GOOGLE_SA_EMAIL")
	}
	if len(c.PrivateKeyPEM) == 0 {
		if keyFile := os.Getenv("CRAMAUTH_GOOGLE_SA_KEY_FILE"); keyFile != "" {
			if data, err := os.ReadFile(keyFile); err == nil {
				c.PrivateKeyPEM = data
			}
		}
	}
}

// Provider implements the identity provider interface against Google's
// Identity Toolkit REST API and ID token verification.
type Provider struct {
	Config Config

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

func New(config Config) (*Provider, error) {
	config.EnsureDefaults()
	if config.APIKey == "" {
		return nil, fmt.Errorf("google provider requires an API key")
	}
	return &Provider{Config: config}, nil
}

func (p *Provider) client() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return http.DefaultClient
}

// toolkitUser mirrors the Identity Toolkit accounts:lookup response shape.
type toolkitUser struct {
	LocalID          string `json:"localId"`
	Email            string `json:"email"`
	DisplayName      string `json:"displayName"`
	PhotoURL         string `json:"photoUrl"`
	ProviderUserInfo []struct {
		ProviderID string `json:"providerId"`
	} `json:"providerUserInfo"`
}

func (p *Provider) post(ctx context.Context, endpoint string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/%s?key=%s", identityToolkitURL, endpoint, p.Config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client().Do(req)
	if err != nil {
		return fmt.Errorf("identity toolkit %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return toolkitError(endpoint, apiErr.Error.Message)
		}
		return fmt.Errorf("identity toolkit %s: status %d", endpoint, resp.StatusCode)
	}
	return json.Unmarshal(data, out)
}

// toolkitError maps Identity Toolkit error strings onto the package
// sentinels callers branch on.
func toolkitError(endpoint, message string) error {
	switch {
	case strings.HasPrefix(message, "EMAIL_NOT_FOUND"),
		strings.HasPrefix(message, "INVALID_PASSWORD"),
		strings.HasPrefix(message, "INVALID_LOGIN_CREDENTIALS"),
		strings.HasPrefix(message, "USER_NOT_FOUND"):
		return ca.ErrProviderUserNotFound
	case strings.HasPrefix(message, "EMAIL_EXISTS"):
		return ca.ErrEmailInUse
	}
	return fmt.Errorf("identity toolkit %s: %s", endpoint, message)
}

func (p *Provider) lookup(ctx context.Context, body any) (*toolkitUser, error) {
	var resp struct {
		Users []toolkitUser `json:"users"`
	}
	if err := p.post(ctx, "accounts:lookup", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, ca.ErrProviderUserNotFound
	}
	return &resp.Users[0], nil
}

func toProviderUser(u *toolkitUser) *ca.ProviderUser {
	return &ca.ProviderUser{
		UID:         u.LocalID,
		Email:       strings.ToLower(u.Email),
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
	}
}

func (p *Provider) GetUserByEmail(ctx context.Context, email string) (*ca.ProviderUser, error) {
	u, err := p.lookup(ctx, map[string]any{"email": []string{strings.ToLower(email)}})
	if err != nil {
		return nil, err
	}
	return toProviderUser(u), nil
}

func (p *Provider) GetUser(ctx context.Context, uid string) (*ca.ProviderUser, error) {
	u, err := p.lookup(ctx, map[string]any{"localId": []string{uid}})
	if err != nil {
		return nil, err
	}
	return toProviderUser(u), nil
}

func (p *Provider) VerifyPassword(ctx context.Context, email, password string) (*ca.ProviderUser, error) {
	var resp struct {
		LocalID     string `json:"localId"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	}
	err := p.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             strings.ToLower(email),
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &ca.ProviderUser{
		UID:         resp.LocalID,
		Email:       strings.ToLower(resp.Email),
		DisplayName: resp.DisplayName,
	}, nil
}

func (p *Provider) CreateUser(ctx context.Context, email, password, displayName string) (*ca.ProviderUser, error) {
	var resp struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
	}
	err := p.post(ctx, "accounts:signUp", map[string]any{
		"email":       strings.ToLower(email),
		"password":    password,
		"displayName": displayName,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &ca.ProviderUser{
		UID:         resp.LocalID,
		Email:       strings.ToLower(resp.Email),
		DisplayName: displayName,
	}, nil
}

func (p *Provider) ProviderLinks(ctx context.Context, uid string) ([]string, error) {
	u, err := p.lookup(ctx, map[string]any{"localId": []string{uid}})
	if err != nil {
		return nil, err
	}
	links := make([]string, 0, len(u.ProviderUserInfo))
	for _, info := range u.ProviderUserInfo {
		links = append(links, info.ProviderID)
	}
	return links, nil
}

// VerifyIDToken validates a Google-issued identity token against the
// configured OAuth client id and returns the identity it asserts.
func (p *Provider) VerifyIDToken(ctx context.Context, token string) (*ca.ProviderUser, error) {
	payload, err := idtoken.Validate(ctx, token, p.Config.ClientID)
	if err != nil {
		return nil, fmt.Errorf("identity token rejected: %w", err)
	}
	pu := &ca.ProviderUser{UID: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		pu.Email = strings.ToLower(email)
	}
	if name, ok := payload.Claims["name"].(string); ok {
		pu.DisplayName = name
	}
	if picture, ok := payload.Claims["picture"].(string); ok {
		pu.PhotoURL = picture
	}
	return pu, nil
}

// CreateLoginToken signs a one-time login token for uid with the service
// account key. Clients redeem it with Google to finish sign-in.
func (p *Provider) CreateLoginToken(ctx context.Context, uid string) (string, error) {
	if p.Config.ServiceAccountEmail == "" || len(p.Config.PrivateKeyPEM) == 0 {
		return "", fmt.Errorf("login token signing requires a service account key")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(p.Config.PrivateKeyPEM)
	if err != nil {
		return "", fmt.Errorf("failed to parse service account key: %w", err)
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": p.Config.ServiceAccountEmail,
		"sub": p.Config.ServiceAccountEmail,
		"aud": customTokenAudience,
		"uid": uid,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}

// UserInfo fetches the Google userinfo profile for an OAuth access token.
// Used to enrich freshly merged accounts with display name and photo.
func (p *Provider) UserInfo(ctx context.Context, token *oauth2.Token) (*ca.ProviderUser, error) {
	const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo?access_token="
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL+token.AccessToken, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed read response: %w", err)
	}
	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &ca.ProviderUser{
		UID:         info.ID,
		Email:       strings.ToLower(info.Email),
		DisplayName: info.Name,
		PhotoURL:    info.Picture,
	}, nil
}
