package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"

	ca "github.com/Colin-Posat/cramingo-auth"
)

// Server exposes the authentication flows over HTTP. All responses are
// JSON. Besides returning the session credential in response bodies, the
// server can mirror it into a browser session cookie when a session
// manager is configured.
type Server struct {
	Flow     *ca.SignupFlow
	Resolver *ca.AccountResolver
	Merger   *ca.AccountMerger
	Accounts ca.AccountStore
	Provider ca.IdentityProvider
	Codec    *ca.SessionCodec

	// Session enables cookie-session login mode. Optional.
	Session *scs.SessionManager

	// AuthTokenSessionVar names the session variable and cookie holding
	// the credential. Defaults to "CramingoAuthToken".
	AuthTokenSessionVar string

	// CookieDomains lists extra domains the auth cookie is set on.
	CookieDomains []string

	middleware *ca.Middleware
}

func (s *Server) EnsureDefaults() *Server {
	if s.AuthTokenSessionVar == "" {
		s.AuthTokenSessionVar = os.Getenv("CRAMAUTH_TOKEN_COOKIE")
		if s.AuthTokenSessionVar == "" {
			s.AuthTokenSessionVar = "CramingoAuthToken"
		}
	}
	if s.middleware == nil {
		s.middleware = &ca.Middleware{
			Resolver:       s.Resolver,
			AuthCookieName: s.AuthTokenSessionVar,
		}
	}
	return s
}

// Router builds the endpoint table.
func (s *Server) Router() *mux.Router {
	s.EnsureDefaults()
	r := mux.NewRouter()

	r.HandleFunc("/auth/signup/initiate", s.handleSignupInitiate).Methods(http.MethodPost)
	r.HandleFunc("/auth/signup/finalize", s.handleSignupFinalize).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/auth/google/login", s.handleGoogleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/google/signup", s.handleGoogleSignup).Methods(http.MethodPost)
	r.HandleFunc("/auth/google/exchange", s.handleGoogleExchange).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	r.HandleFunc("/auth/check-account", s.handleCheckAccount).Methods(http.MethodGet)
	r.HandleFunc("/auth/check-username", s.handleCheckUsername).Methods(http.MethodGet)
	r.HandleFunc("/auth/forgot-password", s.handleForgotPassword).Methods(http.MethodPost)

	return r
}

// Handler wraps the router with the account-extraction middleware and,
// when cookie-session mode is on, the session loader.
func (s *Server) Handler() http.Handler {
	s.EnsureDefaults()
	var h http.Handler = s.middleware.ExtractAccount(s.Router())
	if s.Session != nil {
		h = s.Session.LoadAndSave(h)
	}
	return h
}

// setSessionToken mirrors a freshly issued credential into the browser
// session and auth cookies. No-op outside cookie-session mode.
func (s *Server) setSessionToken(w http.ResponseWriter, r *http.Request, token string) {
	if s.Session == nil {
		return
	}
	s.Session.Put(r.Context(), s.AuthTokenSessionVar, token)

	domains := s.CookieDomains
	if len(domains) == 0 {
		domains = []string{""}
	}
	maxAge := int(ca.DefaultSessionTTL / time.Second)
	for _, domain := range domains {
		http.SetCookie(w, &http.Cookie{
			Name:     s.AuthTokenSessionVar,
			Value:    token,
			Domain:   domain,
			Path:     "/",
			MaxAge:   maxAge,
			Expires:  time.Now().Add(ca.DefaultSessionTTL),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// clearSessionToken logs the browser session out.
func (s *Server) clearSessionToken(w http.ResponseWriter, r *http.Request) {
	if s.Session != nil {
		s.Session.Clear(r.Context())
	}
	domains := s.CookieDomains
	if len(domains) == 0 {
		domains = []string{""}
	}
	for _, domain := range domains {
		http.SetCookie(w, &http.Cookie{
			Name:    s.AuthTokenSessionVar,
			Domain:  domain,
			Path:    "/",
			MaxAge:  -1,
			Expires: time.Now(),
		})
	}
}
