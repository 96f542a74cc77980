// Command cramauthd serves the authentication API.
//
// Configuration is via environment variables:
//
//	CRAMAUTH_ADDR             listen address (default ":8080")
//	CRAMAUTH_STORAGE_PATH     data directory for the file stores (default "./data")
//	CRAMAUTH_JWT_SECRET_KEY   session signing key (required unless CRAMAUTH_DEV=1)
//	CRAMAUTH_DEV              "1" selects the file-backed dev identity provider
//	CRAMAUTH_GOOGLE_API_KEY   Identity Toolkit API key (production provider)
//	CRAMAUTH_GOOGLE_CLIENT_ID OAuth client id for identity token verification
package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/alexedwards/scs/v2"

	ca "github.com/Colin-Posat/cramingo-auth"
	"github.com/Colin-Posat/cramingo-auth/httpapi"
	"github.com/Colin-Posat/cramingo-auth/provider/dev"
	"github.com/Colin-Posat/cramingo-auth/provider/google"
	"github.com/Colin-Posat/cramingo-auth/stores"
)

func main() {
	addr := os.Getenv("CRAMAUTH_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	storagePath := os.Getenv("CRAMAUTH_STORAGE_PATH")
	if storagePath == "" {
		storagePath = "./data"
	}
	devMode := os.Getenv("CRAMAUTH_DEV") == "1"

	secretKey := os.Getenv("CRAMAUTH_JWT_SECRET_KEY")
	if secretKey == "" {
		if !devMode {
			log.Fatal("CRAMAUTH_JWT_SECRET_KEY is required")
		}
		log.Println("Warning: using dev signing key, tokens are not secure")
		secretKey = "cramauth-dev-key"
	}

	codec, err := ca.NewSessionCodec(secretKey, "cramingo")
	if err != nil {
		log.Fatal(err)
	}

	signups := stores.NewFSSignupStore(filepath.Join(storagePath, "auth"))
	accounts := stores.NewFSAccountStore(filepath.Join(storagePath, "auth"))

	var provider ca.IdentityProvider
	if devMode {
		provider, err = dev.New(filepath.Join(storagePath, "devidp"))
	} else {
		provider, err = google.New(google.Config{})
	}
	if err != nil {
		log.Fatal(err)
	}

	resolver := &ca.AccountResolver{Accounts: accounts, Provider: provider, Codec: codec}
	session := scs.New()
	session.Lifetime = ca.DefaultSessionTTL

	server := &httpapi.Server{
		Flow:     &ca.SignupFlow{Signups: signups, Accounts: accounts, Provider: provider, Codec: codec},
		Resolver: resolver,
		Merger:   &ca.AccountMerger{Accounts: accounts},
		Accounts: accounts,
		Provider: provider,
		Codec:    codec,
		Session:  session,
	}

	log.Printf("Listening on %s (dev=%v, storage=%s)", addr, devMode, storagePath)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}
