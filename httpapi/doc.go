// Package httpapi exposes the signup, login and session endpoints as JSON
// over HTTP, routed with gorilla/mux.
//
// # Endpoints
//
//	POST /auth/signup/initiate    stage credentials for a new signup
//	POST /auth/signup/finalize    complete a staged signup with profile data
//	POST /auth/login              email/password login
//	POST /auth/logout             clear the browser session
//	POST /auth/google/login       Google login with email fallback
//	POST /auth/google/signup      deliberate new-account Google signup
//	POST /auth/google/exchange    trade an identity token for a session
//	GET  /auth/me                 resolve the bearer credential
//	GET  /auth/check-account      advisory account existence check
//	GET  /auth/check-username     advisory username availability check
//	POST /auth/forgot-password    password reset request
//
// Errors are rendered as {"error": ..., "code": ..., "field": ...} with a
// status derived from the code. When an scs session manager is configured
// the issued credential is also mirrored into a browser cookie.
package httpapi
