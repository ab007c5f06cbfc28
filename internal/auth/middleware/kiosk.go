// Package middleware carries the request-auth helpers shared by the HTTP
// handlers: kiosk machine credentials and identity context plumbing.
package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// RequireKioskKey gates the kiosk surface on a shared machine key, compared
// against its bcrypt hash. An empty hash disables the check (offline/dev).
func RequireKioskKey(keyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get("X-Kiosk-Key")
			if key == "" || bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)) != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
