package handler

import (
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/xenking/foodhub/internal/domain/auth"
	"github.com/xenking/foodhub/internal/domain/order"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "api_key"

// Authenticator resolves the api_key header to a session.
type Authenticator struct {
	keys   auth.Repository
	pepper []byte
}

// NewAuthenticator creates an Authenticator over the key repository.
func NewAuthenticator(keys auth.Repository, pepper []byte) *Authenticator {
	return &Authenticator{keys: keys, pepper: pepper}
}

// Middleware rejects requests without a valid key and stores the session
// in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			writeError(w, r, errUnauthorized)
			return
		}

		hexHash := auth.HashKey(a.pepper, key)
		info, err := a.keys.FindByHash(r.Context(), hexHash)
		if err != nil {
			writeError(w, r, errUnauthorized)
			return
		}

		// The repository may return a row for a different hash.
		computed, _ := hex.DecodeString(hexHash)
		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(computed, stored) != 1 {
			writeError(w, r, errUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), info.Session)))
	})
}

// requireAdmin rejects non-admin sessions with 403.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s, _ := auth.SessionFrom(r.Context()); !s.IsAdmin() {
			writeError(w, r, order.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func session(r *http.Request) auth.Session {
	s, _ := auth.SessionFrom(r.Context())
	return s
}
