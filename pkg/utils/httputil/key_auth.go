package httputil

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// KeyAuthMiddleware checks for a bearer key. With no keys configured every
// request is let through.
type KeyAuthMiddleware struct {
	next http.Handler
	keys []string
}

func UseKeyAuth(keys []string, next http.Handler) http.Handler {
	if len(keys) == 0 {
		return next
	}
	return &KeyAuthMiddleware{
		next: next,
		keys: keys,
	}
}

func (m *KeyAuthMiddleware) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	bearer, key, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(bearer, "bearer") || !m.match(key) {
		RespondError(rw, http.StatusUnauthorized, "invalid key")
		return
	}

	m.next.ServeHTTP(rw, r)
}

func (m *KeyAuthMiddleware) match(key string) bool {
	c := 0
	for _, k := range m.keys {
		c += subtle.ConstantTimeCompare([]byte(k), []byte(key))
	}
	return c != 0
}
