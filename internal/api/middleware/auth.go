package middleware

import (
	"net/http"
	"strings"

	"github.com/codezelat/pitchlens/internal/api/response"
	"github.com/codezelat/pitchlens/internal/cache"
	"github.com/codezelat/pitchlens/internal/scoring"
	"golang.org/x/crypto/bcrypt"
)

// PublishKeyHeader carries the shared secret that unlocks badge publishing.
const PublishKeyHeader = "X-PitchLens-Publish-Key"

// Auth identifies callers and guards privileged routes.
//
// PitchLens does not validate bearer tokens itself: they are forwarded to the
// scoring service, which owns accounts. A token only namespaces the caller's
// snapshot slot and rate limit.
type Auth struct {
	publishKeyHash []byte
}

// NewAuth creates a new Auth middleware. publishKeyHash is a bcrypt hash; when
// empty, publishing only requires an identified caller.
func NewAuth(publishKeyHash string) *Auth {
	return &Auth{publishKeyHash: []byte(publishKeyHash)}
}

// Identify reads an optional Bearer token and sets the owner, the forwarded
// token and the scoring client's token in the request context. A malformed
// Authorization header is rejected; a missing one is anonymous.
func (a *Auth) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		ctx := r.Context()
		ctx = SetOwner(ctx, cache.OwnerFromToken(token))
		ctx = setToken(ctx, token)
		ctx = scoring.WithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireIdentity rejects anonymous callers.
func (a *Auth) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := getToken(r); !ok {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "This endpoint requires a Bearer token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePublishKey checks the publish key header against the configured hash.
func (a *Auth) RequirePublishKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.publishKeyHash) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get(PublishKeyHeader)
		if key == "" || bcrypt.CompareHashAndPassword(a.publishKeyHash, []byte(key)) != nil {
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Invalid or missing publish key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
