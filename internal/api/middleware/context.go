package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const (
	ownerKey     contextKey = "owner"
	tokenKey     contextKey = "bearer_token"
	requestIDKey contextKey = "request_id"
)

// SetOwner stores the caller's owner id, derived from their bearer token.
func SetOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey, owner)
}

// GetOwner returns the owner id. Anonymous callers have the empty owner.
func GetOwner(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey).(string)
	return owner
}

func setToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

func getToken(r *http.Request) (string, bool) {
	t, ok := r.Context().Value(tokenKey).(string)
	return t, ok && t != ""
}

func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}
