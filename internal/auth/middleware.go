package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	SessionName = "_gothic_session"
	userIDKey   = "user_id"
)

type ctxKey struct{}

// Resolver identifies the caller of a request. ok is false for anonymous
// requests.
type Resolver interface {
	UserID(r *http.Request) (id string, ok bool)
}

// SessionResolver reads the user id saved in the session cookie by the
// OAuth callback.
type SessionResolver struct {
	Store sessions.Store
}

func (s SessionResolver) UserID(r *http.Request) (string, bool) {
	session, err := s.Store.Get(r, SessionName)
	if err != nil {
		return "", false
	}
	id, ok := session.Values[userIDKey].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Login stores userID in the session and writes the cookie.
func (s SessionResolver) Login(w http.ResponseWriter, r *http.Request, userID string) error {
	session, err := s.Store.Get(r, SessionName)
	if err != nil && session == nil {
		return err
	}
	session.Values[userIDKey] = userID
	return session.Save(r, w)
}

// Logout drops the user id from the session.
func (s SessionResolver) Logout(w http.ResponseWriter, r *http.Request) error {
	session, err := s.Store.Get(r, SessionName)
	if err != nil && session == nil {
		return err
	}
	delete(session.Values, userIDKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// Session puts the caller's id, if any, on the request context. Anonymous
// requests pass through.
func Session(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := resolver.UserID(r); ok {
				r = r.WithContext(WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require rejects requests without a user id on the context.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserID(r.Context()) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "not authorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserID returns the caller's id, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
