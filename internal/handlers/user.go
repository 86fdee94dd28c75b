package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/markbates/goth/gothic"
	"github.com/petermazzocco/photo-lobby/internal/apperr"
	"github.com/petermazzocco/photo-lobby/internal/auth"
)

// withProvider exposes the {provider} route param to gothic.
func withProvider(r *http.Request) *http.Request {
	return gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
}

// BeginAuthHandler starts the provider login, or reports the user when the
// provider session is still valid.
func (a *API) BeginAuthHandler(w http.ResponseWriter, r *http.Request) {
	r = withProvider(r)
	if user, err := a.oauth.Complete(w, r); err == nil {
		a.finishLogin(w, r, user.UserID, user.Name, user.Email)
		return
	}
	a.oauth.Begin(w, r)
}

// UserLoginHandler is the OAuth callback: it records the user and saves
// their id in the session.
func (a *API) UserLoginHandler(w http.ResponseWriter, r *http.Request) {
	r = withProvider(r)
	user, err := a.oauth.Complete(w, r)
	if err != nil {
		a.log.Warn("oauth callback failed", "error", err)
		a.fail(w, r, fmt.Errorf("%w: login failed", apperr.ErrUnauthorized))
		return
	}
	a.finishLogin(w, r, user.UserID, user.Name, user.Email)
}

func (a *API) finishLogin(w http.ResponseWriter, r *http.Request, id, name, email string) {
	user, err := a.svc.UpsertUser(r.Context(), id, name, email)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.sessions.Login(w, r, user.ID); err != nil {
		a.fail(w, r, fmt.Errorf("save session: %w", err))
		return
	}
	a.log.Info("user logged in", "user", user.ID)
	http.Redirect(w, r, a.AfterLogin, http.StatusTemporaryRedirect)
}

func (a *API) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	r = withProvider(r)
	if err := a.oauth.Logout(w, r); err != nil {
		a.log.Debug("provider logout", "error", err)
	}
	if err := a.sessions.Logout(w, r); err != nil {
		a.fail(w, r, fmt.Errorf("clear session: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetUserHandler returns the logged in user.
func (a *API) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := a.svc.GetUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
