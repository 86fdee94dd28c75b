package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/petermazzocco/photo-lobby/internal/apperr"
	"github.com/petermazzocco/photo-lobby/internal/service"
)

const maxJSONBody = 1 << 20

// Sessions persists the logged in user between requests.
type Sessions interface {
	Login(w http.ResponseWriter, r *http.Request, userID string) error
	Logout(w http.ResponseWriter, r *http.Request) error
}

// OAuth runs a provider login flow.
type OAuth interface {
	Begin(w http.ResponseWriter, r *http.Request)
	Complete(w http.ResponseWriter, r *http.Request) (goth.User, error)
	Logout(w http.ResponseWriter, r *http.Request) error
}

// Gothic is the OAuth flow backed by the providers registered with goth.
type Gothic struct{}

func (Gothic) Begin(w http.ResponseWriter, r *http.Request) { gothic.BeginAuthHandler(w, r) }

func (Gothic) Complete(w http.ResponseWriter, r *http.Request) (goth.User, error) {
	return gothic.CompleteUserAuth(w, r)
}

func (Gothic) Logout(w http.ResponseWriter, r *http.Request) error { return gothic.Logout(w, r) }

// API holds the dependencies shared by every handler.
type API struct {
	svc      *service.Service
	sessions Sessions
	oauth    OAuth
	log      hclog.Logger

	// AfterLogin is where the OAuth callback redirects once the session is saved.
	AfterLogin string
}

func NewAPI(svc *service.Service, sessions Sessions, oauth OAuth, log hclog.Logger) *API {
	return &API{
		svc:        svc,
		sessions:   sessions,
		oauth:      oauth,
		log:        log,
		AfterLogin: "/",
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// fail writes err as a JSON error body. Server side failures are logged and
// reported with a generic message.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	msg := err.Error()
	if !apperr.Public(err) {
		a.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", apperr.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return nil
}
