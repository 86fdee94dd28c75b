package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/petermazzocco/photo-lobby/internal/auth"
	"github.com/rs/cors"
)

type RouterOptions struct {
	AllowedOrigins []string
	// RateLimit is the number of mutating requests allowed per IP and
	// endpoint each minute. Zero disables limiting.
	RateLimit int
	// AccessLog adds chi's request logger.
	AccessLog bool
}

// NewRouter wires every route to api. resolver identifies callers.
func NewRouter(api *API, resolver auth.Resolver, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "If-Match", "If-None-Match", "If-Modified-Since", "If-Unmodified-Since"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	r.Use(auth.Session(resolver))

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})

	limit := func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(httprate.Limit(
				opts.RateLimit,
				1*time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			))
		}
	}

	// User auth
	r.Get("/auth/{provider}", api.BeginAuthHandler)
	r.Get("/auth/{provider}/callback", api.UserLoginHandler)
	r.Post("/logout/{provider}", api.LogoutHandler)

	// Public reads; drafts still resolve only for their owner.
	r.Get("/image/{lobbyId}/{imageId}", api.GetImageHandler)
	r.Get("/lobby/id/{id}", api.GetLobbyByIDHandler)
	r.Get("/lobby/code/{code}", api.GetLobbyByCodeHandler)
	r.Get("/lobby/user/{userId}", api.ListLobbiesByUserHandler)

	r.Group(func(r chi.Router) {
		limit(r)
		r.Post("/report", api.CreateReportHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Require)
		r.Get("/user", api.GetUserHandler)
		r.Get("/lobby/joined", api.ListJoinedLobbiesHandler)

		r.Group(func(r chi.Router) {
			limit(r)
			r.Put("/image/{id}/react", api.ReactHandler)
			r.Post("/lobby", api.CreateLobbyHandler)
			r.Put("/lobby/id/{id}", api.UpdateLobbyHandler)
			r.Put("/lobby/id/{id}/upload", api.UploadImagesHandler)
			r.Put("/lobby/id/{id}/join", api.ToggleJoinHandler)
			r.Delete("/lobby/id/{id}", api.DeleteLobbyHandler)
		})
	})
	return r
}
