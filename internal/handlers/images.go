package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/petermazzocco/photo-lobby/internal/apperr"
	"github.com/petermazzocco/photo-lobby/internal/auth"
	"github.com/petermazzocco/photo-lobby/internal/blob"
	"github.com/petermazzocco/photo-lobby/internal/service"
)

// conditions copies the conditional headers of r. Range is not honoured:
// served images are re-encoded, so byte offsets of the stored object do not
// apply to the response.
func conditions(r *http.Request) blob.GetOptions {
	opts := blob.GetOptions{
		IfMatch:     r.Header.Get("If-Match"),
		IfNoneMatch: r.Header.Get("If-None-Match"),
	}
	if t, err := http.ParseTime(r.Header.Get("If-Modified-Since")); err == nil {
		opts.IfModifiedSince = &t
	}
	if t, err := http.ParseTime(r.Header.Get("If-Unmodified-Since")); err == nil {
		opts.IfUnmodifiedSince = &t
	}
	return opts
}

// GetImageHandler serves an image re-encoded as JPEG. ?w= resizes it.
func (a *API) GetImageHandler(w http.ResponseWriter, r *http.Request) {
	req := service.ImageRequest{
		LobbyID:    chi.URLParam(r, "lobbyId"),
		ImageID:    chi.URLParam(r, "imageId"),
		Conditions: conditions(r),
	}
	if raw := r.URL.Query().Get("w"); raw != "" {
		width, err := strconv.Atoi(raw)
		if err != nil {
			a.fail(w, r, fmt.Errorf("%w: w must be a number", apperr.ErrInvalidInput))
			return
		}
		req.Width = width
	}

	res, err := a.svc.GetImage(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if res.ETag != "" {
		w.Header().Set("ETag", blob.QuoteETag(res.ETag))
	}
	switch {
	case res.NotModified:
		w.WriteHeader(http.StatusNotModified)
		return
	case res.PreconditionFailed:
		w.WriteHeader(http.StatusPreconditionFailed)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Body)))
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(24*time.Hour/time.Second)))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Body)
}

type reactRequest struct {
	Value string `json:"value"`
}

// ReactHandler applies the caller's reaction to an image.
func (a *API) ReactHandler(w http.ResponseWriter, r *http.Request) {
	var body reactRequest
	if err := decodeJSON(r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.React(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()), body.Value)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
