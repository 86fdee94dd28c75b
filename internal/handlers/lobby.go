package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/petermazzocco/photo-lobby/internal/apperr"
	"github.com/petermazzocco/photo-lobby/internal/auth"
	"github.com/petermazzocco/photo-lobby/internal/service"
)

// maxUploadRequest bounds a whole multipart upload request.
const maxUploadRequest = service.MaxFilesPerUpload*service.MaxUploadSize + 1<<20

func (a *API) GetLobbyByIDHandler(w http.ResponseWriter, r *http.Request) {
	detail, err := a.svc.GetLobbyByID(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) GetLobbyByCodeHandler(w http.ResponseWriter, r *http.Request) {
	detail, err := a.svc.GetLobbyByCode(r.Context(), chi.URLParam(r, "code"), auth.UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) ListLobbiesByUserHandler(w http.ResponseWriter, r *http.Request) {
	lobbies, err := a.svc.ListLobbiesByOwner(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lobbies)
}

func (a *API) ListJoinedLobbiesHandler(w http.ResponseWriter, r *http.Request) {
	lobbies, err := a.svc.ListJoinedLobbies(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lobbies)
}

func (a *API) CreateLobbyHandler(w http.ResponseWriter, r *http.Request) {
	var in service.LobbyInput
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	lobby, err := a.svc.CreateLobby(r.Context(), auth.UserID(r.Context()), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lobby)
}

type updateLobbyRequest struct {
	Changes         map[string]any `json:"changes"`
	AddedImageIDs   []string       `json:"addedImageIds"`
	DeletedImageIDs []string       `json:"deletedImageIds"`
}

func (a *API) UpdateLobbyHandler(w http.ResponseWriter, r *http.Request) {
	var body updateLobbyRequest
	if err := decodeJSON(r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	lobby, err := a.svc.UpdateLobby(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()), service.LobbyUpdate{
		Changes:         body.Changes,
		AddedImageIDs:   body.AddedImageIDs,
		DeletedImageIDs: body.DeletedImageIDs,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lobby)
}

func uploadFile(fh *multipart.FileHeader) service.UploadFile {
	return service.UploadFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// UploadImagesHandler stores the "images" files of a multipart form.
func (a *API) UploadImagesHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadRequest)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.fail(w, r, fmt.Errorf("%w: request exceeds %d bytes", apperr.ErrPayloadTooLarge, tooLarge.Limit))
			return
		}
		a.fail(w, r, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["images"]
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadFile(fh))
	}

	ids, err := a.svc.UploadImages(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()), files)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"imageIds": ids})
}

func (a *API) ToggleJoinHandler(w http.ResponseWriter, r *http.Request) {
	joined, err := a.svc.ToggleJoin(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"joined": joined})
}

func (a *API) DeleteLobbyHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteLobby(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context())); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
