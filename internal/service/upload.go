package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"

	"github.com/petermazzocco/photo-lobby/internal/apperr"
	"github.com/petermazzocco/photo-lobby/internal/blob"
	"github.com/petermazzocco/photo-lobby/internal/ids"
	"github.com/petermazzocco/photo-lobby/internal/store"
	"github.com/petermazzocco/photo-lobby/internal/transform"
	"github.com/petermazzocco/photo-lobby/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	MaxUploadSize     = 10 << 20
	MaxFilesPerUpload = 20
	jpegContentType   = "image/jpeg"
)

// UploadFile is one file of an upload request.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func validateUpload(f UploadFile) error {
	mediaType, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil || mediaType != jpegContentType {
		return fmt.Errorf("%w: %s is not a jpeg", apperr.ErrUnsupportedMediaType, f.Name)
	}
	if f.Size > MaxUploadSize {
		return fmt.Errorf("%w: %s is larger than 10 MiB", apperr.ErrPayloadTooLarge, f.Name)
	}
	return nil
}

// UploadImages stores files as new images of a lobby and appends them to the
// lobby's image list. Every file is validated before anything is written.
// The returned ids follow the order of files.
func (s *Service) UploadImages(ctx context.Context, lobbyID, uploaderID string, files []UploadFile) ([]string, error) {
	if uploaderID == "" {
		return nil, apperr.ErrUnauthorized
	}
	switch {
	case len(files) == 0:
		return nil, fmt.Errorf("%w: no files", apperr.ErrInvalidInput)
	case len(files) > MaxFilesPerUpload:
		return nil, fmt.Errorf("%w: at most %d files per upload", apperr.ErrInvalidInput, MaxFilesPerUpload)
	}
	for _, f := range files {
		if err := validateUpload(f); err != nil {
			return nil, err
		}
	}

	lobby, err := s.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(lobby, uploaderID) {
		return nil, fmt.Errorf("%w: lobby", apperr.ErrNotFound)
	}
	if lobby.OwnerID != uploaderID && !lobby.ViewersCanEdit {
		return nil, fmt.Errorf("%w: this lobby does not accept uploads from viewers", apperr.ErrForbidden)
	}

	created := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelBlobOps)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			id, err := s.storeImage(gctx, lobby.ID, uploaderID, f)
			if err != nil {
				return err
			}
			created[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discard(ctx, lobby.ID, created)
		return nil, err
	}

	if err := s.appendImages(ctx, lobby.ID, created); err != nil {
		s.discard(ctx, lobby.ID, created)
		return nil, err
	}
	s.log.Info("images uploaded", "lobby", lobby.ID, "uploader", uploaderID, "count", len(created))
	return created, nil
}

// storeImage writes the blob first and inserts the row only once the bytes
// are stored. A failed insert removes the blob again.
func (s *Service) storeImage(ctx context.Context, lobbyID, uploaderID string, f UploadFile) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(rc, MaxUploadSize+1))
	rc.Close()
	if err != nil {
		return "", err
	}
	if len(data) > MaxUploadSize {
		return "", fmt.Errorf("%w: %s is larger than 10 MiB", apperr.ErrPayloadTooLarge, f.Name)
	}

	var id string
	err = ids.Retry(ctx, store.IsDuplicate, func() error {
		var err error
		id, err = ids.Generate(ctx, ids.EntityLength, s.store.ImageExists)
		if err != nil {
			return err
		}
		key := blob.ImageKey(lobbyID, id)
		if err := s.blobs.Put(ctx, key, bytes.NewReader(data), int64(len(data)), jpegContentType); err != nil {
			return err
		}
		err = s.store.CreateImage(ctx, &models.Image{
			ID:         id,
			LobbyID:    lobbyID,
			CreatedOn:  s.now(),
			UploaderID: uploaderID,
			Reactions:  models.InitialReactions,
		})
		if err != nil {
			s.deleteBlobs(ctx, []string{key})
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// discard undoes the parts of a failed upload batch that did land.
func (s *Service) discard(ctx context.Context, lobbyID string, created []string) {
	done := make([]string, 0, len(created))
	keys := make([]string, 0, len(created))
	for _, id := range created {
		if id == "" {
			continue
		}
		done = append(done, id)
		keys = append(keys, blob.ImageKey(lobbyID, id))
	}
	if len(done) == 0 {
		return
	}
	s.deleteBlobs(ctx, keys)
	if err := s.store.DeleteImages(ctx, lobbyID, done); err != nil {
		s.log.Error("failed to remove images of a failed upload", "lobby", lobbyID, "images", done, "error", err)
	}
}

func (s *Service) appendImages(ctx context.Context, lobbyID string, added []string) error {
	return s.store.Transaction(ctx, func(tx *store.Store) error {
		lobby, err := tx.GetLobby(ctx, lobbyID)
		if err != nil {
			return err
		}
		columns := map[string]any{
			"images": datatypes.JSONSlice[string](mergeImages(lobby.Images, added, nil)),
		}
		if lobby.FirstUploadOn == nil {
			columns["first_upload_on"] = s.now()
		}
		return tx.UpdateLobby(ctx, lobbyID, columns)
	})
}

type ImageRequest struct {
	LobbyID    string
	ImageID    string
	Conditions blob.GetOptions
	Width      int
}

type ImageResult struct {
	Body               []byte
	ETag               string
	ContentType        string
	NotModified        bool
	PreconditionFailed bool
}

// GetImage fetches an image's bytes and re-encodes them for serving. The
// response is always the full re-encoded image.
func (s *Service) GetImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	if req.LobbyID == "" || req.ImageID == "" {
		return nil, fmt.Errorf("%w: lobby and image are required", apperr.ErrInvalidInput)
	}
	// The transform needs the whole object; a byte range of the stored JPEG
	// is not an image, so Range is not forwarded.
	cond := req.Conditions
	cond.Range = ""
	obj, err := s.blobs.Get(ctx, blob.ImageKey(req.LobbyID, req.ImageID), cond)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: image", apperr.ErrNotFound)
	}
	res := &ImageResult{ETag: obj.ETag, ContentType: transform.ContentType(transform.FormatJPEG)}
	if obj.NotModified || obj.PreconditionFailed {
		res.NotModified = obj.NotModified
		res.PreconditionFailed = obj.PreconditionFailed
		return res, nil
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", obj.Key, err)
	}
	width := req.Width
	if width < 0 || width > transform.MaxWidth {
		width = 0
	}
	res.Body, err = s.images.Transform(data, transform.Options{
		Quality: transform.DefaultQuality,
		Format:  transform.FormatJPEG,
		Width:   width,
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
