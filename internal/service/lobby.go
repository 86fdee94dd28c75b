package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/petermazzocco/photo-lobby/internal/apperr"
	"github.com/petermazzocco/photo-lobby/internal/blob"
	"github.com/petermazzocco/photo-lobby/internal/ids"
	"github.com/petermazzocco/photo-lobby/internal/store"
	"github.com/petermazzocco/photo-lobby/models"
	"gorm.io/datatypes"
)

const (
	MaxTitleLength         = 100
	DefaultBackgroundColor = "#ffffff"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// updatableColumns maps the fields a lobby update may carry to their columns.
var updatableColumns = map[string]string{
	"title":           "title",
	"backgroundColor": "background_color",
	"viewersCanEdit":  "viewers_can_edit",
	"isDraft":         "is_draft",
	"images":          "images",
}

type LobbyInput struct {
	Title           string `json:"title"`
	BackgroundColor string `json:"backgroundColor"`
	ViewersCanEdit  bool   `json:"viewersCanEdit"`
	IsDraft         bool   `json:"isDraft"`
}

// LobbyUpdate is an owner's edit. Changes holds raw field values keyed by
// their JSON names.
type LobbyUpdate struct {
	Changes         map[string]any
	AddedImageIDs   []string
	DeletedImageIDs []string
}

type LobbySummary struct {
	models.Lobby
	FirstImageID string `json:"firstImageId"`
}

// LobbyDetail is a lobby as seen by one requester.
type LobbyDetail struct {
	models.Lobby
	Photos      []models.Image    `json:"photos"`
	Joined      bool              `json:"joined"`
	MyReactions map[string]string `json:"myReactions"`
}

func visibleTo(lobby *models.Lobby, userID string) bool {
	return !lobby.IsDraft || (userID != "" && lobby.OwnerID == userID)
}

func summarize(lobbies []models.Lobby) []LobbySummary {
	out := make([]LobbySummary, 0, len(lobbies))
	for _, l := range lobbies {
		sum := LobbySummary{Lobby: l}
		if len(l.Images) > 0 {
			sum.FirstImageID = l.Images[0]
		}
		out = append(out, sum)
	}
	return out
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", apperr.ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", fmt.Errorf("%w: title is longer than %d characters", apperr.ErrInvalidInput, MaxTitleLength)
	}
	return title, nil
}

func validateColor(color string) (string, error) {
	if color == "" {
		return DefaultBackgroundColor, nil
	}
	if !hexColor.MatchString(color) {
		return "", fmt.Errorf("%w: backgroundColor must look like #rrggbb", apperr.ErrInvalidInput)
	}
	return strings.ToLower(color), nil
}

func (s *Service) CreateLobby(ctx context.Context, ownerID string, in LobbyInput) (*models.Lobby, error) {
	if ownerID == "" {
		return nil, apperr.ErrUnauthorized
	}
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	color, err := validateColor(in.BackgroundColor)
	if err != nil {
		return nil, err
	}

	id, err := ids.Generate(ctx, ids.EntityLength, s.store.LobbyExists)
	if err != nil {
		return nil, err
	}
	lobby := &models.Lobby{
		ID:              id,
		CreatedOn:       s.now(),
		OwnerID:         ownerID,
		Title:           title,
		BackgroundColor: color,
		ViewersCanEdit:  in.ViewersCanEdit,
		IsDraft:         in.IsDraft,
		Images:          datatypes.JSONSlice[string]{},
	}

	attempt := 0
	err = ids.Retry(ctx, store.IsDuplicate, func() error {
		if attempt > 0 {
			lobby.ID = ids.New(ids.EntityLength)
		}
		attempt++
		lobby.Code = ids.NewJoinCode()
		return s.store.CreateLobby(ctx, lobby)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("lobby created", "lobby", lobby.ID, "owner", ownerID, "draft", lobby.IsDraft)
	return lobby, nil
}

func (s *Service) GetLobbyByID(ctx context.Context, id, requesterID string) (*LobbyDetail, error) {
	lobby, err := s.store.GetLobby(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, lobby, requesterID)
}

func (s *Service) GetLobbyByCode(ctx context.Context, code, requesterID string) (*LobbyDetail, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != ids.JoinCodeLength {
		return nil, fmt.Errorf("%w: join code must be %d characters", apperr.ErrInvalidInput, ids.JoinCodeLength)
	}
	lobby, err := s.store.GetLobbyByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, lobby, requesterID)
}

func (s *Service) detail(ctx context.Context, lobby *models.Lobby, requesterID string) (*LobbyDetail, error) {
	if !visibleTo(lobby, requesterID) {
		return nil, fmt.Errorf("%w: lobby", apperr.ErrNotFound)
	}
	rows, err := s.store.ListImages(ctx, lobby.ID)
	if err != nil {
		return nil, err
	}
	d := &LobbyDetail{
		Lobby:       *lobby,
		Photos:      make([]models.Image, 0, len(lobby.Images)),
		MyReactions: map[string]string{},
	}
	for _, id := range lobby.Images {
		img, ok := rows[id]
		if !ok {
			s.log.Warn("lobby lists an image with no row", "lobby", lobby.ID, "image", id)
			continue
		}
		d.Photos = append(d.Photos, img)
	}
	if requesterID == "" {
		return d, nil
	}
	if d.Joined, err = s.store.IsJoined(ctx, lobby.ID, requesterID); err != nil {
		return nil, err
	}
	if d.MyReactions, err = s.store.UserReactions(ctx, lobby.ID, requesterID); err != nil {
		return nil, err
	}
	return d, nil
}

// ListLobbiesByOwner returns userID's published lobbies, newest first.
func (s *Service) ListLobbiesByOwner(ctx context.Context, userID string) ([]LobbySummary, error) {
	lobbies, err := s.store.ListPublishedByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summarize(lobbies), nil
}

func (s *Service) ListJoinedLobbies(ctx context.Context, userID string) ([]LobbySummary, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	lobbies, err := s.store.ListJoined(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summarize(lobbies), nil
}

// ownedLobby loads a lobby and checks requesterID may change it.
func (s *Service) ownedLobby(ctx context.Context, lobbyID, requesterID string) (*models.Lobby, error) {
	if requesterID == "" {
		return nil, apperr.ErrUnauthorized
	}
	lobby, err := s.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if lobby.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: only the owner can change this lobby", apperr.ErrForbidden)
	}
	return lobby, nil
}

// changeColumns validates an update's field changes and converts them to
// column values. The images field is returned separately.
func changeColumns(changes map[string]any) (map[string]any, []string, bool, error) {
	columns := make(map[string]any, len(changes))
	var images []string
	hasImages := false
	for field, value := range changes {
		column, ok := updatableColumns[field]
		if !ok {
			return nil, nil, false, fmt.Errorf("%w: field %q cannot be changed", apperr.ErrBadRequest, field)
		}
		switch field {
		case "title":
			v, ok := value.(string)
			if !ok {
				return nil, nil, false, fmt.Errorf("%w: title must be a string", apperr.ErrInvalidInput)
			}
			title, err := validateTitle(v)
			if err != nil {
				return nil, nil, false, err
			}
			columns[column] = title
		case "backgroundColor":
			v, ok := value.(string)
			if !ok || v == "" {
				return nil, nil, false, fmt.Errorf("%w: backgroundColor must be a string", apperr.ErrInvalidInput)
			}
			color, err := validateColor(v)
			if err != nil {
				return nil, nil, false, err
			}
			columns[column] = color
		case "viewersCanEdit", "isDraft":
			v, ok := value.(bool)
			if !ok {
				return nil, nil, false, fmt.Errorf("%w: %s must be a boolean", apperr.ErrInvalidInput, field)
			}
			columns[column] = v
		case "images":
			list, err := stringList(value)
			if err != nil {
				return nil, nil, false, err
			}
			images, hasImages = list, true
		}
	}
	return columns, images, hasImages, nil
}

func stringList(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok || str == "" {
				return nil, fmt.Errorf("%w: images must be a list of ids", apperr.ErrInvalidInput)
			}
			out = append(out, str)
		}
		return out, nil
	case nil:
		return []string{}, nil
	default:
		return nil, fmt.Errorf("%w: images must be a list of ids", apperr.ErrInvalidInput)
	}
}

// mergeImages applies deletions then appends additions, dropping duplicates.
func mergeImages(base, added, deleted []string) []string {
	drop := make(map[string]struct{}, len(deleted))
	for _, id := range deleted {
		drop[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(base)+len(added))
	out := make([]string, 0, len(base)+len(added))
	for _, list := range [][]string{base, added} {
		for _, id := range list {
			if _, gone := drop[id]; gone {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// UpdateLobby applies an owner's edit. Blobs of deleted images are removed
// first, then the rows and field changes are written in one transaction.
func (s *Service) UpdateLobby(ctx context.Context, lobbyID, requesterID string, upd LobbyUpdate) (*models.Lobby, error) {
	lobby, err := s.ownedLobby(ctx, lobbyID, requesterID)
	if err != nil {
		return nil, err
	}
	columns, images, hasImages, err := changeColumns(upd.Changes)
	if err != nil {
		return nil, err
	}

	if hasImages || len(upd.AddedImageIDs) > 0 || len(upd.DeletedImageIDs) > 0 {
		base := []string(lobby.Images)
		if hasImages {
			base = images
		}
		merged := mergeImages(base, upd.AddedImageIDs, upd.DeletedImageIDs)
		n, err := s.store.CountLobbyImages(ctx, lobby.ID, merged)
		if err != nil {
			return nil, err
		}
		if int(n) != len(merged) {
			return nil, fmt.Errorf("%w: images must belong to this lobby", apperr.ErrInvalidInput)
		}
		columns["images"] = datatypes.JSONSlice[string](merged)
		if lobby.FirstUploadOn == nil && len(merged) > 0 {
			columns["first_upload_on"] = s.now()
		}
	}

	if len(upd.DeletedImageIDs) > 0 {
		keys := make([]string, 0, len(upd.DeletedImageIDs))
		for _, id := range upd.DeletedImageIDs {
			keys = append(keys, blob.ImageKey(lobby.ID, id))
		}
		s.deleteBlobs(ctx, keys)
	}

	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.DeleteImages(ctx, lobby.ID, upd.DeletedImageIDs); err != nil {
			return err
		}
		return tx.UpdateLobby(ctx, lobby.ID, columns)
	})
	if err != nil {
		return nil, err
	}
	return s.store.GetLobby(ctx, lobby.ID)
}

// DeleteLobby removes every blob under the lobby's prefix, then the lobby
// and all rows that reference it.
func (s *Service) DeleteLobby(ctx context.Context, lobbyID, requesterID string) error {
	lobby, err := s.ownedLobby(ctx, lobbyID, requesterID)
	if err != nil {
		return err
	}
	keys, err := s.blobs.List(ctx, blob.LobbyPrefix(lobby.ID))
	if err != nil {
		return err
	}
	s.deleteBlobs(ctx, keys)

	if err := s.store.DeleteLobby(ctx, lobby.ID); err != nil {
		return err
	}
	s.log.Info("lobby deleted", "lobby", lobby.ID, "objects", len(keys))
	return nil
}

// ToggleJoin flips userID's membership of a lobby and returns the new state.
func (s *Service) ToggleJoin(ctx context.Context, lobbyID, userID string) (bool, error) {
	if userID == "" {
		return false, apperr.ErrUnauthorized
	}
	lobby, err := s.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return false, err
	}
	if !visibleTo(lobby, userID) {
		return false, fmt.Errorf("%w: lobby", apperr.ErrNotFound)
	}

	var joined bool
	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		was, err := tx.IsJoined(ctx, lobby.ID, userID)
		if err != nil {
			return err
		}
		if was {
			joined = false
			return tx.DeleteJoin(ctx, lobby.ID, userID)
		}
		joined = true
		return tx.CreateJoin(ctx, &models.JoinedLobby{
			ID:       uuid.NewString(),
			LobbyID:  lobby.ID,
			UserID:   userID,
			JoinedOn: s.now(),
		})
	})
	return joined, err
}
