package store

import (
	"context"

	"github.com/petermazzocco/photo-lobby/models"
	"gorm.io/gorm"
)

func (s *Store) LobbyExists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, &models.Lobby{}, "id = ?", id)
}

func (s *Store) CreateLobby(ctx context.Context, lobby *models.Lobby) error {
	return s.db.WithContext(ctx).Create(lobby).Error
}

func (s *Store) GetLobby(ctx context.Context, id string) (*models.Lobby, error) {
	var lobby models.Lobby
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&lobby).Error; err != nil {
		return nil, notFound(err, "lobby")
	}
	return &lobby, nil
}

func (s *Store) GetLobbyByCode(ctx context.Context, code string) (*models.Lobby, error) {
	var lobby models.Lobby
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&lobby).Error; err != nil {
		return nil, notFound(err, "lobby")
	}
	return &lobby, nil
}

// ListPublishedByOwner returns the owner's non-draft lobbies, newest first.
func (s *Store) ListPublishedByOwner(ctx context.Context, ownerID string) ([]models.Lobby, error) {
	lobbies := make([]models.Lobby, 0)
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND is_draft = ?", ownerID, false).
		Order("created_on DESC").
		Find(&lobbies).Error
	return lobbies, err
}

// ListJoined returns the published lobbies userID has joined, most recently
// joined first.
func (s *Store) ListJoined(ctx context.Context, userID string) ([]models.Lobby, error) {
	lobbies := make([]models.Lobby, 0)
	err := s.db.WithContext(ctx).
		Joins("JOIN joined_lobbies ON joined_lobbies.lobby_id = lobbies.id").
		Where("joined_lobbies.user_id = ? AND lobbies.is_draft = ?", userID, false).
		Order("joined_lobbies.joined_on DESC").
		Find(&lobbies).Error
	return lobbies, err
}

// UpdateLobby writes columns, a map of column name to value. Values are
// always bound parameters.
func (s *Store) UpdateLobby(ctx context.Context, id string, columns map[string]any) error {
	if len(columns) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Lobby{}).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "lobby")
	}
	return nil
}

// DeleteLobby removes the lobby row and every row that references it.
func (s *Store) DeleteLobby(ctx context.Context, id string) error {
	return s.Transaction(ctx, func(tx *Store) error {
		db := tx.db
		if err := db.Where("lobby_id = ?", id).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := db.Where("lobby_id = ?", id).Delete(&models.JoinedLobby{}).Error; err != nil {
			return err
		}
		if err := db.Where("lobby_id = ?", id).Delete(&models.Image{}).Error; err != nil {
			return err
		}
		res := db.Where("id = ?", id).Delete(&models.Lobby{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "lobby")
		}
		return nil
	})
}
