package store

import (
	"context"

	"github.com/petermazzocco/photo-lobby/models"
)

func (s *Store) IsJoined(ctx context.Context, lobbyID, userID string) (bool, error) {
	return s.exists(ctx, &models.JoinedLobby{}, "lobby_id = ? AND user_id = ?", lobbyID, userID)
}

func (s *Store) CreateJoin(ctx context.Context, join *models.JoinedLobby) error {
	return s.db.WithContext(ctx).Create(join).Error
}

// DeleteJoin removes userID's membership only; other members stay joined.
func (s *Store) DeleteJoin(ctx context.Context, lobbyID, userID string) error {
	return s.db.WithContext(ctx).
		Where("lobby_id = ? AND user_id = ?", lobbyID, userID).
		Delete(&models.JoinedLobby{}).Error
}
