package store

import (
	"context"

	"github.com/petermazzocco/photo-lobby/models"
)

// FindReaction returns the user's reaction on an image, or nil if there is
// none.
func (s *Store) FindReaction(ctx context.Context, imageID, userID string) (*models.Reaction, error) {
	var found []models.Reaction
	err := s.db.WithContext(ctx).
		Where("image_id = ? AND user_id = ?", imageID, userID).
		Order("created_on ASC").
		Limit(1).
		Find(&found).Error
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

func (s *Store) CreateReaction(ctx context.Context, reaction *models.Reaction) error {
	return s.db.WithContext(ctx).Create(reaction).Error
}

func (s *Store) UpdateReactionValue(ctx context.Context, id, value string) error {
	return s.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("id = ?", id).
		Update("value", value).Error
}

// DeleteUserReactions clears every reaction row userID holds on an image.
func (s *Store) DeleteUserReactions(ctx context.Context, imageID, userID string) error {
	return s.db.WithContext(ctx).
		Where("image_id = ? AND user_id = ?", imageID, userID).
		Delete(&models.Reaction{}).Error
}

// ReactionValues returns the values on an image in the order they were made.
func (s *Store) ReactionValues(ctx context.Context, imageID string) ([]string, error) {
	values := make([]string, 0)
	err := s.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("image_id = ?", imageID).
		Order("created_on ASC").
		Order("id ASC").
		Pluck("value", &values).Error
	return values, err
}

// UserReactions maps image id to userID's reaction across a lobby.
func (s *Store) UserReactions(ctx context.Context, lobbyID, userID string) (map[string]string, error) {
	var rows []models.Reaction
	err := s.db.WithContext(ctx).
		Select("image_id", "value").
		Where("lobby_id = ? AND user_id = ?", lobbyID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	mine := make(map[string]string, len(rows))
	for _, r := range rows {
		mine[r.ImageID] = r.Value
	}
	return mine, nil
}
