package store

import (
	"context"

	"github.com/petermazzocco/photo-lobby/models"
)

func (s *Store) ImageExists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, &models.Image{}, "id = ?", id)
}

func (s *Store) CreateImage(ctx context.Context, image *models.Image) error {
	return s.db.WithContext(ctx).Create(image).Error
}

func (s *Store) GetImage(ctx context.Context, id string) (*models.Image, error) {
	var image models.Image
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&image).Error; err != nil {
		return nil, notFound(err, "image")
	}
	return &image, nil
}

// ListImages returns the lobby's image rows keyed by id.
func (s *Store) ListImages(ctx context.Context, lobbyID string) (map[string]models.Image, error) {
	var images []models.Image
	if err := s.db.WithContext(ctx).Where("lobby_id = ?", lobbyID).Find(&images).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.Image, len(images))
	for _, img := range images {
		byID[img.ID] = img
	}
	return byID, nil
}

// CountLobbyImages counts how many of ids are images of lobbyID.
func (s *Store) CountLobbyImages(ctx context.Context, lobbyID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Image{}).
		Where("lobby_id = ? AND id IN ?", lobbyID, ids).
		Count(&n).Error
	return n, err
}

// DeleteImages removes the given images of a lobby and their reactions.
func (s *Store) DeleteImages(ctx context.Context, lobbyID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.db.Where("lobby_id = ? AND image_id IN ?", lobbyID, ids).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		return tx.db.Where("lobby_id = ? AND id IN ?", lobbyID, ids).Delete(&models.Image{}).Error
	})
}

func (s *Store) SetImageReactions(ctx context.Context, imageID, display string) error {
	return s.db.WithContext(ctx).Model(&models.Image{}).
		Where("id = ?", imageID).
		Update("reactions", display).Error
}
