package store

import (
	"context"

	"github.com/petermazzocco/photo-lobby/models"
	"gorm.io/gorm/clause"
)

// UpsertUser inserts the user or refreshes name and email if the id exists.
func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "updated_at"}),
	}).Create(user).Error
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}
