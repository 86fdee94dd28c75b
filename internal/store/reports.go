package store

import (
	"context"

	"github.com/petermazzocco/photo-lobby/models"
)

func (s *Store) CreateReport(ctx context.Context, report *models.Report) error {
	return s.db.WithContext(ctx).Create(report).Error
}
