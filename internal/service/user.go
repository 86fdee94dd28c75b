package service

import (
	"context"
	"fmt"

	"github.com/petermazzocco/photo-lobby/internal/apperr"
	"github.com/petermazzocco/photo-lobby/models"
)

// UpsertUser records a user who just completed the OAuth login.
func (s *Service) UpsertUser(ctx context.Context, id, name, email string) (*models.User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: provider returned no user id", apperr.ErrInvalidInput)
	}
	user := &models.User{ID: id, Name: name, Email: email}
	if err := s.store.UpsertUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, apperr.ErrUnauthorized
	}
	return s.store.GetUser(ctx, id)
}
