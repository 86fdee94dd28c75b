package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/petermazzocco/photo-lobby/internal/apperr"
	"github.com/petermazzocco/photo-lobby/internal/reactions"
	"github.com/petermazzocco/photo-lobby/internal/store"
	"github.com/petermazzocco/photo-lobby/models"
)

type ReactionResult struct {
	ImageID   string `json:"imageId"`
	Reactions string `json:"reactions"`
	// Mine is the caller's reaction after the toggle, nil if they have none.
	Mine *string `json:"mine"`
}

// React toggles userID's reaction on an image and refreshes the image's
// display string in the same transaction.
func (s *Service) React(ctx context.Context, imageID, userID, value string) (*ReactionResult, error) {
	value = strings.TrimSpace(value)
	switch {
	case userID == "":
		return nil, fmt.Errorf("%w: user is required", apperr.ErrInvalidInput)
	case value == "":
		return nil, fmt.Errorf("%w: reaction is required", apperr.ErrInvalidInput)
	case utf8.RuneCountInString(value) > reactions.MaxValueLength:
		return nil, fmt.Errorf("%w: reaction is too long", apperr.ErrInvalidInput)
	}

	res := &ReactionResult{ImageID: imageID}
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		img, err := tx.GetImage(ctx, imageID)
		if err != nil {
			return err
		}
		lobby, err := tx.GetLobby(ctx, img.LobbyID)
		if err != nil {
			return err
		}
		if !visibleTo(lobby, userID) {
			return fmt.Errorf("%w: image", apperr.ErrNotFound)
		}

		existing, err := tx.FindReaction(ctx, imageID, userID)
		if err != nil {
			return err
		}
		var current *string
		if existing != nil {
			current = &existing.Value
		}

		next := reactions.Next(current, value)
		switch next.Action {
		case reactions.Insert:
			err = tx.CreateReaction(ctx, &models.Reaction{
				ID:        uuid.NewString(),
				UserID:    userID,
				LobbyID:   img.LobbyID,
				ImageID:   imageID,
				CreatedOn: s.now(),
				Value:     next.Value,
			})
		case reactions.Update:
			err = tx.UpdateReactionValue(ctx, existing.ID, next.Value)
		case reactions.Delete:
			err = tx.DeleteUserReactions(ctx, imageID, userID)
		}
		if err != nil {
			return err
		}

		values, err := tx.ReactionValues(ctx, imageID)
		if err != nil {
			return err
		}
		res.Reactions = reactions.Aggregate(values)
		res.Mine = next.Result()
		return tx.SetImageReactions(ctx, imageID, res.Reactions)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
