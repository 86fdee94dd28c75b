package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/petermazzocco/photo-lobby/internal/apperr"
	"github.com/petermazzocco/photo-lobby/models"
)

const MaxReportMessageLength = 2000

type ReportInput struct {
	LobbyID string `json:"lobbyId"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// CreateReport files an abuse report against a lobby. creatorID is empty
// for anonymous reporters.
func (s *Service) CreateReport(ctx context.Context, creatorID string, in ReportInput) (*models.Report, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, fmt.Errorf("%w: email is not valid", apperr.ErrInvalidInput)
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", apperr.ErrInvalidInput)
	}
	if utf8.RuneCountInString(message) > MaxReportMessageLength {
		return nil, fmt.Errorf("%w: message is longer than %d characters", apperr.ErrInvalidInput, MaxReportMessageLength)
	}

	lobby, err := s.store.GetLobby(ctx, in.LobbyID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(lobby, creatorID) {
		return nil, fmt.Errorf("%w: lobby", apperr.ErrNotFound)
	}

	report := &models.Report{
		ID:        uuid.NewString(),
		Status:    models.ReportStatusOpen,
		LobbyID:   lobby.ID,
		CreatorID: creatorID,
		CreatedOn: s.now(),
		Email:     addr.Address,
		Message:   message,
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	s.log.Info("report filed", "report", report.ID, "lobby", lobby.ID)
	return report, nil
}
