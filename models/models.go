package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ReportStatusOpen = "open"

	// LikeReaction counts toward an image's total but has no glyph.
	LikeReaction = "like"

	// InitialReactions is the display string of an image nobody reacted to.
	InitialReactions = "0"
)

// User is created or refreshed every time someone completes the OAuth login.
type User struct {
	ID        string    `gorm:"primarykey;size:64" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null;index" json:"email"`
}

// Lobby is a shared album. Images holds the display order of its photos and
// is the only source of truth for ordering.
type Lobby struct {
	ID              string                      `gorm:"primarykey;size:32" json:"id"`
	Code            string                      `gorm:"size:6;not null;uniqueIndex" json:"code"`
	CreatedOn       time.Time                   `gorm:"not null;index" json:"createdOn"`
	FirstUploadOn   *time.Time                  `json:"firstUploadOn"`
	OwnerID         string                      `gorm:"size:64;not null;index" json:"ownerId"`
	Title           string                      `gorm:"size:255;not null" json:"title"`
	BackgroundColor string                      `gorm:"size:7;not null" json:"backgroundColor"`
	ViewersCanEdit  bool                        `gorm:"not null;default:false" json:"viewersCanEdit"`
	IsDraft         bool                        `gorm:"not null;default:false" json:"isDraft"`
	Images          datatypes.JSONSlice[string] `json:"images"`
}

type Image struct {
	ID         string    `gorm:"primarykey;size:32" json:"id"`
	LobbyID    string    `gorm:"size:32;not null;index" json:"lobbyId"`
	Lobby      *Lobby    `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedOn  time.Time `gorm:"not null" json:"createdOn"`
	UploaderID string    `gorm:"size:64;not null" json:"uploaderId"`
	// Reactions is the display string: a count plus up to four distinct
	// values, each as long as a Reaction value may be.
	Reactions  string    `gorm:"type:text;not null;default:'0'" json:"reactions"`
}

// Reaction is one user's single reaction slot on an image. LobbyID is a
// copy of the image's lobby.
type Reaction struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	UserID    string    `gorm:"size:64;not null;index:idx_reaction_image_user,priority:2" json:"userId"`
	LobbyID   string    `gorm:"size:32;not null;index" json:"lobbyId"`
	ImageID   string    `gorm:"size:32;not null;index:idx_reaction_image_user,priority:1" json:"imageId"`
	Image     *Image    `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedOn time.Time `gorm:"not null" json:"createdOn"`
	Value     string    `gorm:"size:128;not null" json:"value"`
}

type JoinedLobby struct {
	ID       string    `gorm:"primarykey;size:36" json:"id"`
	LobbyID  string    `gorm:"size:32;not null;index:idx_joined_lobby_user,priority:1" json:"lobbyId"`
	Lobby    *Lobby    `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	UserID   string    `gorm:"size:64;not null;index:idx_joined_lobby_user,priority:2" json:"userId"`
	JoinedOn time.Time `gorm:"not null" json:"joinedOn"`
}

type Report struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	Status    string    `gorm:"size:20;not null;default:'open'" json:"status"`
	LobbyID   string    `gorm:"size:32;not null;index" json:"lobbyId"`
	CreatorID string    `gorm:"size:64" json:"creatorId"`
	CreatedOn time.Time `gorm:"not null" json:"createdOn"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Message   string    `gorm:"type:text;not null" json:"message"`
}

// All lists every model for AutoMigrate, parents first.
func All() []any {
	return []any{&User{}, &Lobby{}, &Image{}, &Reaction{}, &JoinedLobby{}, &Report{}}
}
