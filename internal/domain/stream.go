package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCategoryNotFound lo devuelven los servicios cuando la plataforma no
// conoce la categoría pedida.
var ErrCategoryNotFound = errors.New("categoría no encontrada")

type CategoryOption struct {
	ID   string
	Name string
}

// StreamService es lo que cada plataforma expone para editar el directo.
type StreamService interface {
	SetTitle(ctx context.Context, title string) error
	SetCategory(ctx context.Context, name string) error
	SearchCategories(ctx context.Context, query string) ([]CategoryOption, error)
}

// Puerto para hacer acciones sobre el canal de Twitch vía Helix.
type TwitchChannelService interface {
	// broadcasterID: ID numérico del canal (tu cuenta de streamer)
	SetTitle(ctx context.Context, broadcasterID, newTitle string) error
	UpdateCategory(ctx context.Context, broadcasterID, gameName string) error
	SearchCategories(ctx context.Context, query string) ([]CategoryOption, error)
	GetStreamStatus(ctx context.Context, broadcasterID string) (StreamStatus, error)
}

type StreamStatus struct {
	Platform    Platform
	IsLive      bool
	Title       string
	GameTitle   string
	ViewerCount int
	StartedAt   time.Time
	URL         string
}

type StreamStatusService interface {
	Status(ctx context.Context) (StreamStatus, error)
}
