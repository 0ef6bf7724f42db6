package twitchinfra

import (
	"context"

	"zhatCmd/internal/domain"
)

// ChannelAdapter fija el broadcaster para exponer el servicio de Helix como
// un domain.StreamService más.
type ChannelAdapter struct {
	svc           domain.TwitchChannelService
	broadcasterID string
}

func NewChannelAdapter(svc domain.TwitchChannelService, broadcasterID string) *ChannelAdapter {
	return &ChannelAdapter{
		svc:           svc,
		broadcasterID: broadcasterID,
	}
}

func (a *ChannelAdapter) SetTitle(ctx context.Context, title string) error {
	return a.svc.SetTitle(ctx, a.broadcasterID, title)
}

func (a *ChannelAdapter) SetCategory(ctx context.Context, name string) error {
	return a.svc.UpdateCategory(ctx, a.broadcasterID, name)
}

func (a *ChannelAdapter) SearchCategories(ctx context.Context, query string) ([]domain.CategoryOption, error) {
	return a.svc.SearchCategories(ctx, query)
}

func (a *ChannelAdapter) Status(ctx context.Context) (domain.StreamStatus, error) {
	return a.svc.GetStreamStatus(ctx, a.broadcasterID)
}

var (
	_ domain.StreamService       = (*ChannelAdapter)(nil)
	_ domain.StreamStatusService = (*ChannelAdapter)(nil)
)
