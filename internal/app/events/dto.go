package events

import (
	"time"

	"zhatCmd/internal/domain"
)

// ChatMessageDTO es el payload de chat:message.
type ChatMessageDTO struct {
	Platform        string `json:"platform"`
	ChannelID       string `json:"channel_id"`
	UserID          string `json:"user_id"`
	Username        string `json:"username"`
	Text            string `json:"text"`
	IsPrivate       bool   `json:"is_private"`
	IsPlatformOwner bool   `json:"is_platform_owner"`
	IsPlatformAdmin bool   `json:"is_platform_admin"`
	IsPlatformMod   bool   `json:"is_platform_mod"`
	IsPlatformVip   bool   `json:"is_platform_vip"`
	IsSubscriber    bool   `json:"is_subscriber"`
	Timestamp       string `json:"timestamp"`
}

func NewChatMessageDTO(msg domain.Message) ChatMessageDTO {
	return ChatMessageDTO{
		Platform:        string(msg.Platform),
		ChannelID:       msg.ChannelID,
		UserID:          msg.UserID,
		Username:        msg.Username,
		Text:            msg.Text,
		IsPrivate:       msg.IsPrivate,
		IsPlatformOwner: msg.IsPlatformOwner,
		IsPlatformAdmin: msg.IsPlatformAdmin,
		IsPlatformMod:   msg.IsPlatformMod,
		IsPlatformVip:   msg.IsPlatformVip,
		IsSubscriber:    msg.IsSubscriber,
		Timestamp:       time.Now().UTC().Format(time.RFC3339Nano),
	}
}

type StreamStatusDTO struct {
	Platform    string `json:"platform"`
	IsLive      bool   `json:"is_live"`
	Title       string `json:"title,omitempty"`
	GameTitle   string `json:"game_title,omitempty"`
	ViewerCount int    `json:"viewer_count"`
	StartedAt   string `json:"started_at,omitempty"`
	URL         string `json:"url,omitempty"`
}

func NewStreamStatusDTO(status domain.StreamStatus) StreamStatusDTO {
	dto := StreamStatusDTO{
		Platform:    string(status.Platform),
		IsLive:      status.IsLive,
		Title:       status.Title,
		GameTitle:   status.GameTitle,
		ViewerCount: status.ViewerCount,
		URL:         status.URL,
	}
	if !status.StartedAt.IsZero() {
		dto.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

// AppErrorDTO es el payload de app:error.
type AppErrorDTO struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}
