// Package kickadapter conecta el bot al chat de Kick: lee por el websocket
// público y responde con la API oficial.
package kickadapter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	kicksdk "github.com/glichtv/kick-sdk"
	kickchatwrapper "github.com/johanvandegriff/kick-chat-wrapper"

	"zhatCmd/internal/domain"
	"zhatCmd/internal/infrastructure/logging"
	"zhatCmd/internal/interface/outs"
)

var ErrNotStarted = errors.New("kick: cliente SDK no inicializado (Start no llamado o falló)")

type Config struct {
	// Token del bot de Kick
	AccessToken string

	// ID del usuario broadcaster (tu cuenta de Kick)
	BroadcasterUserID int

	// ID del chatroom (no es el mismo que el userID); sale de
	// https://kick.com/api/v2/channels/{slug}, campo "chatroom":{"id":...}
	ChatroomID int
}

type MessageHandler func(ctx context.Context, msg domain.Message) error

type Adapter struct {
	cfg    Config
	logger *log.Logger

	mu      sync.RWMutex
	handler MessageHandler
	sdk     *kicksdk.Client
	ws      *kickchatwrapper.Client
}

func NewAdapter(cfg Config, logger *log.Logger) *Adapter {
	return &Adapter{cfg: cfg, logger: logging.Or(logger)}
}

func (a *Adapter) SetHandler(h MessageHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = h
}

func (a *Adapter) Start(ctx context.Context) error {
	if a.cfg.AccessToken == "" {
		return errors.New("kick: AccessToken vacío")
	}
	if a.cfg.ChatroomID == 0 {
		return errors.New("kick: ChatroomID no configurado")
	}
	if a.cfg.BroadcasterUserID == 0 {
		return errors.New("kick: BroadcasterUserID no configurado")
	}

	sdkClient := kicksdk.NewClient(
		kicksdk.WithAccessTokens(kicksdk.AccessTokens{
			UserAccessToken: a.cfg.AccessToken,
		}),
	)

	wsClient, err := kickchatwrapper.NewClient()
	if err != nil {
		return fmt.Errorf("kick: error creando ws client: %w", err)
	}
	if err := wsClient.JoinChannelByID(a.cfg.ChatroomID); err != nil {
		wsClient.Close()
		return fmt.Errorf("kick: JoinChannelByID: %w", err)
	}

	msgChan := wsClient.ListenForMessages()

	a.mu.Lock()
	a.sdk = sdkClient
	a.ws = wsClient
	a.mu.Unlock()

	a.logger.Info("conectado", "chatroom", a.cfg.ChatroomID, "broadcaster", a.cfg.BroadcasterUserID)

	go a.listen(ctx, msgChan)

	<-ctx.Done()

	a.mu.Lock()
	a.ws.Close()
	a.ws = nil
	a.mu.Unlock()

	return ctx.Err()
}

func (a *Adapter) listen(ctx context.Context, msgChan <-chan kickchatwrapper.ChatMessage) {
	for {
		select {
		case m, ok := <-msgChan:
			if !ok {
				a.logger.Warn("canal de mensajes cerrado")
				return
			}

			a.mu.RLock()
			handler := a.handler
			a.mu.RUnlock()
			if handler == nil {
				continue
			}

			if err := handler(ctx, a.toDomain(m)); err != nil {
				a.logger.Error("handler failed", "err", err)
			}

		case <-ctx.Done():
			return
		}
	}
}

// SendMessage publica cada línea de text como un mensaje del bot.
func (a *Adapter) SendMessage(ctx context.Context, platform domain.Platform, _ string, text string) error {
	if platform != domain.PlatformKick {
		return fmt.Errorf("kick adapter no soporta plataforma %s", platform)
	}

	a.mu.RLock()
	client := a.sdk
	a.mu.RUnlock()

	if client == nil {
		return ErrNotStarted
	}

	for _, line := range outs.Lines(text) {
		if err := a.post(ctx, client, strings.TrimSpace(line)); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) post(ctx context.Context, client *kicksdk.Client, text string) error {
	resp, err := client.Chat().PostMessage(ctx, kicksdk.PostChatMessageInput{
		BroadcasterUserID: a.cfg.BroadcasterUserID,
		Content:           text,
		PosterType:        kicksdk.MessagePosterUser,
	})
	if err != nil {
		return fmt.Errorf("kick: error enviando mensaje de chat: %w", err)
	}

	if !resp.Payload.IsSent {
		meta := resp.ResponseMetadata
		a.logger.Warn("PostMessage rechazado",
			"status", meta.StatusCode,
			"message_id", resp.Payload.MessageID,
			"kick_message", meta.KickMessage,
			"kick_error", meta.KickError,
			"description", meta.KickErrorDescription,
		)
		return fmt.Errorf("kick: mensaje no fue aceptado por la API (status %d)", meta.StatusCode)
	}

	a.logger.Debug("mensaje entregado", "message_id", resp.Payload.MessageID)
	return nil
}

func (a *Adapter) toDomain(m kickchatwrapper.ChatMessage) domain.Message {
	sender := m.Sender

	badges := make([]string, 0, len(sender.Identity.Badges))
	for _, b := range sender.Identity.Badges {
		badges = append(badges, b.Type)
	}
	roles := rolesFromBadges(badges)
	isOwner := sender.ID == a.cfg.BroadcasterUserID || roles.broadcaster

	return domain.Message{
		Platform:  domain.PlatformKick,
		ChannelID: strconv.Itoa(m.ChatroomID),
		UserID:    strconv.Itoa(sender.ID),
		Username:  sender.Username,
		Text:      m.Content,

		IsPlatformOwner: isOwner,
		IsPlatformAdmin: isOwner || roles.moderator,
		IsPlatformMod:   roles.moderator,
		IsPlatformVip:   roles.vip,
		IsSubscriber:    roles.subscriber,
	}
}

type badgeRoles struct {
	broadcaster bool
	moderator   bool
	vip         bool
	subscriber  bool
}

func rolesFromBadges(types []string) badgeRoles {
	var r badgeRoles
	for _, t := range types {
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "broadcaster":
			r.broadcaster = true
			r.moderator = true
		case "moderator":
			r.moderator = true
		case "vip":
			r.vip = true
		case "subscriber", "og", "founder":
			r.subscriber = true
		}
	}
	return r
}
