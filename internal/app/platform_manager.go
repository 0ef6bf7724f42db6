package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"zhatCmd/internal/domain"
	"zhatCmd/internal/infrastructure/config"
	"zhatCmd/internal/infrastructure/logging"
	kickinfra "zhatCmd/internal/infrastructure/platform/kick"
	twitchinfra "zhatCmd/internal/infrastructure/platform/twitch"
	kickadapter "zhatCmd/internal/interface/adapters/kick"
	twitchadapter "zhatCmd/internal/interface/adapters/twitch"
	"zhatCmd/internal/interface/outs"
	"zhatCmd/internal/usecase/stream"
)

type MessageHandler func(ctx context.Context, msg domain.Message) error

type ManagerConfig struct {
	Context  context.Context
	Config   *config.Config
	Resolver *stream.Resolver
	MultiOut *outs.MultiSender
	Logger   *log.Logger
}

// PlatformManager arranca los chats y registra los servicios de stream de
// cada plataforma configurada.
type PlatformManager struct {
	ctx      context.Context
	cfg      *config.Config
	resolver *stream.Resolver
	multiOut *outs.MultiSender
	logger   *log.Logger

	handlerMu sync.RWMutex
	handler   MessageHandler

	mu       sync.Mutex
	cancels  map[domain.Platform]context.CancelFunc
	channels map[domain.Platform]string
	wg       sync.WaitGroup
}

func NewPlatformManager(cfg ManagerConfig) *PlatformManager {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.Config{}
	}
	return &PlatformManager{
		ctx:      ctx,
		cfg:      appCfg,
		resolver: cfg.Resolver,
		multiOut: cfg.MultiOut,
		logger:   logging.Or(cfg.Logger),
		cancels:  make(map[domain.Platform]context.CancelFunc),
		channels: make(map[domain.Platform]string),
	}
}

func (m *PlatformManager) SetHandler(handler MessageHandler) {
	m.handlerMu.Lock()
	defer m.handlerMu.Unlock()
	m.handler = handler
}

func (m *PlatformManager) getHandler() MessageHandler {
	m.handlerMu.RLock()
	defer m.handlerMu.RUnlock()
	return m.handler
}

// Start registra los servicios de stream y conecta los chats. Una plataforma
// mal configurada no impide arrancar las demás; sus errores vuelven juntos.
func (m *PlatformManager) Start() error {
	errs := m.registerStreams(m.ctx)

	if m.cfg.HasTwitchChat() {
		m.startTwitch()
	} else {
		m.logger.Info("twitch: chat deshabilitado (faltan credenciales del bot)")
	}

	if m.cfg.HasKick() {
		m.startKick()
	} else {
		m.logger.Info("kick: chat deshabilitado (faltan token o IDs)")
	}

	return errors.Join(errs...)
}

// registerStreams arma los servicios de título, categoría y estado.
func (m *PlatformManager) registerStreams(ctx context.Context) []error {
	if m.resolver == nil {
		return nil
	}
	var errs []error

	if m.cfg.HasTwitchAPI() {
		if err := m.registerTwitchStream(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if m.cfg.KickToken != "" {
		svc, err := kickinfra.NewStreamService(kickinfra.KickStreamServiceConfig{AccessToken: m.cfg.KickToken})
		if err != nil {
			errs = append(errs, fmt.Errorf("kick: %w", err))
		} else {
			m.resolver.Set(domain.PlatformKick, svc)
		}
	}
	return errs
}

func (m *PlatformManager) registerTwitchStream(ctx context.Context) error {
	svc, err := twitchinfra.NewStreamService(m.cfg.TwitchClientId, m.cfg.TwitchApiToken)
	if err != nil {
		return fmt.Errorf("twitch: %w", err)
	}

	broadcasterID := m.cfg.TwitchBroadcasterId
	if broadcasterID == "" {
		login := lo.FirstOr(m.cfg.TwitchChannels, m.cfg.TwitchUsername)
		if broadcasterID, err = svc.ResolveBroadcasterID(ctx, login); err != nil {
			return fmt.Errorf("twitch: no pude resolver el ID del canal: %w", err)
		}
	}

	adapter := twitchinfra.NewChannelAdapter(svc, broadcasterID)
	m.resolver.Set(domain.PlatformTwitch, adapter)
	m.resolver.SetStatus(domain.PlatformTwitch, adapter)
	return nil
}

func (m *PlatformManager) startTwitch() {
	channels := sanitizeTwitchChannels(m.cfg.TwitchChannels)
	adapter := twitchadapter.NewAdapter(twitchadapter.Config{
		Username:   m.cfg.TwitchUsername,
		OAuthToken: formatTwitchOAuthToken(m.cfg.TwitchToken),
		Channels:   channels,
	}, m.logger.WithPrefix("twitch"))
	adapter.SetHandler(m.dispatch)

	m.run(domain.PlatformTwitch, lo.FirstOr(channels, ""), adapter, adapter.Start)
}

func (m *PlatformManager) startKick() {
	adapter := kickadapter.NewAdapter(kickadapter.Config{
		AccessToken:       m.cfg.KickToken,
		BroadcasterUserID: m.cfg.KickBroadcasterUserID,
		ChatroomID:        m.cfg.KickChatroomID,
	}, m.logger.WithPrefix("kick"))
	adapter.SetHandler(m.dispatch)

	m.run(domain.PlatformKick, strconv.Itoa(m.cfg.KickChatroomID), adapter, adapter.Start)
}

func (m *PlatformManager) run(platform domain.Platform, channel string, sender outs.Sender, start func(context.Context) error) {
	ctx, cancel := context.WithCancel(m.ctx)

	m.mu.Lock()
	m.cancels[platform] = cancel
	m.channels[platform] = channel
	m.mu.Unlock()

	if m.multiOut != nil {
		m.multiOut.Register(platform, sender)
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.logger.Info("conectando chat", "platform", platform, "channel", channel)
		if err := start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("adapter terminó con error", "platform", platform, "err", err)
		}
		if m.multiOut != nil {
			m.multiOut.Unregister(platform)
		}
	}()
}

// dispatch completa el canal cuando la plataforma no lo trae.
func (m *PlatformManager) dispatch(ctx context.Context, msg domain.Message) error {
	if msg.ChannelID == "" {
		msg.ChannelID = m.ChannelID(msg.Platform)
	}
	handler := m.getHandler()
	if handler == nil {
		return nil
	}
	return handler(ctx, msg)
}

func (m *PlatformManager) ChannelID(platform domain.Platform) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channels[platform]
}

// Shutdown corta los chats y espera a que terminen.
func (m *PlatformManager) Shutdown() {
	m.mu.Lock()
	for platform, cancel := range m.cancels {
		cancel()
		delete(m.cancels, platform)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func formatTwitchOAuthToken(token string) string {
	if token == "" {
		return ""
	}
	if strings.HasPrefix(token, "oauth:") {
		return token
	}
	return "oauth:" + token
}

func sanitizeTwitchChannels(input []string) []string {
	return lo.Uniq(lo.Compact(lo.Map(input, func(raw string, _ int) string {
		return ensureTwitchChannel(raw)
	})))
}

func ensureTwitchChannel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if !strings.HasPrefix(value, "#") {
		value = "#" + value
	}
	return strings.ToLower(value)
}
