// Package ws es la consola local: un endpoint WebSocket que acepta líneas de
// comando y una API HTTP para inspeccionar y editar los comandos.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"zhatCmd/internal/app/events"
	"zhatCmd/internal/domain"
	"zhatCmd/internal/infrastructure/logging"
)

const (
	// ConsoleChannel es el canal de todos los mensajes que entran por la consola.
	ConsoleChannel = "console"

	TypeReply = "reply"
	TypeTTS   = "tts"

	defaultUsername = "web-user"
)

type MessageHandler func(ctx context.Context, msg domain.Message) error

// Subscriber es la parte del bus que usa la consola.
type Subscriber interface {
	Subscribe(topic string) (<-chan any, func())
}

type Config struct {
	Addr    string
	Catalog CommandCatalog
	TTS     TTSManager
	Stream  StreamManager
	Logger  *log.Logger
}

func (c *Config) addr() string {
	if c == nil || c.Addr == "" {
		return ":8080"
	}
	return c.Addr
}

// Envelope es lo que recibe cada cliente: Type es "reply", "tts" o el tópico
// del bus que originó el evento.
type Envelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data any    `json:"data"`
}

type ReplyDTO struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

// Server expone /ws/chat y la API en /api/.
type Server struct {
	addr     string
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	handler MessageHandler

	httpSrv *http.Server
	api     *apiHandlers
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func NewServer(cfg Config) *Server {
	return &Server{
		addr:   cfg.addr(),
		logger: logging.Or(cfg.Logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*wsClient]struct{}),
		api:     newAPIHandlers(cfg),
	}
}

func (s *Server) SetHandler(h MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// SetTTSStatusProvider suma el estado de la cola a /api/tts/status. Se
// llama antes de Start.
func (s *Server) SetTTSStatusProvider(p TTSStatusReporter) {
	s.api.queue = p
}

func (s *Server) getHandler() MessageHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handler
}

// Handler arma las rutas; ctx corta las conexiones WebSocket abiertas.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/chat", func(w http.ResponseWriter, r *http.Request) {
		s.handleWS(ctx, w, r)
	})
	s.api.register(mux)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			setCORSHeaders(w)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		mux.ServeHTTP(w, r)
	})
}

// Start levanta el HTTP server y se bloquea hasta que el contexto se cancela.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("shutdown error", "err", err)
		}
		s.closeClients()
	}()

	s.logger.Info("console listening", "addr", s.addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade error", "err", err)
		return
	}

	client := &wsClient{conn: conn}

	s.mu.Lock()
	s.clients[client] = struct{}{}
	clientCount := len(s.clients)
	s.mu.Unlock()

	s.logger.Info("nueva conexión", "remote", r.RemoteAddr, "clients", clientCount)

	go s.handleClient(ctx, client)
}

func (s *Server) handleClient(ctx context.Context, client *wsClient) {
	defer func() {
		s.drop(client)
		s.logger.Info("conexión cerrada", "clients", s.ClientCount())
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgType, data, err := client.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read error", "err", err)
			}
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		msg, ok := decodeIncoming(data)
		if !ok {
			continue
		}
		if handler := s.getHandler(); handler != nil {
			if err := handler(ctx, msg); err != nil {
				s.logger.Error("incoming dispatch error", "err", err)
			}
		}
	}
}

type incomingPayload struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

// decodeIncoming acepta texto plano o JSON {text, username}. Todo lo que
// entra por la consola tiene permisos de dueño del canal.
func decodeIncoming(data []byte) (domain.Message, bool) {
	payload := incomingPayload{}
	if err := json.Unmarshal(data, &payload); err != nil {
		payload = incomingPayload{Text: string(data)}
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return domain.Message{}, false
	}

	return domain.Message{
		Platform:        domain.PlatformWeb,
		ChannelID:       ConsoleChannel,
		UserID:          "web",
		Username:        username(payload.Username),
		Text:            text,
		IsPlatformOwner: true,
	}, true
}

func username(name string) string {
	name = strings.TrimSpace(name)
	return lo.Ternary(name != "", name, defaultUsername)
}

// SendMessage cumple con outs.Sender para la plataforma web: la respuesta
// llega a todos los clientes conectados.
func (s *Server) SendMessage(ctx context.Context, _ domain.Platform, channelID, text string) error {
	return s.broadcast(ctx, Envelope{
		ID:   uuid.NewString(),
		Type: TypeReply,
		Data: ReplyDTO{ChannelID: channelID, Text: text},
	})
}

func (s *Server) PublishTTSEvent(ctx context.Context, event domain.TTSEvent) error {
	return s.broadcast(ctx, Envelope{ID: lo.Ternary(event.ID != "", event.ID, uuid.NewString()), Type: TypeTTS, Data: event})
}

var _ domain.TTSEventPublisher = (*Server)(nil)

// Forward reenvía a los clientes los eventos del bus de los tópicos dados
// hasta que ctx se cancela.
func (s *Server) Forward(ctx context.Context, bus Subscriber, topics ...string) {
	for _, topic := range lo.Uniq(topics) {
		ch, unsubscribe := bus.Subscribe(topic)
		go func(topic string) {
			defer unsubscribe()
			for {
				select {
				case <-ctx.Done():
					return
				case payload, ok := <-ch:
					if !ok {
						return
					}
					env := Envelope{ID: uuid.NewString(), Type: topic, Data: payload}
					if err := s.broadcast(ctx, env); err != nil {
						return
					}
				}
			}
		}(topic)
	}
}

// DefaultTopics son los tópicos que la consola muestra.
var DefaultTopics = []string{
	events.TopicChatMessage,
	events.TopicAppError,
	events.TopicStreamStatus,
	events.TopicTTSStatus,
	events.TopicTTSSpoken,
}

func (s *Server) broadcast(ctx context.Context, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.RLock()
	clients := lo.Keys(s.clients)
	s.mu.RUnlock()

	for _, c := range clients {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.writeJSON(json.RawMessage(payload)); err != nil {
			s.logger.Warn("removing client due to write error", "err", err)
			s.drop(c)
		}
	}
	return nil
}

func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) drop(c *wsClient) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	_ = c.conn.Close()
}

func (s *Server) closeClients() {
	s.mu.RLock()
	clients := lo.Keys(s.clients)
	s.mu.RUnlock()
	for _, c := range clients {
		s.drop(c)
	}
}
