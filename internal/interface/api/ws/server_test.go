package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zhatCmd/internal/app/events"
	"zhatCmd/internal/domain"
	"zhatCmd/internal/usecase/catalog"
	"zhatCmd/internal/usecase/commands"
	"zhatCmd/internal/usecase/custom"
	ttsusecase "zhatCmd/internal/usecase/tts"
)

type envelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := NewServer(cfg)
	ts := httptest.NewServer(srv.Handler(ctx))
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, srv *Server, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	before := srv.ClientCount()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return srv.ClientCount() > before }, time.Second, 10*time.Millisecond)
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestConsoleRoundTrip(t *testing.T) {
	srv, ts := startServer(t, Config{})
	received := make(chan domain.Message, 1)
	srv.SetHandler(func(ctx context.Context, msg domain.Message) error {
		received <- msg
		return srv.SendMessage(ctx, msg.Platform, msg.ChannelID, "pong")
	})

	conn := dial(t, srv, ts)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("!ping")))

	env := readEnvelope(t, conn)
	assert.Equal(t, TypeReply, env.Type)
	assert.NotEmpty(t, env.ID)

	var reply ReplyDTO
	require.NoError(t, json.Unmarshal(env.Data, &reply))
	assert.Equal(t, ReplyDTO{ChannelID: ConsoleChannel, Text: "pong"}, reply)

	msg := <-received
	assert.Equal(t, domain.PlatformWeb, msg.Platform)
	assert.Equal(t, "!ping", msg.Text)
	assert.Equal(t, defaultUsername, msg.Username)
	assert.True(t, msg.IsPlatformOwner)
}

func TestRepliesReachEveryClient(t *testing.T) {
	srv, ts := startServer(t, Config{})
	srv.SetHandler(func(ctx context.Context, msg domain.Message) error {
		return srv.SendMessage(ctx, msg.Platform, msg.ChannelID, "hola "+msg.Username)
	})

	first := dial(t, srv, ts)
	second := dial(t, srv, ts)
	require.NoError(t, first.WriteMessage(websocket.TextMessage, []byte(`{"text":"!hola","username":"ana"}`)))

	for _, conn := range []*websocket.Conn{first, second} {
		var reply ReplyDTO
		require.NoError(t, json.Unmarshal(readEnvelope(t, conn).Data, &reply))
		assert.Equal(t, "hola ana", reply.Text)
	}
}

func TestDecodeIncoming(t *testing.T) {
	msg, ok := decodeIncoming([]byte(`{"text":"  !tts say hola ","username":" ana "}`))
	require.True(t, ok)
	assert.Equal(t, "!tts say hola", msg.Text)
	assert.Equal(t, "ana", msg.Username)
	assert.Equal(t, ConsoleChannel, msg.ChannelID)

	msg, ok = decodeIncoming([]byte("!ping\n"))
	require.True(t, ok)
	assert.Equal(t, "!ping", msg.Text)

	_, ok = decodeIncoming([]byte(`{"text":"   "}`))
	assert.False(t, ok)
	_, ok = decodeIncoming([]byte("  "))
	assert.False(t, ok)
}

func TestForwardBusEvents(t *testing.T) {
	srv, ts := startServer(t, Config{})
	bus := events.NewBus(nil)
	t.Cleanup(bus.Close)
	srv.Forward(t.Context(), bus, events.TopicChatMessage, events.TopicChatMessage)

	conn := dial(t, srv, ts)
	bus.Publish(events.TopicChatMessage, events.NewChatMessageDTO(domain.Message{
		Platform: domain.PlatformKick,
		Username: "ana",
		Text:     "hola",
	}))

	env := readEnvelope(t, conn)
	assert.Equal(t, events.TopicChatMessage, env.Type)

	var dto events.ChatMessageDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.Equal(t, "kick", dto.Platform)
	assert.Equal(t, "hola", dto.Text)
}

func TestPublishTTSEventKeepsID(t *testing.T) {
	srv, ts := startServer(t, Config{})
	conn := dial(t, srv, ts)

	require.NoError(t, srv.PublishTTSEvent(t.Context(), domain.TTSEvent{ID: "abc", Text: "hola"}))

	env := readEnvelope(t, conn)
	assert.Equal(t, TypeTTS, env.Type)
	assert.Equal(t, "abc", env.ID)
}

func newCatalog(t *testing.T) *catalog.Service {
	t.Helper()
	root := commands.New("bot", commands.DefaultConfig()).SetPrefixes("!")
	root.Command("ping").SetDescription("responde pong").ActionFunc(func(*commands.Invocation) error { return nil })

	mgr, err := custom.NewManager(t.Context(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, root.Use(mgr))
	return catalog.NewService(root, mgr)
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestCommandsAPI(t *testing.T) {
	_, ts := startServer(t, Config{Catalog: newCatalog(t)})

	resp := do(t, ts, http.MethodPost, "/api/commands", `{"name":"discord","response":"discord.gg/x","aliases":["dc"]}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/api/commands", `{"name":"discord","response":"discord.gg/y"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated catalog.CommandDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, "discord.gg/y", updated.Response)
	assert.Equal(t, []string{"dc"}, updated.Aliases)

	resp = do(t, ts, http.MethodGet, "/api/commands", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	var list []catalog.CommandDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	names := make([]string, 0, len(list))
	for _, c := range list {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"ping", "discord"}, names)

	assert.Equal(t, http.StatusConflict, do(t, ts, http.MethodPost, "/api/commands", `{"name":"ping","response":"x"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodPost, "/api/commands", `{`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodPost, "/api/commands", `{"name":"x","response":"y","permissions":["admins"]}`).StatusCode)

	assert.Equal(t, http.StatusNoContent, do(t, ts, http.MethodDelete, "/api/commands/dc", "").StatusCode)
	assert.Equal(t, http.StatusNotFound, do(t, ts, http.MethodDelete, "/api/commands/discord", "").StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	_, ts := startServer(t, Config{Catalog: newCatalog(t)})

	resp := do(t, ts, http.MethodOptions, "/api/commands", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "DELETE")
}

type fakeStream struct {
	statuses []domain.StreamStatus
	options  []domain.CategoryOption
	updated  []domain.Platform
	err      error
}

func (f *fakeStream) Search(context.Context, domain.Platform, string) ([]domain.CategoryOption, error) {
	return f.options, f.err
}

func (f *fakeStream) SetCategory(context.Context, string, domain.Platform) ([]domain.Platform, error) {
	return f.updated, f.err
}

func (f *fakeStream) Snapshot(context.Context) []domain.StreamStatus { return f.statuses }

func TestStreamAPI(t *testing.T) {
	stream := &fakeStream{
		statuses: []domain.StreamStatus{{Platform: domain.PlatformTwitch, IsLive: true, ViewerCount: 7}},
		options:  []domain.CategoryOption{{ID: "1", Name: "Just Chatting"}},
		updated:  []domain.Platform{domain.PlatformKick},
	}
	_, ts := startServer(t, Config{Stream: stream})

	resp := do(t, ts, http.MethodGet, "/api/stream/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var statuses []events.StreamStatusDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, "twitch", statuses[0].Platform)
	assert.Equal(t, 7, statuses[0].ViewerCount)

	resp = do(t, ts, http.MethodGet, "/api/categories/search?platform=twitch&query=just", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var options []categoryOptionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&options))
	assert.Equal(t, []categoryOptionResponse{{ID: "1", Name: "Just Chatting"}}, options)

	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodGet, "/api/categories/search?platform=youtube&query=x", "").StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodGet, "/api/categories/search?platform=kick", "").StatusCode)

	resp = do(t, ts, http.MethodPost, "/api/categories/update", `{"platform":"kick","name":"Just Chatting"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result categoryUpdateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, []domain.Platform{domain.PlatformKick}, result.Updated)

	stream.err = domain.ErrCategoryNotFound
	assert.Equal(t, http.StatusNotFound, do(t, ts, http.MethodPost, "/api/categories/update", `{"name":"nada"}`).StatusCode)
}

func TestRoutesNeedTheirService(t *testing.T) {
	_, ts := startServer(t, Config{})
	assert.Equal(t, http.StatusNotFound, do(t, ts, http.MethodGet, "/api/commands", "").StatusCode)
	assert.Equal(t, http.StatusNotFound, do(t, ts, http.MethodGet, "/api/tts/status", "").StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(catalog.ErrUnavailable))
	assert.Equal(t, http.StatusBadRequest, statusFor(custom.ErrInvalidName))
	assert.Equal(t, http.StatusConflict, statusFor(custom.ErrExists))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

type fakeTTS struct {
	enabled bool
	voice   ttsusecase.VoiceOption
}

func (f *fakeTTS) ListVoices() []ttsusecase.VoiceOption {
	return []ttsusecase.VoiceOption{{Code: "es", Label: "Español"}, {Code: "en", Label: "English"}}
}

func (f *fakeTTS) CurrentVoice(context.Context) ttsusecase.VoiceOption { return f.voice }
func (f *fakeTTS) Enabled(context.Context) bool                        { return f.enabled }

func (f *fakeTTS) SetVoice(_ context.Context, code string) (ttsusecase.VoiceOption, error) {
	for _, v := range f.ListVoices() {
		if v.Code == code {
			f.voice = v
			return v, nil
		}
	}
	return ttsusecase.VoiceOption{}, ttsusecase.ErrUnsupportedVoice
}

func (f *fakeTTS) SetEnabled(_ context.Context, enabled bool) error {
	f.enabled = enabled
	return nil
}

type fakeQueue struct{}

func (fakeQueue) Status() events.TTSStatusDTO { return events.NewTTSStatusDTO("idle", 2, "", "") }

func TestTTSAPI(t *testing.T) {
	tts := &fakeTTS{enabled: true, voice: ttsusecase.VoiceOption{Code: "es", Label: "Español"}}
	srv, ts := startServer(t, Config{TTS: tts})
	srv.SetTTSStatusProvider(fakeQueue{})

	resp := do(t, ts, http.MethodGet, "/api/tts/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status ttsStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.Enabled)
	assert.Equal(t, "es", status.Voice)
	assert.Len(t, status.Voices, 2)
	require.NotNil(t, status.Queue)
	assert.Equal(t, 2, status.Queue.QueueLength)

	resp = do(t, ts, http.MethodPost, "/api/tts/settings", `{"voice":"en","enabled":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.False(t, status.Enabled)
	assert.Equal(t, "English", status.VoiceLabel)

	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodPost, "/api/tts/settings", `{"voice":"xx"}`).StatusCode)
}
