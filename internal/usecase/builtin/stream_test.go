package builtin

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zhatCmd/internal/app/events"
	"zhatCmd/internal/domain"
	"zhatCmd/internal/usecase/stream"
)

type fakeStream struct {
	title    string
	category string
	err      error
}

func (f *fakeStream) SetTitle(_ context.Context, title string) error {
	if f.err != nil {
		return f.err
	}
	f.title = title
	return nil
}

func (f *fakeStream) SetCategory(_ context.Context, name string) error {
	if name == "nada" {
		return fmt.Errorf("fake: %w", domain.ErrCategoryNotFound)
	}
	if f.err != nil {
		return f.err
	}
	f.category = name
	return nil
}

func (f *fakeStream) SearchCategories(_ context.Context, query string) ([]domain.CategoryOption, error) {
	out := make([]domain.CategoryOption, 0, 7)
	for i := range 7 {
		out = append(out, domain.CategoryOption{ID: fmt.Sprint(i), Name: fmt.Sprintf("%s %d", query, i)})
	}
	return out, nil
}

type fakeStatus domain.StreamStatus

func (f fakeStatus) Status(context.Context) (domain.StreamStatus, error) {
	return domain.StreamStatus(f), nil
}

type recordingBus struct {
	topics   []string
	payloads []any
}

func (b *recordingBus) Publish(topic string, payload any) {
	b.topics = append(b.topics, topic)
	b.payloads = append(b.payloads, payload)
}

func newStreamHarness(t *testing.T) (*harness, *fakeStream, *fakeStream, *recordingBus) {
	twitch, kick := &fakeStream{}, &fakeStream{}
	resolver := stream.NewResolver(nil)
	resolver.Set(domain.PlatformTwitch, twitch)
	resolver.Set(domain.PlatformKick, kick)
	resolver.SetStatus(domain.PlatformTwitch, fakeStatus{IsLive: true, GameTitle: "Just Chatting", ViewerCount: 3, StartedAt: time.Now()})
	resolver.SetStatus(domain.PlatformKick, fakeStatus{})

	bus := &recordingBus{}
	return newHarness(t, NewStream(resolver, bus)), twitch, kick, bus
}

func TestTitle(t *testing.T) {
	h, twitch, kick, _ := newStreamHarness(t)

	assert.Empty(t, h.run("!title hola", viewer))
	assert.Empty(t, twitch.title)

	assert.Equal(t, []string{"✅ Título actualizado (kick, twitch)."}, h.run(`!title "Jugando" con amigos`, admin))
	assert.Equal(t, "Jugando con amigos", twitch.title)
	assert.Equal(t, "Jugando con amigos", kick.title)

	assert.Equal(t, []string{"✅ Título actualizado (kick)."}, h.run("!title -p kick solo kick", admin))
	assert.Equal(t, "solo kick", kick.title)
	assert.Equal(t, "Jugando con amigos", twitch.title)

	assert.Equal(t, []string{"✅ Título actualizado (kick, twitch)."}, h.run("!title otra vez", admin))
	assert.Equal(t, "otra vez", twitch.title)

	assert.Equal(t, []string{"⚠️ plataforma desconocida: youtube"}, h.run("!title --platform youtube x", admin))

	twitch.err = errors.New("token vencido")
	assert.Equal(t, []string{"✅ Título actualizado (kick). ⚠️ Falló en twitch."}, h.run("!title nuevo", admin))
	assert.Equal(t, []string{"⚠️ No pude cambiar el título."}, h.run("!title -p twitch nuevo", admin))
}

func TestTitleMissingArgumentShowsHelp(t *testing.T) {
	h, _, _, _ := newStreamHarness(t)
	sent := h.run("!title", admin)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "  error: missing required argument title")
	assert.Contains(t, sent[0], "  Usage: title [options] <title...>")
}

func TestCategory(t *testing.T) {
	h, twitch, kick, _ := newStreamHarness(t)

	assert.Equal(t, []string{"✅ Categoría actualizada a: Just Chatting (twitch)."}, h.run("!game -p twitch Just Chatting", admin))
	assert.Equal(t, "Just Chatting", twitch.category)
	assert.Empty(t, kick.category)

	assert.Equal(t, []string{"😢 No encontré esa categoría/juego: nada"}, h.run("!category nada", admin))
}

func TestCategorySearch(t *testing.T) {
	h, twitch, _, _ := newStreamHarness(t)

	sent := h.run("!category -s chat", admin)
	assert.Equal(t, []string{"🔎 twitch: chat 0, chat 1, chat 2, chat 3, chat 4"}, sent)
	assert.Empty(t, twitch.category)

	web := admin
	web.Platform = domain.PlatformWeb
	sent = h.run("!category --search -p kick chat", web)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "🔎 kick:")
}

func TestStatus(t *testing.T) {
	h, _, _, bus := newStreamHarness(t)

	sent := h.run("!live", viewer)
	assert.Equal(t, []string{"kick: offline | twitch: 🔴 en vivo (Just Chatting), 3 espectadores"}, sent)
	require.Len(t, bus.topics, 2)
	assert.Equal(t, events.TopicStreamStatus, bus.topics[0])
	assert.Equal(t, "kick", bus.payloads[0].(events.StreamStatusDTO).Platform)
}

func TestStatusWithoutServices(t *testing.T) {
	h := newHarness(t, NewStream(stream.NewResolver(nil), nil))
	assert.Equal(t, []string{"⚠️ No hay estado disponible."}, h.run("!status", viewer))
	assert.Equal(t, []string{"⚠️ Ninguna plataforma permite cambiar el título."}, h.run("!title x", admin))
	assert.Equal(t, []string{"⚠️ Ninguna plataforma permite buscar categorías."}, h.run("!category -s x", admin))
}
