package builtin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ttsusecase "zhatCmd/internal/usecase/tts"
)

type fakeTTS struct {
	requests []ttsusecase.Request
	voice    ttsusecase.VoiceOption
	enabled  bool
	err      error
}

func (f *fakeTTS) Enqueue(_ context.Context, req ttsusecase.Request) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.requests = append(f.requests, req)
	return "id", nil
}

func (f *fakeTTS) ListVoices() []ttsusecase.VoiceOption {
	return []ttsusecase.VoiceOption{{Code: "es", Label: "Español"}, {Code: "en", Label: "Inglés"}}
}

func (f *fakeTTS) SetVoice(_ context.Context, code string) (ttsusecase.VoiceOption, error) {
	for _, v := range f.ListVoices() {
		if v.Code == code {
			f.voice = v
			return v, nil
		}
	}
	return ttsusecase.VoiceOption{}, ttsusecase.ErrUnsupportedVoice
}

func (f *fakeTTS) CurrentVoice(context.Context) ttsusecase.VoiceOption {
	if f.voice.Code == "" {
		return ttsusecase.VoiceOption{Code: "es", Label: "Español"}
	}
	return f.voice
}

func (f *fakeTTS) SetEnabled(_ context.Context, enabled bool) error {
	f.enabled = enabled
	return nil
}

type fakeSkipper bool

func (f fakeSkipper) Skip() bool { return bool(f) }

func TestTTSSay(t *testing.T) {
	svc := &fakeTTS{}
	h := newHarness(t, NewTTS(svc, nil))

	assert.Equal(t, []string{"🔊 Enviado a reproducción (en)"}, h.run("!tts say -v en hola mundo", viewer))
	require.Len(t, svc.requests, 1)
	req := svc.requests[0]
	assert.Equal(t, "hola mundo", req.Text)
	assert.Equal(t, "en", req.VoiceCode)
	assert.Equal(t, "ana", req.RequestedBy)
	assert.Equal(t, "canal", req.ChannelID)

	assert.Equal(t, []string{"🔊 Enviado a reproducción (es)"}, h.run("!tts say sin voz", viewer))
	assert.Empty(t, svc.requests[1].VoiceCode)
}

func TestTTSShortForm(t *testing.T) {
	svc := &fakeTTS{}
	h := newHarness(t, NewTTS(svc, nil))

	assert.Equal(t, []string{"🔊 Enviado a reproducción (es)"}, h.run(`!tts "hola" a todos`, viewer))
	require.Len(t, svc.requests, 1)
	assert.Equal(t, "hola a todos", svc.requests[0].Text)
}

func TestTTSEnqueueError(t *testing.T) {
	h := newHarness(t, NewTTS(&fakeTTS{err: errors.New("el TTS está desactivado")}, nil))
	assert.Equal(t, []string{"⚠️ el TTS está desactivado"}, h.run("!tts say hola", viewer))
}

func TestTTSVoices(t *testing.T) {
	svc := &fakeTTS{}
	h := newHarness(t, NewTTS(svc, nil))

	assert.Equal(t, []string{"Voces disponibles: es (Español), en (Inglés)"}, h.run("!tts voices", viewer))

	assert.Empty(t, h.run("!tts voice en", viewer))
	assert.Empty(t, svc.voice.Code)

	assert.Equal(t, []string{"✅ Voz TTS establecida en en (Inglés)"}, h.run("!tts voice en", admin))
	assert.Equal(t, []string{"⚠️ voz no soportada"}, h.run("!tts voice xx", admin))
}

func TestTTSToggleAndSkip(t *testing.T) {
	svc := &fakeTTS{enabled: true}
	h := newHarness(t, NewTTS(svc, fakeSkipper(false)))

	assert.Empty(t, h.run("!tts off", viewer))
	assert.True(t, svc.enabled)

	assert.Equal(t, []string{"🔇 TTS desactivado."}, h.run("!tts off", admin))
	assert.False(t, svc.enabled)
	assert.Equal(t, []string{"🔊 TTS activado."}, h.run("!tts on", admin))
	assert.True(t, svc.enabled)

	assert.Equal(t, []string{"No hay nada sonando."}, h.run("!tts skip", admin))
}

func TestTTSEmptyShowsHelp(t *testing.T) {
	h := newHarness(t, NewTTS(&fakeTTS{}, nil))

	sent := h.run("!tts", viewer)
	require.Len(t, sent, 1)
	assert.True(t, strings.HasPrefix(sent[0], "  Usage: tts [options] [command]"))
	assert.Contains(t, sent[0], "say [options] <text...>")
	assert.NotContains(t, sent[0], "skip")
}
