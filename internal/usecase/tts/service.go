// Package tts maneja el catálogo de voces, los ajustes persistidos y la
// síntesis de audio para la cola de reproducción.
package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hegedustibor/htgo-tts/voices"

	"zhatCmd/internal/domain"
)

const (
	defaultEndpoint = "https://translate.google.com/translate_tts"
	chunkSize       = 200
)

var (
	ErrEmptyText        = errors.New("texto vacío")
	ErrDisabled         = errors.New("el TTS está desactivado")
	ErrUnsupportedVoice = errors.New("voz no soportada")
	ErrNoQueue          = errors.New("tts queue no disponible")
)

type VoiceOption struct {
	Code  string
	Label string
}

type Request struct {
	ID          string
	Text        string
	VoiceCode   string
	VoiceLabel  string
	RequestedBy string
	Platform    domain.Platform
	ChannelID   string
	CreatedAt   time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, req Request) (string, error)
}

type StatusSnapshot struct {
	Enabled bool
	Voice   VoiceOption
	Voices  []VoiceOption
}

type Service struct {
	repo     domain.TTSSettingsRepository
	queue    Queue
	voices   []VoiceOption
	httpCli  *http.Client
	endpoint string
	enabled  bool
}

type Option func(*Service)

// WithEndpoint cambia la URL de síntesis (tests).
func WithEndpoint(endpoint string) Option {
	return func(s *Service) { s.endpoint = endpoint }
}

func WithHTTPClient(cli *http.Client) Option {
	return func(s *Service) { s.httpCli = cli }
}

// WithEnabledDefault fija el estado cuando el repositorio no tiene valor.
func WithEnabledDefault(enabled bool) Option {
	return func(s *Service) { s.enabled = enabled }
}

func NewService(repo domain.TTSSettingsRepository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		voices: []VoiceOption{
			{Code: voices.Spanish, Label: "Español"},
			{Code: "es-es", Label: "Español España"},
			{Code: voices.English, Label: "Inglés US"},
			{Code: voices.EnglishUK, Label: "Inglés UK"},
			{Code: voices.Portuguese, Label: "Portugués"},
			{Code: voices.French, Label: "Francés"},
			{Code: voices.German, Label: "Alemán"},
		},
		httpCli:  &http.Client{Timeout: 15 * time.Second},
		endpoint: defaultEndpoint,
		enabled:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) SetQueue(queue Queue) {
	s.queue = queue
}

func (s *Service) ListVoices() []VoiceOption {
	return append([]VoiceOption(nil), s.voices...)
}

func (s *Service) SetVoice(ctx context.Context, code string) (VoiceOption, error) {
	option, ok := s.findVoice(code)
	if !ok || strings.TrimSpace(code) == "" {
		return VoiceOption{}, fmt.Errorf("%w: %s", ErrUnsupportedVoice, code)
	}
	if s.repo != nil {
		if err := s.repo.SetTTSVoice(ctx, option.Code); err != nil {
			return VoiceOption{}, fmt.Errorf("no pude guardar la voz: %w", err)
		}
	}
	return option, nil
}

func (s *Service) CurrentVoice(ctx context.Context) VoiceOption {
	if s.repo != nil {
		if stored, err := s.repo.GetTTSVoice(ctx); err == nil {
			if option, ok := s.findVoice(stored); ok {
				return option
			}
		}
	}
	return s.voices[0]
}

func (s *Service) Enabled(ctx context.Context) bool {
	if s.repo == nil {
		return s.enabled
	}
	enabled, err := s.repo.GetTTSEnabled(ctx)
	if err != nil {
		return s.enabled
	}
	return enabled
}

func (s *Service) SetEnabled(ctx context.Context, enabled bool) error {
	if s.repo == nil {
		s.enabled = enabled
		return nil
	}
	return s.repo.SetTTSEnabled(ctx, enabled)
}

// Enqueue valida el pedido, resuelve la voz y lo manda a la cola. Devuelve
// el ID asignado.
func (s *Service) Enqueue(ctx context.Context, req Request) (string, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return "", ErrEmptyText
	}
	if !s.Enabled(ctx) {
		return "", ErrDisabled
	}
	if s.queue == nil {
		return "", ErrNoQueue
	}

	voice, err := s.resolveVoice(ctx, req.VoiceCode)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(req.ID) == "" {
		req.ID = uuid.NewString()
	}
	req.Text = text
	req.VoiceCode = voice.Code
	req.VoiceLabel = voice.Label
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	return s.queue.Enqueue(ctx, req)
}

// GenerateAudio sintetiza text en mp3 con la voz pedida o la actual.
func (s *Service) GenerateAudio(ctx context.Context, text, voiceCode string) ([]byte, VoiceOption, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, VoiceOption{}, ErrEmptyText
	}
	voice, err := s.resolveVoice(ctx, voiceCode)
	if err != nil {
		return nil, VoiceOption{}, err
	}

	runes := []rune(text)
	buf := bytes.NewBuffer(nil)
	for start := 0; start < len(runes); start += chunkSize {
		end := min(start+chunkSize, len(runes))
		audio, err := s.fetchChunk(ctx, string(runes[start:end]), voice.Code)
		if err != nil {
			return nil, VoiceOption{}, err
		}
		buf.Write(audio)
	}

	return buf.Bytes(), voice, nil
}

func (s *Service) Snapshot(ctx context.Context) StatusSnapshot {
	return StatusSnapshot{
		Enabled: s.Enabled(ctx),
		Voice:   s.CurrentVoice(ctx),
		Voices:  s.ListVoices(),
	}
}

func (s *Service) resolveVoice(ctx context.Context, code string) (VoiceOption, error) {
	if strings.TrimSpace(code) == "" {
		return s.CurrentVoice(ctx), nil
	}
	option, ok := s.findVoice(code)
	if !ok {
		return VoiceOption{}, fmt.Errorf("%w: %s", ErrUnsupportedVoice, code)
	}
	return option, nil
}

func (s *Service) findVoice(code string) (VoiceOption, bool) {
	code = normalizeVoice(code)
	if code == "" {
		return s.voices[0], true
	}
	for _, option := range s.voices {
		if normalizeVoice(option.Code) == code {
			return option, true
		}
	}
	// es-mx -> es
	if idx := strings.Index(code, "-"); idx > 0 {
		return s.findVoice(code[:idx])
	}
	return VoiceOption{}, false
}

func (s *Service) fetchChunk(ctx context.Context, text, voice string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("q", text)
	params.Set("tl", voice)
	params.Set("total", "1")
	params.Set("idx", "0")
	params.Set("textlen", strconv.Itoa(len([]rune(text))))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts: google tts status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func normalizeVoice(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
