// Package runner consume la cola de TTS: sintetiza, publica y reproduce los
// pedidos de a uno.
package runner

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"zhatCmd/internal/app/events"
	"zhatCmd/internal/domain"
	"zhatCmd/internal/infrastructure/logging"
	ttsusecase "zhatCmd/internal/usecase/tts"
)

var ErrClosed = errors.New("tts runner detenido")

// Synthesizer produce el audio de un texto.
type Synthesizer interface {
	GenerateAudio(ctx context.Context, text, voiceCode string) ([]byte, ttsusecase.VoiceOption, error)
}

type Publisher interface {
	Publish(topic string, payload any)
}

type Config struct {
	Synth     Synthesizer
	Player    Player
	Events    domain.TTSEventPublisher
	Bus       Publisher
	Logger    *log.Logger
	QueueSize int
}

type Runner struct {
	cfg    Config
	logger *log.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*ttsusecase.Request
	closed bool
	wg     sync.WaitGroup

	current       *ttsusecase.Request
	cancelCurrent context.CancelFunc

	status events.TTSStatusDTO
}

func New(cfg Config) *Runner {
	if cfg.Player == nil {
		cfg.Player = NewSpeakerPlayer()
	}
	r := &Runner{
		cfg:    cfg,
		logger: logging.Or(cfg.Logger),
		status: events.NewTTSStatusDTO("idle", 0, "", ""),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Start arranca el worker; se detiene cuando ctx se cancela o con Close.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		<-ctx.Done()
		r.shutdown()
	}()
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()
	r.publish(events.TopicTTSStatus, r.Status())
}

func (r *Runner) run(ctx context.Context) {
	for {
		req, ok := r.next()
		if !ok {
			return
		}
		r.handleRequest(ctx, req)
	}
}

func (r *Runner) next() (*ttsusecase.Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		if r.closed {
			return nil, false
		}
		if len(r.queue) > 0 {
			req := r.queue[0]
			r.queue = r.queue[1:]
			r.setStatusLocked("speaking", len(r.queue), req.ID, "")
			return req, true
		}
		r.cond.Wait()
	}
}

func (r *Runner) handleRequest(ctx context.Context, req *ttsusecase.Request) {
	childCtx, cancel := context.WithCancel(ctx)
	r.setCurrent(req, cancel)
	defer r.clearCurrent()

	if r.cfg.Synth == nil {
		r.handleFailure(req, errors.New("tts service no disponible"))
		return
	}

	audio, voice, err := r.cfg.Synth.GenerateAudio(childCtx, req.Text, req.VoiceCode)
	if err != nil {
		r.handleFailure(req, fmt.Errorf("tts synth: %w", err))
		return
	}

	if err := r.publishTTSEvent(ctx, req, audio, voice); err != nil {
		r.logger.Warn("publish event failed", "id", req.ID, "err", err)
	}

	if err := r.cfg.Player.Play(childCtx, audio); err != nil {
		if childCtx.Err() != nil {
			r.handleFailure(req, context.Canceled)
			return
		}
		r.handleFailure(req, err)
		return
	}

	r.logger.Debug("spoken", "id", req.ID, "voice", voice.Code, "by", req.RequestedBy)
	r.emitSpoken(req, nil, audio)
}

func (r *Runner) publishTTSEvent(ctx context.Context, req *ttsusecase.Request, audio []byte, voice ttsusecase.VoiceOption) error {
	if r.cfg.Events == nil {
		return nil
	}
	return r.cfg.Events.PublishTTSEvent(ctx, domain.TTSEvent{
		ID:          req.ID,
		Voice:       voice.Code,
		VoiceLabel:  voice.Label,
		Text:        req.Text,
		RequestedBy: req.RequestedBy,
		Platform:    req.Platform,
		ChannelID:   req.ChannelID,
		Timestamp:   time.Now(),
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
	})
}

func (r *Runner) handleFailure(req *ttsusecase.Request, err error) {
	r.logger.Error("request failed", "id", req.ID, "err", err)
	r.publish(events.TopicAppError, events.AppErrorDTO{Source: "tts", Error: err.Error()})
	r.mu.Lock()
	r.setStatusLocked("error", len(r.queue), req.ID, err.Error())
	r.mu.Unlock()
	r.emitSpoken(req, err, nil)
}

func (r *Runner) setCurrent(req *ttsusecase.Request, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = req
	r.cancelCurrent = cancel
}

func (r *Runner) clearCurrent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelCurrent != nil {
		r.cancelCurrent()
	}
	r.current = nil
	r.cancelCurrent = nil
	if r.status.State != "error" {
		r.setStatusLocked("idle", len(r.queue), "", "")
	}
}

// Enqueue agrega un pedido al final de la cola.
func (r *Runner) Enqueue(_ context.Context, req ttsusecase.Request) (string, error) {
	if strings.TrimSpace(req.ID) == "" {
		req.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", ErrClosed
	}
	if r.cfg.QueueSize > 0 && len(r.queue) >= r.cfg.QueueSize {
		return "", fmt.Errorf("cola de tts llena (%d)", r.cfg.QueueSize)
	}

	r.queue = append(r.queue, &req)
	r.setStatusLocked(r.status.State, len(r.queue), r.status.CurrentID, r.status.LastError)
	r.cond.Signal()
	return req.ID, nil
}

// Skip corta el pedido que está sonando.
func (r *Runner) Skip() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelCurrent == nil {
		return false
	}
	r.cancelCurrent()
	return true
}

// StopAll corta el pedido actual y vacía la cola.
func (r *Runner) StopAll(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelCurrent != nil {
		r.cancelCurrent()
	}
	r.queue = nil
	r.setStatusLocked("stopped", 0, "", "")
	return nil
}

func (r *Runner) Status() events.TTSStatusDTO {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Runner) Close() error {
	r.shutdown()
	r.wg.Wait()
	return nil
}

func (r *Runner) shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.cancelCurrent != nil {
		r.cancelCurrent()
	}
	r.queue = nil
	r.cond.Broadcast()
}

func (r *Runner) emitSpoken(req *ttsusecase.Request, err error, audio []byte) {
	payload := events.NewTTSSpokenDTO(req.ID, err == nil, err)
	payload.Text = req.Text
	payload.Voice = req.VoiceCode
	payload.VoiceLabel = req.VoiceLabel
	payload.RequestedBy = req.RequestedBy
	if len(audio) > 0 {
		payload.AudioBase64 = base64.StdEncoding.EncodeToString(audio)
	}
	r.publish(events.TopicTTSSpoken, payload)
}

func (r *Runner) setStatusLocked(state string, queueLength int, currentID, lastError string) {
	if strings.TrimSpace(state) == "" {
		state = "idle"
	}
	r.status = events.NewTTSStatusDTO(state, queueLength, currentID, lastError)
	r.publish(events.TopicTTSStatus, r.status)
}

func (r *Runner) publish(topic string, payload any) {
	if r.cfg.Bus != nil {
		r.cfg.Bus.Publish(topic, payload)
	}
}
