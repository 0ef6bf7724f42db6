package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"github.com/hajimehoshi/oto/v2"
)

var ErrEmptyAudio = errors.New("audio vacío")

// Player reproduce un mp3 completo y vuelve cuando termina o ctx se cancela.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// SpeakerPlayer reproduce por la salida de audio del sistema. oto sólo
// admite un contexto por proceso, así que se crea con la frecuencia del
// primer audio y se reutiliza.
type SpeakerPlayer struct {
	mu         sync.Mutex
	ctx        *oto.Context
	sampleRate int
}

func NewSpeakerPlayer() *SpeakerPlayer {
	return &SpeakerPlayer{}
}

func (p *SpeakerPlayer) Play(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return ErrEmptyAudio
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	decoder, err := mp3.NewDecoder(bytes.NewReader(audio))
	if err != nil {
		return fmt.Errorf("mp3 decoder: %w", err)
	}

	otoCtx, err := p.context(decoder.SampleRate())
	if err != nil {
		return err
	}

	player := otoCtx.NewPlayer(decoder)
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(15 * time.Millisecond)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}

func (p *SpeakerPlayer) context(sampleRate int) (*oto.Context, error) {
	if p.ctx != nil {
		if sampleRate != p.sampleRate {
			return nil, fmt.Errorf("oto context: sample rate %d, esperado %d", sampleRate, p.sampleRate)
		}
		return p.ctx, nil
	}
	otoCtx, ready, err := oto.NewContext(sampleRate, 2, 2)
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready
	p.ctx = otoCtx
	p.sampleRate = sampleRate
	return otoCtx, nil
}
