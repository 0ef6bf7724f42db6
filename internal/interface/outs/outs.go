package outs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"zhatCmd/internal/domain"
)

var ErrNoSender = errors.New("no hay sender registrado")

// Sender es la interfaz que implementan los adapters de salida (Twitch, Kick,
// la consola web).
type Sender interface {
	// channelID: canal al que hay que responder (ej. "#zeroproject" en Twitch)
	SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error
}

// MultiSender enruta los mensajes al sender correcto según la plataforma.
type MultiSender struct {
	mu      sync.RWMutex
	senders map[domain.Platform]Sender
}

func NewMultiSender() *MultiSender {
	return &MultiSender{
		senders: make(map[domain.Platform]Sender),
	}
}

// Register asocia una plataforma con un Sender; nil no hace nada.
func (m *MultiSender) Register(platform domain.Platform, sender Sender) {
	if sender == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.senders[platform] = sender
}

func (m *MultiSender) Unregister(platform domain.Platform) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.senders, platform)
}

// Platforms devuelve las plataformas registradas, ordenadas.
func (m *MultiSender) Platforms() []domain.Platform {
	m.mu.RLock()
	defer m.mu.RUnlock()
	platforms := lo.Keys(m.senders)
	slices.Sort(platforms)
	return platforms
}

// SendMessage busca el sender para esa plataforma y delega el envío.
func (m *MultiSender) SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error {
	m.mu.RLock()
	sender, ok := m.senders[platform]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w para la plataforma %s", ErrNoSender, platform)
	}

	return sender.SendMessage(ctx, platform, channelID, text)
}

// Lines parte un texto multilínea (la ayuda, por ejemplo) en las líneas no
// vacías; los chats de Twitch y Kick no aceptan saltos de línea.
func Lines(text string) []string {
	return lo.FilterMap(strings.Split(text, "\n"), func(line string, _ int) (string, bool) {
		line = strings.TrimRight(line, " \t\r")
		return line, strings.TrimSpace(line) != ""
	})
}
