// Package handle_message entrega cada mensaje de chat al árbol de comandos.
package handle_message

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"zhatCmd/internal/app/events"
	"zhatCmd/internal/domain"
	"zhatCmd/internal/infrastructure/logging"
	"zhatCmd/internal/usecase/commands"
)

var ErrNoMessage = errors.New("handle_message: la línea no trae un domain.Message")

type Publisher interface {
	Publish(topic string, payload any)
}

// Interactor serializa el parseo: el árbol guarda los valores de las
// opciones en sus nodos y no admite líneas concurrentes.
type Interactor struct {
	program *commands.Command
	out     domain.OutgoingMessagePort
	bus     Publisher
	logger  *log.Logger

	mu sync.Mutex
}

// NewInteractor instala en program el SendFunc que responde por out.
func NewInteractor(program *commands.Command, out domain.OutgoingMessagePort, bus Publisher, logger *log.Logger) *Interactor {
	uc := &Interactor{
		program: program,
		out:     out,
		bus:     bus,
		logger:  logging.Or(logger),
	}
	program.SetSend(uc.send)
	return uc
}

func (uc *Interactor) Handle(ctx context.Context, msg domain.Message) error {
	if uc.bus != nil {
		uc.bus.Publish(events.TopicChatMessage, events.NewChatMessageDTO(msg))
	}

	line := strings.TrimSpace(msg.Text)
	if line == "" {
		return nil
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.program.Reset()
	if err := uc.program.Parse(ctx, line, msg); err != nil {
		uc.logger.Error("command failed", "platform", msg.Platform, "user", msg.Username, "text", line, "err", err)
		return err
	}
	return nil
}

func (uc *Interactor) send(ctx context.Context, meta any, text string) error {
	msg, ok := domain.MessageFrom(meta)
	if !ok {
		return ErrNoMessage
	}
	if uc.out == nil {
		return nil
	}
	return uc.out.SendMessage(ctx, msg.Platform, msg.ChannelID, text)
}
