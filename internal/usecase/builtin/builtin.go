// Package builtin registra los comandos propios del bot sobre el árbol de
// comandos. Cada tipo es una commands.Extension.
package builtin

import (
	"fmt"
	"strings"

	"zhatCmd/internal/domain"
	"zhatCmd/internal/usecase/commands"
)

// Publisher es la parte del bus de eventos que usan los comandos.
type Publisher interface {
	Publish(topic string, payload any)
}

func message(inv *commands.Invocation) domain.Message {
	msg, _ := domain.MessageFrom(inv.Meta)
	return msg
}

func isAdmin(msg domain.Message) bool {
	return msg.IsPlatformAdmin || msg.IsPlatformOwner
}

// adminOnly descarta en silencio a quien no sea admin o dueño del canal.
func adminOnly(fn func(inv *commands.Invocation) error) commands.HandlerFunc {
	return func(inv *commands.Invocation) error {
		if !isAdmin(message(inv)) {
			return nil
		}
		return fn(inv)
	}
}

func joined(inv *commands.Invocation, name string) string {
	return strings.TrimSpace(strings.Join(inv.Values(name), " "))
}

func parsePlatform(raw string) (domain.Platform, error) {
	p := domain.Platform(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case "":
		return "", nil
	case domain.PlatformTwitch, domain.PlatformKick:
		return p, nil
	default:
		return "", fmt.Errorf("plataforma desconocida: %s", raw)
	}
}

func warn(inv *commands.Invocation, err error) error {
	return inv.Reply(fmt.Sprintf("⚠️ %v", err))
}
