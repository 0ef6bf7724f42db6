package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"zhatCmd/internal/usecase/commands"
	ttsusecase "zhatCmd/internal/usecase/tts"
)

// TTSService es lo que el comando tts necesita del servicio.
type TTSService interface {
	Enqueue(ctx context.Context, req ttsusecase.Request) (string, error)
	ListVoices() []ttsusecase.VoiceOption
	SetVoice(ctx context.Context, code string) (ttsusecase.VoiceOption, error)
	CurrentVoice(ctx context.Context) ttsusecase.VoiceOption
	SetEnabled(ctx context.Context, enabled bool) error
}

// Skipper corta el audio en curso.
type Skipper interface {
	Skip() bool
}

type TTS struct {
	service TTSService
	skipper Skipper
}

func NewTTS(service TTSService, skipper Skipper) *TTS {
	return &TTS{service: service, skipper: skipper}
}

func (t *TTS) Extend(root *commands.Command) error {
	tts, err := root.AddCommand("tts")
	if err != nil {
		return err
	}
	tts.SetDescription("texto a voz").SetShowHelpOnEmpty(true)

	// "!tts hola" sin subcomando también lee el texto
	tts.Fallback(commands.HandlerFunc(func(inv *commands.Invocation) error {
		return t.speak(inv, strings.Join(inv.Rest, " "), "")
	}))

	tts.Command("say <text...>").
		SetDescription("lee el texto en voz alta").
		Option("-v, --voice <code>", "voz a usar").
		ActionFunc(func(inv *commands.Invocation) error {
			return t.speak(inv, joined(inv, "text"), inv.Option("voice").String())
		})

	tts.Command("voices").
		SetDescription("lista las voces").
		ActionFunc(t.voices)

	tts.Command("voice <code>").
		SetDescription("cambia la voz por defecto").
		Action(adminOnly(t.setVoice))

	tts.Command("on").
		SetDescription("activa el TTS").
		Action(adminOnly(func(inv *commands.Invocation) error { return t.toggle(inv, true) }))

	tts.Command("off").
		SetDescription("desactiva el TTS").
		Action(adminOnly(func(inv *commands.Invocation) error { return t.toggle(inv, false) }))

	if t.skipper != nil {
		tts.Command("skip").
			SetDescription("corta el audio actual").
			Action(adminOnly(t.skip))
	}

	return nil
}

func (t *TTS) speak(inv *commands.Invocation, text, voice string) error {
	msg := message(inv)
	_, err := t.service.Enqueue(inv.Context, ttsusecase.Request{
		Text:        text,
		VoiceCode:   voice,
		RequestedBy: msg.Username,
		Platform:    msg.Platform,
		ChannelID:   msg.ChannelID,
	})
	if err != nil {
		return warn(inv, err)
	}
	if voice == "" {
		voice = t.service.CurrentVoice(inv.Context).Code
	}
	return inv.Reply(fmt.Sprintf("🔊 Enviado a reproducción (%s)", voice))
}

func (t *TTS) voices(inv *commands.Invocation) error {
	parts := lo.Map(t.service.ListVoices(), func(v ttsusecase.VoiceOption, _ int) string {
		return fmt.Sprintf("%s (%s)", v.Code, v.Label)
	})
	return inv.Reply("Voces disponibles: " + strings.Join(parts, ", "))
}

func (t *TTS) setVoice(inv *commands.Invocation) error {
	voice, err := t.service.SetVoice(inv.Context, inv.Arg("code"))
	if err != nil {
		return warn(inv, err)
	}
	return inv.Reply(fmt.Sprintf("✅ Voz TTS establecida en %s (%s)", voice.Code, voice.Label))
}

func (t *TTS) toggle(inv *commands.Invocation, enabled bool) error {
	if err := t.service.SetEnabled(inv.Context, enabled); err != nil {
		return warn(inv, err)
	}
	if enabled {
		return inv.Reply("🔊 TTS activado.")
	}
	return inv.Reply("🔇 TTS desactivado.")
}

func (t *TTS) skip(inv *commands.Invocation) error {
	if !t.skipper.Skip() {
		return inv.Reply("No hay nada sonando.")
	}
	return inv.Reply("⏭️ Audio saltado.")
}
