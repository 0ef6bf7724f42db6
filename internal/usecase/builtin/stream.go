package builtin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"zhatCmd/internal/app/events"
	"zhatCmd/internal/domain"
	"zhatCmd/internal/usecase/commands"
	"zhatCmd/internal/usecase/stream"
)

const maxSearchResults = 5

// Stream registra title, category y status sobre el resolver de plataformas.
type Stream struct {
	resolver *stream.Resolver
	bus      Publisher
}

func NewStream(resolver *stream.Resolver, bus Publisher) *Stream {
	return &Stream{resolver: resolver, bus: bus}
}

func (s *Stream) Extend(root *commands.Command) error {
	title, err := root.AddCommand("title <title...>")
	if err != nil {
		return err
	}
	title.SetDescription("cambia el título del directo").
		Option("-p, --platform <name>", "solo en twitch o kick").
		Action(adminOnly(s.title))

	category, err := root.AddCommand("category <name...>")
	if err != nil {
		return err
	}
	category.SetAlias("game").
		SetDescription("cambia la categoría del directo").
		Option("-p, --platform <name>", "solo en twitch o kick").
		Option("-s, --search", "busca categorías sin cambiar nada").
		Action(adminOnly(s.category))

	status, err := root.AddCommand("status")
	if err != nil {
		return err
	}
	status.SetAlias("live").
		SetDescription("estado del directo en cada plataforma").
		ActionFunc(s.status)

	return nil
}

func (s *Stream) title(inv *commands.Invocation) error {
	only, err := parsePlatform(inv.Option("platform").String())
	if err != nil {
		return warn(inv, err)
	}
	updated, err := s.resolver.SetTitle(inv.Context, joined(inv, "title"), only)
	return inv.Reply(report("Título actualizado", "el título", updated, err))
}

func (s *Stream) category(inv *commands.Invocation) error {
	only, err := parsePlatform(inv.Option("platform").String())
	if err != nil {
		return warn(inv, err)
	}
	name := joined(inv, "name")

	if inv.Option("search").Bool() {
		return s.search(inv, only, name)
	}

	updated, err := s.resolver.SetCategory(inv.Context, name, only)
	if len(updated) == 0 && errors.Is(err, domain.ErrCategoryNotFound) {
		return inv.Reply("😢 No encontré esa categoría/juego: " + name)
	}
	return inv.Reply(report("Categoría actualizada a: "+name+".", "la categoría", updated, err))
}

func (s *Stream) search(inv *commands.Invocation, only domain.Platform, query string) error {
	platform := only
	if platform == "" {
		platform = message(inv).Platform
		if s.resolver.ForPlatform(platform) == nil {
			platform = lo.FirstOr(s.resolver.Platforms(), "")
		}
	}
	if platform == "" {
		return inv.Reply("⚠️ Ninguna plataforma permite buscar categorías.")
	}

	options, err := s.resolver.Search(inv.Context, platform, query)
	if err != nil {
		return warn(inv, err)
	}
	if len(options) == 0 {
		return inv.Reply("😢 Sin resultados para: " + query)
	}

	names := lo.Map(lo.Slice(options, 0, maxSearchResults), func(o domain.CategoryOption, _ int) string {
		return o.Name
	})
	return inv.Reply(fmt.Sprintf("🔎 %s: %s", platform, strings.Join(names, ", ")))
}

func (s *Stream) status(inv *commands.Invocation) error {
	statuses := s.resolver.Snapshot(inv.Context)
	if len(statuses) == 0 {
		return inv.Reply("⚠️ No hay estado disponible.")
	}

	lines := make([]string, 0, len(statuses))
	for _, st := range statuses {
		if s.bus != nil {
			s.bus.Publish(events.TopicStreamStatus, events.NewStreamStatusDTO(st))
		}
		lines = append(lines, describeStatus(st))
	}
	return inv.Reply(strings.Join(lines, " | "))
}

func describeStatus(st domain.StreamStatus) string {
	if !st.IsLive {
		return fmt.Sprintf("%s: offline", st.Platform)
	}
	line := fmt.Sprintf("%s: 🔴 en vivo", st.Platform)
	if st.GameTitle != "" {
		line += " (" + st.GameTitle + ")"
	}
	return line + fmt.Sprintf(", %d espectadores", st.ViewerCount)
}

// report arma la respuesta de una edición aplicada sobre varias plataformas.
func report(done, what string, updated []domain.Platform, err error) string {
	switch {
	case errors.Is(err, stream.ErrNoServices):
		return fmt.Sprintf("⚠️ Ninguna plataforma permite cambiar %s.", what)
	case errors.Is(err, stream.ErrUnsupportedPlatform):
		return fmt.Sprintf("⚠️ %v", err)
	}

	failed := failedPlatforms(err)
	if len(updated) == 0 {
		return fmt.Sprintf("⚠️ No pude cambiar %s.", what)
	}

	msg := "✅ " + strings.TrimSuffix(done, ".") + " (" + joinPlatforms(updated) + ")."
	if len(failed) > 0 {
		msg += " ⚠️ Falló en " + joinPlatforms(failed) + "."
	}
	return msg
}

func failedPlatforms(err error) []domain.Platform {
	if err == nil {
		return nil
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	var out []domain.Platform
	for _, e := range errs {
		var perr *stream.PlatformError
		if errors.As(e, &perr) {
			out = append(out, perr.Platform)
		}
	}
	return out
}

func joinPlatforms(platforms []domain.Platform) string {
	return strings.Join(lo.Map(platforms, func(p domain.Platform, _ int) string {
		return string(p)
	}), ", ")
}
