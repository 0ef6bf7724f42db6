package builtin

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"zhatCmd/internal/domain"
	"zhatCmd/internal/usecase/commands"
	"zhatCmd/internal/usecase/custom"
)

// CustomCommands registra "command" para administrar los comandos de texto
// desde el chat.
type CustomCommands struct {
	manager *custom.Manager
}

func NewCustomCommands(manager *custom.Manager) *CustomCommands {
	return &CustomCommands{manager: manager}
}

func (c *CustomCommands) Extend(root *commands.Command) error {
	command, err := root.AddCommand("command")
	if err != nil {
		return err
	}
	command.SetDescription("administra los comandos de texto").SetShowHelpOnEmpty(true)

	add := command.Command("add <name> <response...>").SetDescription("crea un comando")
	edit := command.Command("edit <name> [response...]").SetDescription("edita un comando")
	for _, cmd := range []*commands.Command{add, edit} {
		cmd.Option("-a, --aliases <list>", "alias separados por coma", commands.WithCoerce(commands.List)).
			Option("-p, --platforms <list>", "twitch,kick,web", commands.WithCoerce(commands.List)).
			Option("-r, --roles <list>", "everyone,subscribers,vips,moderators,owner", commands.WithCoerce(commands.List))
	}
	add.Action(adminOnly(c.add))
	edit.Action(adminOnly(c.edit))

	command.Command("remove <name>").
		SetAlias("rm").
		SetDescription("borra un comando").
		Action(adminOnly(c.remove))

	command.Command("list").
		SetDescription("lista los comandos").
		Action(adminOnly(c.list))

	command.Command("show <name>").
		SetDescription("muestra un comando").
		Action(adminOnly(c.show))

	return nil
}

func (c *CustomCommands) add(inv *commands.Invocation) error {
	cmd, err := c.manager.Create(inv.Context, updateFrom(inv))
	if err != nil {
		return warn(inv, err)
	}
	return inv.Reply(fmt.Sprintf("✅ Comando %s creado.", cmd.Name))
}

func (c *CustomCommands) edit(inv *commands.Invocation) error {
	cmd, err := c.manager.Update(inv.Context, updateFrom(inv))
	if err != nil {
		return warn(inv, err)
	}
	return inv.Reply(fmt.Sprintf("✅ Comando %s actualizado.", cmd.Name))
}

func (c *CustomCommands) remove(inv *commands.Invocation) error {
	name := inv.Arg("name")
	deleted, err := c.manager.Delete(inv.Context, name)
	if err != nil {
		return warn(inv, err)
	}
	if !deleted {
		return inv.Reply("⚠️ Comando no encontrado.")
	}
	return inv.Reply(fmt.Sprintf("🗑️ Comando %s eliminado.", name))
}

func (c *CustomCommands) list(inv *commands.Invocation) error {
	list := c.manager.List()
	if len(list) == 0 {
		return inv.Reply("No hay comandos personalizados.")
	}
	names := lo.Map(list, func(cmd *domain.CustomCommand, _ int) string {
		return cmd.Name
	})
	return inv.Reply("Comandos: " + strings.Join(names, ", "))
}

func (c *CustomCommands) show(inv *commands.Invocation) error {
	cmd := c.manager.Find(inv.Arg("name"))
	if cmd == nil {
		return inv.Reply("⚠️ Comando no encontrado.")
	}
	parts := []string{cmd.Name + ": " + cmd.Response}
	if len(cmd.Aliases) > 0 {
		parts = append(parts, "alias "+strings.Join(cmd.Aliases, ","))
	}
	if len(cmd.Platforms) > 0 {
		parts = append(parts, "plataformas "+joinPlatforms(cmd.Platforms))
	}
	if len(cmd.Permissions) > 0 {
		parts = append(parts, "roles "+strings.Join(lo.Map(cmd.Permissions, func(r domain.CommandAccessRole, _ int) string {
			return string(r)
		}), ","))
	}
	return inv.Reply(strings.Join(parts, " | "))
}

// updateFrom traduce la invocación de add/edit: las listas sólo se reemplazan
// si la opción vino en la línea.
func updateFrom(inv *commands.Invocation) custom.Update {
	in := custom.Update{Name: inv.Arg("name")}
	if inv.Has("response") {
		response := joined(inv, "response")
		in.Response = &response
	}
	if v := inv.Option("aliases"); v.IsSet() {
		in.Aliases, in.HasAliases = v.Strings(), true
	}
	if v := inv.Option("platforms"); v.IsSet() {
		in.HasPlatforms = true
		in.Platforms = lo.Map(v.Strings(), func(s string, _ int) domain.Platform {
			return domain.Platform(s)
		})
	}
	if v := inv.Option("roles"); v.IsSet() {
		in.HasPermissions = true
		in.Permissions = lo.Map(v.Strings(), func(s string, _ int) domain.CommandAccessRole {
			return domain.CommandAccessRole(s)
		})
	}
	return in
}
