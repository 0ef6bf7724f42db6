package commands

import "strings"

const (
	helpFlags       = "-h, --help"
	helpDescription = "output usage information"
)

// DisplayName es el nombre con el alias: "name|alias".
func (c *Command) DisplayName() string {
	if c.alias != "" {
		return c.name + "|" + c.alias
	}
	return c.name
}

// Usage arma la línea de uso: "[options] [command] <args>".
func (c *Command) Usage() string {
	parts := []string{"[options]"}
	if len(c.children) > 0 {
		parts = append(parts, "[command]")
	}
	for _, a := range c.args {
		parts = append(parts, a.HumanName())
	}
	return strings.Join(parts, " ")
}

// Signature es la entrada de este comando en la lista de comandos del padre.
func (c *Command) Signature() string {
	parts := []string{c.DisplayName()}
	if len(c.options) > 0 {
		parts = append(parts, "[options]")
	}
	for _, a := range c.args {
		parts = append(parts, a.HumanName())
	}
	return strings.Join(parts, " ")
}

// Help sintetiza el texto de ayuda a partir del esquema del nodo.
func (c *Command) Help() string {
	lines := []string{"  Usage: " + c.DisplayName() + " " + c.Usage(), ""}

	if len(c.children) > 0 {
		lines = append(lines, "  Commands:", "")
		width := 0
		for _, child := range c.children {
			width = max(width, len(child.Signature()))
		}
		for _, child := range c.children {
			line := pad(child.Signature(), width)
			if child.description != "" {
				line += "  " + child.description
			}
			lines = append(lines, "    "+strings.TrimRight(line, " "))
		}
		lines = append(lines, "")
	}

	if c.description != "" {
		lines = append(lines, "  "+c.description, "")
	}

	lines = append(lines, "  Options:", "")
	width := len(helpFlags)
	for _, o := range c.options {
		width = max(width, len(o.flags))
	}
	lines = append(lines, "    "+pad(helpFlags, width)+"  "+helpDescription)
	for _, o := range c.options {
		lines = append(lines, "    "+strings.TrimRight(pad(o.flags, width)+"  "+o.description, " "))
	}

	return strings.Join(lines, "\n")
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
