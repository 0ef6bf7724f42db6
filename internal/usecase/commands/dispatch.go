package commands

import (
	"context"
	"strings"
)

// call es la invocación pendiente que un nodo entrega a su tabla de
// despacho: los posicionales después del nombre y los flags que el nodo no
// reconoció.
type call struct {
	ctx     context.Context
	meta    any
	args    []arg
	unknown []arg
}

type dispatcher interface {
	dispatch(c call) error
}

// Parse interpreta una línea de texto. Si el nodo declara prefijos y la
// línea no empieza con ninguno, se ignora en silencio.
//
// Los errores de parseo se entregan por SendFunc, nunca se devuelven: el
// error devuelto viene del handler invocado o del propio SendFunc.
func (c *Command) Parse(ctx context.Context, line string, meta any) error {
	body, ok := c.stripPrefix(line)
	if !ok {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	raw := tokenize(body)
	parsed := c.parseOptions(c.normalize(raw))
	if len(parsed.errors) > 0 {
		return c.fail(ctx, meta, parsed.errors...)
	}

	args, unknown := parsed.args, parsed.unknown
	if len(args) == 0 || args[0].text == "" {
		return c.parseEmpty(ctx, meta, unknown)
	}

	helpRequested := false
	if args[0].text == helpCommandName {
		if len(args) == 1 {
			return c.emitHelp(ctx, meta)
		}
		args = args[1:]
		unknown = append(unknown, arg{text: "--help", src: -1})
		helpRequested = true
	}

	name := args[0]
	if d, ok := c.handlers[name.text]; ok {
		return d.dispatch(call{ctx: ctx, meta: meta, args: args[1:], unknown: unknown})
	}

	if child := c.Lookup(name.text); child != nil {
		if !c.cfg.AllowUnknownOption {
			for _, u := range unknown {
				if u.src >= 0 && u.src < name.src && looksLikeFlag(u.text) {
					return c.fail(ctx, meta, unknownOptionMessage(u.text))
				}
			}
		}
		rest := body[raw[name.src].end:]
		if helpRequested {
			rest += " --help"
		}
		return child.Parse(ctx, rest, meta)
	}

	if helpRequested {
		return c.emitHelp(ctx, meta)
	}

	if d, ok := c.handlers[wildcardKey]; ok {
		return d.dispatch(call{ctx: ctx, meta: meta, args: args, unknown: unknown})
	}
	return nil
}

func (c *Command) parseEmpty(ctx context.Context, meta any, unknown []arg) error {
	if hasHelpFlag(unknown) {
		return c.emitHelp(ctx, meta)
	}
	if first, ok := firstFlag(unknown); ok && !c.cfg.AllowUnknownOption {
		return c.fail(ctx, meta, unknownOptionMessage(first))
	}
	if c.cfg.ShowHelpOnEmpty {
		return c.emitHelp(ctx, meta)
	}
	return nil
}

func (c *Command) stripPrefix(line string) (string, bool) {
	if len(c.prefixes) == 0 {
		return line, true
	}
	for _, p := range c.prefixes {
		if strings.HasPrefix(line, p) {
			return line[len(p):], true
		}
	}
	return "", false
}

func (c *Command) emitHelp(ctx context.Context, meta any) error {
	return c.send(ctx, meta, c.Help())
}

// fail entrega los errores, con la ayuda del nodo si está configurado.
func (c *Command) fail(ctx context.Context, meta any, messages ...string) error {
	msg := strings.Join(messages, "\n")
	if c.cfg.ShowHelpOnError {
		msg += "\n\n" + c.Help()
	}
	return c.send(ctx, meta, msg)
}

func hasHelpFlag(unknown []arg) bool {
	for _, u := range unknown {
		if u.text == "--help" || u.text == "-h" {
			return true
		}
	}
	return false
}

func firstFlag(unknown []arg) (string, bool) {
	for _, u := range unknown {
		if looksLikeFlag(u.text) {
			return u.text, true
		}
	}
	return "", false
}

// action es el handler que un subcomando instala en la tabla de su padre.
// Reinterpreta los flags que el padre no conocía con las opciones propias y
// enlaza los posicionales antes de invocar.
type action struct {
	cmd     *Command
	handler Handler
}

func (a *action) dispatch(in call) error {
	cmd := a.cmd
	parsed := cmd.parseOptions(in.unknown)
	if len(parsed.errors) > 0 {
		return cmd.fail(in.ctx, in.meta, parsed.errors...)
	}
	if hasHelpFlag(parsed.unknown) {
		return cmd.emitHelp(in.ctx, in.meta)
	}
	if first, ok := firstFlag(parsed.unknown); ok && !cmd.cfg.AllowUnknownOption {
		return cmd.fail(in.ctx, in.meta, unknownOptionMessage(first))
	}

	positional := append(texts(parsed.args), texts(in.args)...)
	bound, rest, missing := bind(cmd.args, positional)
	if missing != "" {
		return cmd.fail(in.ctx, in.meta, missing)
	}

	return a.handler.Invoke(&Invocation{
		Context: in.ctx,
		Meta:    in.meta,
		Command: cmd,
		Args:    bound,
		Options: cmd.Opts(),
		Rest:    rest,
		Unknown: texts(parsed.unknown),
	})
}

// wildcard recibe las líneas cuyo primer posicional no tiene destino.
type wildcard struct {
	cmd     *Command
	handler Handler
}

func (w *wildcard) dispatch(in call) error {
	rest := make([]string, 0, len(in.args))
	for _, a := range in.args {
		rest = append(rest, stripQuotes(a.text))
	}
	return w.handler.Invoke(&Invocation{
		Context: in.ctx,
		Meta:    in.meta,
		Command: w.cmd,
		Options: w.cmd.Opts(),
		Rest:    rest,
		Unknown: texts(in.unknown),
	})
}
