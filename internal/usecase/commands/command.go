package commands

import (
	"context"
	"errors"
	"strings"
)

const (
	helpCommandName = "help"
	wildcardKey     = "*"
)

// SendFunc entrega texto (ayuda o errores) al transporte que originó la línea.
// Nunca se llama con un mensaje vacío.
type SendFunc func(ctx context.Context, meta any, message string) error

// Handler es el callback registrado para un comando.
type Handler interface {
	Invoke(inv *Invocation) error
}

// HandlerFunc adapta una función a Handler.
type HandlerFunc func(inv *Invocation) error

func (f HandlerFunc) Invoke(inv *Invocation) error { return f(inv) }

// Extension registra comandos sobre un árbol ya creado.
type Extension interface {
	Extend(root *Command) error
}

// Config es la configuración de parseo. Los hijos la heredan al crearse y
// después se puede cambiar por separado.
type Config struct {
	Send               SendFunc
	AllowUnknownOption bool
	ShowHelpOnError    bool
	ShowHelpOnEmpty    bool
}

// DefaultConfig muestra la ayuda en los errores y rechaza flags desconocidos.
func DefaultConfig() Config {
	return Config{ShowHelpOnError: true}
}

// Command es un nodo del árbol de comandos.
//
// Un Command no es seguro para uso concurrente: los valores de las opciones
// viven en el nodo, así que las llamadas a Parse sobre un mismo árbol se
// deben serializar.
type Command struct {
	name        string
	alias       string
	description string
	prefixes    []string

	options  []*Option
	args     []Argument
	children []*Command
	parent   *Command

	cfg      Config
	handlers map[string]dispatcher
	values   map[string]Value

	implicitHelp bool
}

// New crea la raíz de un árbol.
func New(name string, cfg Config) *Command {
	return newCommand(name, cfg)
}

func newCommand(name string, cfg Config) *Command {
	return &Command{
		name:     name,
		cfg:      cfg,
		handlers: make(map[string]dispatcher),
		values:   make(map[string]Value),
	}
}

// AddCommand declara un subcomando a partir de una firma como
// "teardown <dir> [otherDirs...]".
func (c *Command) AddCommand(signature string) (*Command, error) {
	name, rest, _ := strings.Cut(strings.TrimSpace(signature), " ")
	if name == "" {
		return nil, &SchemaError{Command: c.name, Subject: signature, Err: ErrEmptyName}
	}
	if c.Lookup(name) != nil {
		return nil, &SchemaError{Command: c.name, Subject: name, Err: ErrDuplicateCommand}
	}

	args, err := ParseSignature(rest)
	if err != nil {
		return nil, err
	}

	if name != helpCommandName && !c.hasHelpChild() {
		c.children = append(c.children, c.newHelpChild())
	}

	child := newCommand(name, c.cfg)
	child.args = args
	child.parent = c
	c.children = append(c.children, child)
	return child, nil
}

// Command es la variante encadenable de AddCommand; un esquema inválido
// provoca panic porque el árbol no puede construirse.
func (c *Command) Command(signature string) *Command {
	child, err := c.AddCommand(signature)
	if err != nil {
		panic(err)
	}
	return child
}

func (c *Command) hasHelpChild() bool {
	for _, child := range c.children {
		if child.name == helpCommandName {
			return true
		}
	}
	return false
}

func (c *Command) newHelpChild() *Command {
	help := newCommand(helpCommandName, c.cfg)
	help.args = []Argument{{Name: "name"}}
	help.description = "display help for [name]"
	help.parent = c
	help.implicitHelp = true
	return help
}

// AddOption declara una opción. Las opciones --no-x, [opcionales] y
// <requeridas> con default quedan preasignadas.
func (c *Command) AddOption(flags, description string, settings ...OptionSetting) (*Option, error) {
	o, err := NewOption(flags, description, settings...)
	if err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			se.Command = c.name
		}
		return nil, err
	}

	if !o.Negatable() {
		o.defaultValue = BoolValue(true)
	}
	if def, ok := initialValue(o); ok {
		c.values[o.Name()] = def
	}

	c.options = append(c.options, o)
	return o, nil
}

// initialValue es el valor preasignado de una opción al declararla.
func initialValue(o *Option) (Value, bool) {
	if !o.Negatable() || o.Optional() || o.Required() {
		return o.defaultValue, o.defaultValue.IsSet()
	}
	return Value{}, false
}

// Reset devuelve las opciones de este nodo y de todos sus descendientes a
// los valores que tenían al declararse.
func (c *Command) Reset() {
	clear(c.values)
	for _, o := range c.options {
		if def, ok := initialValue(o); ok {
			c.values[o.Name()] = def
		}
	}
	for _, child := range c.children {
		child.Reset()
	}
}

// Option es la variante encadenable de AddOption.
func (c *Command) Option(flags, description string, settings ...OptionSetting) *Command {
	if _, err := c.AddOption(flags, description, settings...); err != nil {
		panic(err)
	}
	return c
}

// Action registra el handler en la tabla del padre, con el nombre y el alias
// de este comando.
func (c *Command) Action(h Handler) *Command {
	if c.parent == nil {
		panic(&SchemaError{Command: c.name, Err: ErrRootAction})
	}
	a := &action{cmd: c, handler: h}
	c.parent.handlers[c.name] = a
	if c.alias != "" {
		c.parent.handlers[c.alias] = a
	}
	return c
}

// ActionFunc es Action para funciones sueltas.
func (c *Command) ActionFunc(fn func(inv *Invocation) error) *Command {
	return c.Action(HandlerFunc(fn))
}

// Fallback registra el handler comodín: se invoca cuando el primer
// posicional no corresponde a ningún comando.
func (c *Command) Fallback(h Handler) *Command {
	c.handlers[wildcardKey] = &wildcard{cmd: c, handler: h}
	return c
}

// Use aplica extensiones sobre este comando.
func (c *Command) Use(exts ...Extension) error {
	for _, ext := range exts {
		if ext == nil {
			continue
		}
		if err := ext.Extend(c); err != nil {
			return err
		}
	}
	return nil
}

func (c *Command) SetAlias(alias string) *Command {
	if c.parent != nil {
		if a, ok := c.parent.handlers[c.name]; ok {
			if c.alias != "" {
				delete(c.parent.handlers, c.alias)
			}
			if alias != "" {
				c.parent.handlers[alias] = a
			}
		}
	}
	c.alias = alias
	return c
}

func (c *Command) SetDescription(description string) *Command {
	c.description = description
	return c
}

func (c *Command) SetPrefixes(prefixes ...string) *Command {
	c.prefixes = append([]string(nil), prefixes...)
	return c
}

func (c *Command) SetSend(fn SendFunc) *Command {
	c.cfg.Send = fn
	return c
}

func (c *Command) SetAllowUnknownOption(allow bool) *Command {
	c.cfg.AllowUnknownOption = allow
	return c
}

func (c *Command) SetShowHelpOnError(show bool) *Command {
	c.cfg.ShowHelpOnError = show
	return c
}

func (c *Command) SetShowHelpOnEmpty(show bool) *Command {
	c.cfg.ShowHelpOnEmpty = show
	return c
}

func (c *Command) Name() string        { return c.name }
func (c *Command) Alias() string       { return c.alias }
func (c *Command) Description() string { return c.description }
func (c *Command) Parent() *Command    { return c.parent }
func (c *Command) Config() Config      { return c.cfg }

// Implicit indica que el comando es el "help" agregado automáticamente.
func (c *Command) Implicit() bool { return c.implicitHelp }

func (c *Command) Prefixes() []string {
	return append([]string(nil), c.prefixes...)
}

func (c *Command) Options() []*Option {
	return append([]*Option(nil), c.options...)
}

func (c *Command) Arguments() []Argument {
	return append([]Argument(nil), c.args...)
}

func (c *Command) Children() []*Command {
	return append([]*Command(nil), c.children...)
}

// Lookup busca un hijo por nombre o alias.
func (c *Command) Lookup(name string) *Command {
	for _, child := range c.children {
		if child.name == name || (child.alias != "" && child.alias == name) {
			return child
		}
	}
	return nil
}

// Handles indica si name ya tiene un destino en este nodo: un handler
// registrado o un subcomando.
func (c *Command) Handles(name string) bool {
	if name == helpCommandName {
		return true
	}
	if _, ok := c.handlers[name]; ok {
		return true
	}
	return c.Lookup(name) != nil
}

// Opts devuelve una copia de los valores resueltos, una entrada por opción.
func (c *Command) Opts() map[string]Value {
	out := make(map[string]Value, len(c.options))
	for _, o := range c.options {
		out[o.Name()] = c.values[o.Name()]
	}
	return out
}

// Value devuelve el valor resuelto de una opción.
func (c *Command) Value(name string) Value {
	return c.values[name]
}

func (c *Command) sendFunc() SendFunc {
	for node := c; node != nil; node = node.parent {
		if node.cfg.Send != nil {
			return node.cfg.Send
		}
	}
	return nil
}

func (c *Command) send(ctx context.Context, meta any, message string) error {
	if message == "" {
		return nil
	}
	fn := c.sendFunc()
	if fn == nil {
		return nil
	}
	return fn(ctx, meta, message)
}
