package commands

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyFlags       = errors.New("empty option flags")
	ErrEmptyName        = errors.New("empty command name")
	ErrVariadicNotLast  = errors.New("variadic argument must be last")
	ErrRootAction       = errors.New("root command cannot register an action")
	ErrDuplicateCommand = errors.New("command already registered")
)

// SchemaError se produce al declarar comandos, opciones o argumentos mal
// formados. Aborta la construcción del árbol.
type SchemaError struct {
	Command string
	Subject string
	Err     error
}

func (e *SchemaError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("commands: %s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("commands: %s: %q: %v", e.Command, e.Subject, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

func missingArgumentMessage(name string) string {
	return "  error: missing required argument " + name
}

func optionMissingArgumentMessage(o *Option) string {
	return "  error: option " + o.Flags() + " argument missing"
}

func optionInvalidArgumentMessage(o *Option, err error) string {
	return fmt.Sprintf("  error: option %s argument invalid: %v", o.Flags(), err)
}

func unknownOptionMessage(flag string) string {
	return "  error: unknown option " + flag
}
