package commands

import "context"

// BoundArgument es el valor enlazado a un Argument declarado. Present es
// false cuando el argumento opcional no vino en la línea.
type BoundArgument struct {
	Argument
	Present bool
	Value   string
	Values  []string
}

// Invocation es lo que recibe un Handler: metadatos de la llamada, argumentos
// enlazados en orden de declaración y las opciones resueltas del comando.
type Invocation struct {
	Context context.Context
	Meta    any
	Command *Command

	Args    []BoundArgument
	Options map[string]Value

	// Rest son los posicionales que no corresponden a ningún argumento
	// declarado.
	Rest []string
	// Unknown son los flags no reconocidos, sólo cuando el comando los permite.
	Unknown []string
}

// Arg devuelve el valor de un argumento por nombre ("" si no vino).
func (inv *Invocation) Arg(name string) string {
	for _, a := range inv.Args {
		if a.Name == name {
			if a.Variadic {
				if len(a.Values) > 0 {
					return a.Values[0]
				}
				return ""
			}
			return a.Value
		}
	}
	return ""
}

// Values devuelve los valores capturados por un argumento variádico.
func (inv *Invocation) Values(name string) []string {
	for _, a := range inv.Args {
		if a.Name == name {
			if a.Variadic {
				return append([]string(nil), a.Values...)
			}
			if a.Present {
				return []string{a.Value}
			}
			return nil
		}
	}
	return nil
}

// Has indica si el argumento vino en la línea.
func (inv *Invocation) Has(name string) bool {
	for _, a := range inv.Args {
		if a.Name == name {
			return a.Present
		}
	}
	return false
}

// Option devuelve el valor resuelto de una opción por su clave canónica.
func (inv *Invocation) Option(name string) Value {
	return inv.Options[name]
}

// Reply envía texto por el mismo canal por el que llegó la línea.
func (inv *Invocation) Reply(text string) error {
	if inv.Command == nil {
		return nil
	}
	return inv.Command.send(inv.Context, inv.Meta, text)
}

// bind asigna los posicionales a los argumentos declarados. Devuelve el
// mensaje de error del primer argumento requerido que falte.
func bind(specs []Argument, positional []string) ([]BoundArgument, []string, string) {
	bound := make([]BoundArgument, len(specs))
	for i, spec := range specs {
		bound[i] = BoundArgument{Argument: spec}

		if i >= len(positional) {
			if spec.Required {
				return nil, nil, missingArgumentMessage(spec.Name)
			}
			continue
		}

		if spec.Variadic {
			values := make([]string, 0, len(positional)-i)
			for _, p := range positional[i:] {
				values = append(values, stripQuotes(p))
			}
			bound[i].Present = true
			bound[i].Values = values
			return bound, nil, ""
		}

		bound[i].Present = true
		bound[i].Value = stripQuotes(positional[i])
	}

	var rest []string
	for _, p := range positional[min(len(specs), len(positional)):] {
		rest = append(rest, stripQuotes(p))
	}
	return bound, rest, ""
}
