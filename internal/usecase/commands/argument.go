package commands

import (
	"regexp"
	"strings"
)

var argumentGroup = regexp.MustCompile(`<[^>]*>|\[[^\]]*\]`)

// Argument describe un argumento posicional declarado en la firma de un
// comando: <requerido>, [opcional] o [variadico...].
type Argument struct {
	Name     string
	Required bool
	Variadic bool
}

// HumanName devuelve el argumento tal como aparece en la ayuda.
func (a Argument) HumanName() string {
	name := a.Name
	if a.Variadic {
		name += "..."
	}
	if a.Required {
		return "<" + name + ">"
	}
	return "[" + name + "]"
}

// ParseSignature extrae los argumentos de una firma como
// "<cmd> [other...]". Un variádico que no sea el último es un error.
func ParseSignature(signature string) ([]Argument, error) {
	var out []Argument
	for _, group := range argumentGroup.FindAllString(signature, -1) {
		if len(out) > 0 && out[len(out)-1].Variadic {
			last := out[len(out)-1]
			return nil, &SchemaError{Command: signature, Subject: last.Name, Err: ErrVariadicNotLast}
		}

		arg := Argument{Required: group[0] == '<'}
		name := strings.TrimSpace(group[1 : len(group)-1])
		if strings.HasSuffix(name, "...") {
			arg.Variadic = true
			name = strings.TrimSuffix(name, "...")
		}
		if unquoted, ok := unquote(name); ok {
			name = unquoted
		}
		arg.Name = name
		out = append(out, arg)
	}
	return out, nil
}

// unquote quita comillas simples o dobles cuando envuelven todo el texto.
func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return s, false
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' || first == '\'') && first == last {
		return s[1 : len(s)-1], true
	}
	return s, false
}

func stripQuotes(s string) string {
	out, _ := unquote(s)
	return out
}
