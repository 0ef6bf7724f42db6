package commands

import (
	"strings"
	"unicode"
)

// token es un fragmento de la línea con su posición original, necesaria para
// delegar el resto del texto crudo a un subcomando.
type token struct {
	text  string
	start int
	end   int
}

// tokenize separa por espacios respetando tramos entre comillas dobles o
// simples. Las comillas se conservan; se quitan recién al enlazar argumentos.
func tokenize(line string) []token {
	var out []token
	start := -1
	var quote rune

	flush := func(end int) {
		if start >= 0 && end > start {
			out = append(out, token{text: line[start:end], start: start, end: end})
		}
		start = -1
	}

	for i, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			if start < 0 {
				start = i
			}
			if strings.ContainsRune(line[i+1:], r) {
				quote = r
			}
		case unicode.IsSpace(r):
			flush(i)
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(line))
	return out
}

// arg es un token ya normalizado. src apunta al token crudo del que salió;
// -1 marca tokens sintéticos.
type arg struct {
	text string
	src  int
}

func texts(args []arg) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		out = append(out, a.text)
	}
	return out
}

func looksLikeFlag(s string) bool {
	return len(s) > 1 && s[0] == '-'
}

// normalize expande flags cortos combinados (-abc), separa --flag=valor y
// respeta el terminador "--" y el argumento de la opción anterior.
func (c *Command) normalize(raw []token) []arg {
	out := make([]arg, 0, len(raw))
	for i, tok := range raw {
		s := tok.text
		var prev *Option
		if i > 0 {
			prev = c.optionFor(raw[i-1].text)
		}

		switch {
		case s == "--":
			for j := i; j < len(raw); j++ {
				out = append(out, arg{text: raw[j].text, src: j})
			}
			return out
		case prev != nil && prev.Required():
			out = append(out, arg{text: s, src: i})
		case len(s) > 1 && s[0] == '-' && s[1] != '-':
			flags, value, hasValue := strings.Cut(s, "=")
			for _, ch := range flags[1:] {
				out = append(out, arg{text: "-" + string(ch), src: i})
			}
			if hasValue {
				out = append(out, arg{text: value, src: i})
			}
		case strings.HasPrefix(s, "--") && strings.Contains(s, "="):
			name, value, _ := strings.Cut(s, "=")
			out = append(out, arg{text: name, src: i}, arg{text: value, src: i})
		default:
			out = append(out, arg{text: s, src: i})
		}
	}
	return out
}

// Normalize expone la normalización de una línea con el esquema del comando.
func (c *Command) Normalize(line string) []string {
	return texts(c.normalize(tokenize(line)))
}
