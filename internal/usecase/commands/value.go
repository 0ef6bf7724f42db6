package commands

import (
	"strconv"
	"strings"
)

// ValueKind identifica qué variante guarda un Value.
type ValueKind int

const (
	KindUnset ValueKind = iota
	KindBool
	KindString
	KindNumber
	KindStrings
)

// Value es la celda tipada donde queda el valor resuelto de una opción.
// El valor cero es "sin asignar".
type Value struct {
	kind ValueKind
	b    bool
	s    string
	n    float64
	list []string
}

func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func StringValue(s string) Value {
	return Value{kind: KindString, s: s}
}

func NumberValue(n float64) Value {
	return Value{kind: KindNumber, n: n}
}

func StringsValue(items ...string) Value {
	return Value{kind: KindStrings, list: append([]string{}, items...)}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsSet() bool { return v.kind != KindUnset }

// Bool devuelve el valor como booleano usando reglas de "truthiness":
// strings no vacíos, números distintos de cero y listas con elementos son true.
func (v Value) Bool() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindString:
		return v.s != ""
	case KindNumber:
		return v.n != 0
	case KindStrings:
		return len(v.list) > 0
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindStrings:
		return strings.Join(v.list, ",")
	default:
		return ""
	}
}

func (v Value) Number() float64 {
	switch v.kind {
	case KindNumber:
		return v.n
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0
		}
		return n
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (v Value) Strings() []string {
	switch v.kind {
	case KindStrings:
		return append([]string(nil), v.list...)
	case KindUnset:
		return nil
	default:
		return []string{v.String()}
	}
}

// Coerce transforma el argumento crudo de una opción. previous es el valor
// actual de la opción (o su default si todavía no se asignó).
type Coerce func(raw string, previous Value) (Value, error)

// Number interpreta el argumento como número.
func Number(raw string, _ Value) (Value, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return Value{}, err
	}
	return NumberValue(n), nil
}

// List separa el argumento por comas, descartando elementos vacíos.
func List(raw string, _ Value) (Value, error) {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return StringsValue(out...), nil
}

// Collect acumula cada aparición de la opción (--tag a --tag b).
func Collect(raw string, previous Value) (Value, error) {
	items := previous.Strings()
	if previous.Kind() != KindStrings {
		items = nil
	}
	return StringsValue(append(items, raw)...), nil
}
