package commands

import (
	"regexp"
	"strings"
)

var flagSeparator = regexp.MustCompile(`[ ,|]+`)

// Option describe un flag declarado en un comando, por ejemplo
// "-c, --config <path>".
type Option struct {
	flags       string
	short       string
	long        string
	description string

	required  bool
	optional  bool
	negatable bool

	defaultValue Value
	coerce       Coerce
}

// OptionSetting ajusta una Option al declararla.
type OptionSetting func(*Option)

// Default fija el valor por defecto de la opción.
func Default(v Value) OptionSetting {
	return func(o *Option) { o.defaultValue = v }
}

// WithCoerce registra la función que transforma el argumento crudo.
func WithCoerce(fn Coerce) OptionSetting {
	return func(o *Option) { o.coerce = fn }
}

// NewOption interpreta la declaración de flags. La aridad queda fijada aquí y
// no cambia después.
func NewOption(flags, description string, settings ...OptionSetting) (*Option, error) {
	trimmed := strings.TrimSpace(flags)
	if trimmed == "" {
		return nil, &SchemaError{Command: "option", Err: ErrEmptyFlags}
	}

	o := &Option{
		flags:       trimmed,
		description: description,
		required:    strings.Contains(trimmed, "<"),
		optional:    strings.Contains(trimmed, "["),
	}

	parts := flagSeparator.Split(trimmed, -1)
	if len(parts) > 1 && !strings.HasPrefix(parts[1], "<") && !strings.HasPrefix(parts[1], "[") {
		o.short = parts[0]
		parts = parts[1:]
	}
	o.long = parts[0]
	if strings.TrimLeft(o.long, "-") == "" {
		return nil, &SchemaError{Command: "option", Subject: trimmed, Err: ErrEmptyFlags}
	}
	o.negatable = !strings.HasPrefix(strings.TrimLeft(o.long, "-"), "no-")

	for _, apply := range settings {
		apply(o)
	}
	return o, nil
}

func (o *Option) Flags() string       { return o.flags }
func (o *Option) Short() string       { return o.short }
func (o *Option) Long() string        { return o.long }
func (o *Option) Description() string { return o.description }

// Required indica que la opción exige argumento (<value>).
func (o *Option) Required() bool { return o.required }

// Optional indica que el argumento es opcional ([value]).
func (o *Option) Optional() bool { return o.optional }

// IsBool indica que la opción no lleva argumento.
func (o *Option) IsBool() bool { return !o.required && !o.optional }

// Negatable es false para las declaraciones --no-x.
func (o *Option) Negatable() bool { return o.negatable }

func (o *Option) DefaultValue() Value { return o.defaultValue }

// Name es la clave canónica: sin guiones iniciales ni el infijo "no-".
func (o *Option) Name() string {
	return strings.TrimPrefix(strings.TrimLeft(o.long, "-"), "no-")
}

// Is compara un token con la forma corta o larga.
func (o *Option) Is(token string) bool {
	return token != "" && (token == o.short || token == o.long)
}
