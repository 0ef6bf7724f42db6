package commands

// parseOutcome es el resultado efímero de recorrer los tokens con las
// opciones de un comando.
type parseOutcome struct {
	errors  []string
	args    []arg
	unknown []arg
}

func (c *Command) optionFor(token string) *Option {
	for _, o := range c.options {
		if o.Is(token) {
			return o
		}
	}
	return nil
}

// parseOptions consume las opciones conocidas, aplicándolas sobre el comando,
// y separa los posicionales de los flags desconocidos.
func (c *Command) parseOptions(tokens []arg) parseOutcome {
	var out parseOutcome
	literal := false

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if literal {
			out.args = append(out.args, tok)
			continue
		}
		if tok.text == "--" {
			literal = true
			continue
		}

		if o := c.optionFor(tok.text); o != nil {
			switch {
			case o.Required():
				if i+1 >= len(tokens) {
					out.errors = append(out.errors, optionMissingArgumentMessage(o))
					continue
				}
				i++
				if msg := c.applyOption(o, &tokens[i].text); msg != "" {
					out.errors = append(out.errors, msg)
				}
			case o.Optional():
				var value *string
				if i+1 < len(tokens) {
					next := tokens[i+1].text
					if next == "-" || next == "" || next[0] != '-' {
						i++
						value = &tokens[i].text
					}
				}
				if msg := c.applyOption(o, value); msg != "" {
					out.errors = append(out.errors, msg)
				}
			default:
				c.applyOption(o, nil)
			}
			continue
		}

		if looksLikeFlag(tok.text) {
			out.unknown = append(out.unknown, tok)
			if i+1 < len(tokens) && !looksLikeFlag(tokens[i+1].text) {
				i++
				out.unknown = append(out.unknown, tokens[i])
			}
			continue
		}

		out.args = append(out.args, tok)
	}
	return out
}

// applyOption guarda el valor de una opción. Sin valor explícito, las
// opciones booleanas quedan en true (o en su default) y las --no-x en false.
// Devuelve un mensaje de error si la coerción falla.
func (c *Command) applyOption(o *Option, raw *string) string {
	key := o.Name()
	current, assigned := c.values[key]

	var value Value
	if raw != nil {
		value = StringValue(*raw)
		if o.coerce != nil {
			previous := current
			if !assigned {
				previous = o.defaultValue
			}
			coerced, err := o.coerce(*raw, previous)
			if err != nil {
				return optionInvalidArgumentMessage(o, err)
			}
			value = coerced
		}
	}

	if !assigned || current.Kind() == KindBool {
		if raw == nil {
			if o.Negatable() {
				if o.defaultValue.Bool() {
					c.values[key] = o.defaultValue
				} else {
					c.values[key] = BoolValue(true)
				}
			} else {
				c.values[key] = BoolValue(false)
			}
			return ""
		}
		c.values[key] = value
		return ""
	}

	if raw != nil {
		c.values[key] = value
	}
	return ""
}
