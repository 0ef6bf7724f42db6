// Package logging arma el logger raíz del bot.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New crea el logger raíz. level acepta debug, info, warn, error o fatal; un
// valor vacío o desconocido queda en info.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "zhatcmd",
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	logger.SetLevel(ParseLevel(level))
	return logger
}

func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Discard devuelve un logger que no escribe nada; útil en tests y como
// valor por defecto de los componentes.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// Or devuelve logger, o Discard si es nil.
func Or(logger *log.Logger) *log.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}
