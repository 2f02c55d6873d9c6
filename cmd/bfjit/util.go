package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// useColor decides whether output to w is colored.
func (a *app) useColor(w io.Writer) bool {
	return !a.v.GetBool("no-color") && isTerminal(w)
}

func marshalJSON(value any, colored bool) ([]byte, error) {
	if colored {
		return prettyjson.Marshal(value)
	}
	return json.MarshalIndent(value, "", "  ")
}

// logger returns a console logger on stderr at the configured level.
func (a *app) logger() (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(a.v.GetString("log-level")))
	if err != nil {
		return zerolog.Nop(), err
	}
	out := zerolog.ConsoleWriter{Out: a.stderr, NoColor: !a.useColor(a.stderr)}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
