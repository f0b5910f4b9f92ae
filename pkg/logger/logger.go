// Package logger installe le logger slog par défaut des services cenackle.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Init : texte + debug en local, JSON + info ailleurs.
func Init(env string) *slog.Logger {
	return InitWriter(env, os.Stdout)
}

func InitWriter(env string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if env == "local" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}
