package logging

import (
	"log/slog"
	"os"
)

// New builds the JSON logger every component receives at construction.
// The service name is attached to every record so lines from the HTTP
// handlers and the outbox relay can be told apart downstream.
func New(service string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(h).With("service", service)
}
