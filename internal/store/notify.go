package store

import "log/slog"

// Notifier surfaces failures the user must see. Refresh reports through it
// instead of returning an error.
type Notifier interface {
	Notify(message string, err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string, err error)

func (f NotifierFunc) Notify(message string, err error) { f(message, err) }

// LogNotifier writes notifications to a logger. It is the default when the
// consumer provides nothing better.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(message string, err error) {
	n.Logger.Error(message, "error", err)
}
