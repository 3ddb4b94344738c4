package store

import (
	"fmt"
	"log/slog"
)

// ReloadOrdering decides which of several overlapping reloads ends up
// published.
type ReloadOrdering int

const (
	// LastResolved publishes every successful reload in the order they
	// finish, so the one that resolves last wins even if it was issued
	// first.
	LastResolved ReloadOrdering = iota
	// LatestIssued drops the result of a reload issued before the one
	// currently published.
	LatestIssued
)

func (o ReloadOrdering) String() string {
	switch o {
	case LatestIssued:
		return "latest-issued"
	default:
		return "last-resolved"
	}
}

// ParseReloadOrdering maps a config name to an ordering.
func ParseReloadOrdering(name string) (ReloadOrdering, error) {
	switch name {
	case "", "last-resolved":
		return LastResolved, nil
	case "latest-issued":
		return LatestIssued, nil
	default:
		return LastResolved, fmt.Errorf("unknown reload ordering %q: must be last-resolved or latest-issued", name)
	}
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

func WithNotifier(n Notifier) Option { return func(s *Store) { s.notifier = n } }

func WithReadPolicy(p ReadPolicy) Option { return func(s *Store) { s.policy = p } }

func WithReloadOrdering(o ReloadOrdering) Option { return func(s *Store) { s.ordering = o } }
