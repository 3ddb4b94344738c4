package store

import (
	"context"
	"fmt"
)

// ReadChange is a read-state change that has already been applied locally.
type ReadChange struct {
	Link string
	Read bool   // membership the change set
	Gen  uint64 // per-link mark counter when the change was made
}

func (c ReadChange) String() string {
	if c.Read {
		return "read " + c.Link
	}
	return "unread " + c.Link
}

// ReadPolicy settles an optimistic read-state change with the server. It
// runs in a background task after the local state was published; push
// sends the change, revert undoes it locally.
type ReadPolicy interface {
	Settle(ctx context.Context, change ReadChange, push func(context.Context) error, revert func()) error
}

// Optimistic pushes the change and keeps the local state whatever the
// server says. A failed push leaves local and server state diverged until
// the next reload.
type Optimistic struct{}

func (Optimistic) Settle(ctx context.Context, _ ReadChange, push func(context.Context) error, _ func()) error {
	return push(ctx)
}

// Rollback reverts the local change when the server refuses it.
type Rollback struct{}

func (Rollback) Settle(ctx context.Context, change ReadChange, push func(context.Context) error, revert func()) error {
	if err := push(ctx); err != nil {
		revert()
		return fmt.Errorf("%s rolled back: %w", change, err)
	}
	return nil
}

// ParseReadPolicy maps a config name to a policy.
func ParseReadPolicy(name string) (ReadPolicy, error) {
	switch name {
	case "", "optimistic":
		return Optimistic{}, nil
	case "rollback":
		return Rollback{}, nil
	default:
		return nil, fmt.Errorf("unknown read policy %q: must be optimistic or rollback", name)
	}
}
