package tui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/feedr/internal/gateway"
	"github.com/idilsaglam/feedr/internal/store"
)

// Notifier shows store notifications as a modal in the running reader.
// Notifications raised before Run attaches a program are held until then.
type Notifier struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending []tea.Msg
}

func NewNotifier() *Notifier { return &Notifier{} }

func (n *Notifier) Notify(message string, err error) {
	msg := alertMsg{message: message, err: err}
	n.mu.Lock()
	send := n.send
	if send == nil {
		n.pending = append(n.pending, msg)
	}
	n.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (n *Notifier) attach(send func(tea.Msg)) {
	n.mu.Lock()
	n.send = send
	pending := n.pending
	n.pending = nil
	n.mu.Unlock()
	for _, msg := range pending {
		send(msg)
	}
}

// Run starts the reader on the alternate screen and blocks until the user
// quits. n may be nil when the store was built with another Notifier.
func Run(ctx context.Context, st *store.Store, parser gateway.ArticleParser, n *Notifier, opt Options) error {
	p := tea.NewProgram(New(ctx, st, parser, opt), tea.WithAltScreen(), tea.WithContext(ctx))

	cancel := st.OnChange(func(s store.Snapshot) { p.Send(snapshotMsg(s)) })
	defer cancel()
	if n != nil {
		go n.attach(p.Send)
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running reader: %w", err)
	}
	return nil
}
