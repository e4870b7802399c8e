package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/querydemo/internal/query"
)

// Bridge turns query notifications into tea messages. Notifications are
// coalesced into a one-slot channel, so a burst of store updates produces a
// single re-render and store callbacks never block on the event loop.
type Bridge struct {
	ch chan struct{}
}

var _ query.Observer = (*Bridge)(nil)

// NewBridge creates a Bridge.
func NewBridge() *Bridge {
	return &Bridge{ch: make(chan struct{}, 1)}
}

// OnQueryUpdate implements query.Observer.
func (b *Bridge) OnQueryUpdate(query.Result) {
	select {
	case b.ch <- struct{}{}:
	default:
	}
}

// Updates returns the channel signalled on every notification.
func (b *Bridge) Updates() <-chan struct{} {
	return b.ch
}

// waitForUpdate returns a tea.Cmd that blocks until the next notification.
// The model re-arms it after handling each QueryUpdatedMsg.
func waitForUpdate(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return QueryUpdatedMsg{}
	}
}
