package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/perron-board/perron/internal/board"
	"github.com/perron-board/perron/internal/search"
)

// sender is the part of *tea.Program the bridge needs.
type sender interface {
	Send(msg tea.Msg)
}

// Bridge forwards board entries and search sessions into a running
// program. Producers never block: messages are queued in order and
// delivered by Run, because the coordinator renders from inside Update.
type Bridge struct {
	mu    sync.Mutex
	queue []tea.Msg
	wake  chan struct{}
}

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{wake: make(chan struct{}, 1)}
}

// Publish implements board.Publisher.
func (b *Bridge) Publish(e board.Entry) {
	b.push(entryMsg{entry: e})
}

// RenderSearch implements search.Renderer.
func (b *Bridge) RenderSearch(s search.Session) {
	b.push(sessionMsg{session: s})
}

func (b *Bridge) push(msg tea.Msg) {
	b.mu.Lock()
	b.queue = append(b.queue, msg)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Run delivers queued messages to p until ctx is done.
func (b *Bridge) Run(ctx context.Context, p sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.wake:
		}

		b.mu.Lock()
		pending := b.queue
		b.queue = nil
		b.mu.Unlock()

		for _, msg := range pending {
			p.Send(msg)
		}
	}
}
