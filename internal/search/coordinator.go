// Package search turns keystrokes into debounced station lookups and
// commits the chosen candidate to the registry.
package search

import (
	"context"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/perron-board/perron/internal/api"
	"github.com/perron-board/perron/internal/models"
	"github.com/perron-board/perron/internal/registry"
)

const (
	// DefaultDelay is the pause in typing before a lookup is issued
	DefaultDelay = 300 * time.Millisecond

	defaultLookupTimeout = 15 * time.Second
)

// Searcher looks up stations by name
type Searcher interface {
	SearchStations(ctx context.Context, query string) ([]models.Candidate, error)
}

// Renderer receives a snapshot after every session change
type Renderer interface {
	RenderSearch(s Session)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(s Session)

func (f RendererFunc) RenderSearch(s Session) { f(s) }

// Coordinator drives a single search input
type Coordinator struct {
	searcher      Searcher
	registry      *registry.Registry
	renderer      Renderer
	debouncer     *Debouncer
	lookupTimeout time.Duration

	mu      sync.Mutex
	session Session
	seq     uint64

	// renderMu serializes renders so the last render always carries the latest state
	renderMu sync.Mutex
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithDelay sets the debounce delay
func WithDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		c.debouncer = NewDebouncer(d)
	}
}

// WithRenderer sets the presentation sink
func WithRenderer(r Renderer) Option {
	return func(c *Coordinator) {
		c.renderer = r
	}
}

// WithLookupTimeout bounds a single lookup
func WithLookupTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.lookupTimeout = d
	}
}

// NewCoordinator creates a coordinator that commits selections to reg
func NewCoordinator(searcher Searcher, reg *registry.Registry, opts ...Option) *Coordinator {
	c := &Coordinator{
		searcher:      searcher,
		registry:      reg,
		debouncer:     NewDebouncer(DefaultDelay),
		lookupTimeout: defaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns a snapshot of the current session
func (c *Coordinator) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// Keystroke records the new input text and schedules a lookup for it
func (c *Coordinator) Keystroke(query string) {
	c.mu.Lock()
	c.seq++
	c.debouncer.Cancel()

	c.session.Query = query
	if c.session.Selected != nil && c.session.Selected.Name != query {
		c.session.Selected = nil
	}

	if utf8.RuneCountInString(query) < api.MinQueryLength {
		c.session.State = Idle
		c.session.Open = false
		c.session.Candidates = nil
		c.session.Err = nil
		c.mu.Unlock()
		c.render()
		return
	}

	c.session.State = Pending
	seq := c.seq
	c.debouncer.Trigger(func() { c.lookup(seq, query) })
	c.mu.Unlock()

	c.render()
}

func (c *Coordinator) lookup(seq uint64, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.lookupTimeout)
	defer cancel()

	candidates, err := c.searcher.SearchStations(ctx, query)
	if err != nil {
		log.Printf("search: lookup %q: %v", query, err)
	}

	c.mu.Lock()
	if seq != c.seq {
		// a newer keystroke or selection superseded this lookup
		c.mu.Unlock()
		return
	}
	c.session.State = Resolved
	c.session.Open = true
	c.session.Candidates = candidates
	c.session.Err = err
	c.mu.Unlock()

	c.render()
}

// Select marks st as the station to add and closes the results panel.
// The registry is not touched until Confirm.
func (c *Coordinator) Select(st models.Station) {
	c.mu.Lock()
	c.seq++
	c.debouncer.Cancel()
	c.session.Selected = &st
	c.session.Query = st.Name
	c.session.Open = false
	c.mu.Unlock()

	c.render()
}

// Dismiss closes the results panel without changing the query
func (c *Coordinator) Dismiss() {
	c.mu.Lock()
	c.session.Open = false
	c.mu.Unlock()

	c.render()
}

// Confirm adds the selected station to the registry and clears the session.
// It does nothing when no station is selected or the station is already
// registered.
func (c *Coordinator) Confirm() (models.Station, bool) {
	c.mu.Lock()
	sel := c.session.Selected
	if sel == nil || c.registry.Contains(sel.ID) {
		c.mu.Unlock()
		return models.Station{}, false
	}
	st := *sel

	added, err := c.registry.Add(st)
	if err != nil {
		log.Printf("search: add %s: %v", st.ID, err)
	}
	if !added {
		c.mu.Unlock()
		return models.Station{}, false
	}

	c.seq++
	c.debouncer.Cancel()
	c.session = Session{}
	c.mu.Unlock()

	c.render()
	return st, true
}

// Close stops any scheduled lookup
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.seq++
	c.debouncer.Cancel()
	c.mu.Unlock()
}

func (c *Coordinator) render() {
	if c.renderer == nil {
		return
	}

	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	c.renderer.RenderSearch(c.Session())
}
