package board

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/perron-board/perron/internal/models"
	"github.com/perron-board/perron/internal/registry"
)

const (
	// DefaultInterval is the time between refresh cycles
	DefaultInterval = 60 * time.Second

	// DefaultLimit is the number of rows per station
	DefaultLimit = 5

	// KioskLimit is the number of rows per station on a kiosk board
	KioskLimit = 10

	defaultFetchTimeout = 20 * time.Second
)

// ErrNoMatch is reported when a startup name resolves to no station
var ErrNoMatch = errors.New("no matching station")

// Source is the remote data the scheduler reads
type Source interface {
	SearchStations(ctx context.Context, query string) ([]models.Candidate, error)
	GetStationboard(ctx context.Context, stationID string, limit int) ([]models.Departure, error)
}

// Publisher receives every board entry change
type Publisher interface {
	Publish(e Entry)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(e Entry)

func (f PublisherFunc) Publish(e Entry) { f(e) }

// Scheduler refreshes the board for every registered station
type Scheduler struct {
	source       Source
	registry     *registry.Registry
	board        *Board
	publisher    Publisher
	interval     time.Duration
	limit        int
	fetchTimeout time.Duration

	wg    sync.WaitGroup
	pubMu sync.Mutex

	// stopMu orders Refresh against the final Wait in Run
	stopMu  sync.Mutex
	stopped bool
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithInterval sets the time between refresh cycles
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLimit sets the number of rows requested and kept per station
func WithLimit(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithPublisher sets the sink for board updates
func WithPublisher(p Publisher) Option {
	return func(s *Scheduler) {
		s.publisher = p
	}
}

// WithFetchTimeout bounds a single board fetch
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithBoard uses an existing board instead of a new one
func WithBoard(b *Board) Option {
	return func(s *Scheduler) {
		s.board = b
	}
}

// NewScheduler creates a scheduler for the stations in reg. Stations removed
// from reg are dropped from the board.
func NewScheduler(src Source, reg *registry.Registry, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:       src,
		registry:     reg,
		interval:     DefaultInterval,
		limit:        DefaultLimit,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.board == nil {
		s.board = New()
	}

	reg.OnChange(func(ev registry.Event) {
		if ev.Kind == registry.Removed {
			s.board.Forget(ev.Station.ID)
		}
	})
	return s
}

// Board returns the board the scheduler writes to
func (s *Scheduler) Board() *Board {
	return s.board
}

// Limit returns the number of rows kept per station
func (s *Scheduler) Limit() int {
	return s.limit
}

// Interval returns the time between refresh cycles
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// ResolveResult is the outcome of resolving one startup name
type ResolveResult struct {
	Name    string
	Station models.Station
	Added   bool
	Err     error
}

// Resolve looks up each name in order and registers its first match.
// A failing name is logged and reported in its result; the remaining names
// are still resolved.
func (s *Scheduler) Resolve(ctx context.Context, names []string) []ResolveResult {
	results := make([]ResolveResult, 0, len(names))

	for _, name := range names {
		res := ResolveResult{Name: name}

		candidates, err := s.source.SearchStations(ctx, name)
		switch {
		case err != nil:
			res.Err = err
		case len(candidates) == 0:
			res.Err = fmt.Errorf("%w: %q", ErrNoMatch, name)
		default:
			res.Station = candidates[0].Station
			res.Added, err = s.registry.Add(res.Station)
			if err != nil {
				// the station is registered even if saving failed
				log.Printf("board: %v", err)
			}
		}

		if res.Err != nil {
			log.Printf("board: resolve %q: %v", name, res.Err)
		}
		results = append(results, res)
	}

	return results
}

// RefreshAll starts an independent fetch for every registered station and
// returns without waiting for them
func (s *Scheduler) RefreshAll(ctx context.Context) {
	for _, st := range s.registry.All() {
		s.Refresh(ctx, st)
	}
}

// Refresh starts a fetch for one station. It does nothing once ctx is done
// or Run is shutting down.
func (s *Scheduler) Refresh(ctx context.Context, st models.Station) {
	s.stopMu.Lock()
	if s.stopped || ctx.Err() != nil {
		s.stopMu.Unlock()
		return
	}
	s.wg.Add(1)
	s.stopMu.Unlock()

	seq := s.board.begin(st)
	s.publish(st.ID)

	go func() {
		defer s.wg.Done()
		s.fetch(ctx, st, seq)
	}()
}

// Wait blocks until every started fetch has completed
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) fetch(ctx context.Context, st models.Station, seq uint64) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	deps, err := s.source.GetStationboard(ctx, st.ID, s.limit)

	var rows []Row
	if err != nil {
		log.Printf("board: %s (%s): %v", st.Name, st.ID, err)
	} else {
		if len(deps) > s.limit {
			deps = deps[:s.limit]
		}
		rows = make([]Row, 0, len(deps))
		for _, dep := range deps {
			rows = append(rows, NewRow(dep))
		}
	}

	if !s.board.finish(st.ID, seq, rows, err) {
		// removed while in flight, or a newer fetch already landed
		return
	}
	s.publish(st.ID)
}

// publish sends the current entry so the sink always ends on the latest state
func (s *Scheduler) publish(id string) {
	if s.publisher == nil {
		return
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	if e, ok := s.board.Get(id); ok {
		s.publisher.Publish(e)
	}
}

// Entries returns one entry per registered station, in registry order.
// Stations not fetched yet are reported as Loading.
func (s *Scheduler) Entries() []Entry {
	stations := s.registry.All()
	out := make([]Entry, 0, len(stations))
	for _, st := range stations {
		e, ok := s.board.Get(st.ID)
		if !ok {
			e = Entry{Station: st, State: Loading}
		}
		out = append(out, e)
	}
	return out
}

// Run refreshes every station now and then once per interval until ctx is
// done. Failing stations are retried on the next tick like any other.
func (s *Scheduler) Run(ctx context.Context) error {
	s.RefreshAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stopMu.Lock()
			s.stopped = true
			s.stopMu.Unlock()
			s.Wait()
			return nil
		case <-ticker.C:
			s.RefreshAll(ctx)
		}
	}
}
