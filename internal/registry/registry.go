// Package registry owns the ordered, deduplicated list of tracked stations.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/perron-board/perron/internal/models"
	"github.com/perron-board/perron/internal/store"
)

var (
	// ErrPersistenceRead means the saved list was unreadable or corrupt.
	// Load logs it and continues with an empty list.
	ErrPersistenceRead = errors.New("failed to read saved stations")

	// ErrPersistenceWrite means the list changed in memory but could not be saved
	ErrPersistenceWrite = errors.New("failed to save stations")
)

// ChangeFunc is called after every successful mutation with the station
// that was added or removed
type ChangeFunc func(ev Event)

// EventKind tells listeners what changed
type EventKind int

const (
	Added EventKind = iota
	Removed
)

// Event describes a single registry mutation
type Event struct {
	Kind    EventKind
	Station models.Station
}

// Registry is the ordered set of stations, unique by ID
type Registry struct {
	mu        sync.RWMutex
	stations  []models.Station
	store     store.Store
	ephemeral bool
	listeners []ChangeFunc
}

// Option configures a Registry
type Option func(*Registry)

// Ephemeral keeps every change in memory only
func Ephemeral() Option {
	return func(r *Registry) {
		r.ephemeral = true
	}
}

// New creates an empty registry backed by s. A nil store behaves like an
// ephemeral registry.
func New(s store.Store, opts ...Option) *Registry {
	r := &Registry{store: s}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.ephemeral = true
	}
	return r
}

// IsEphemeral reports whether changes are kept in memory only
func (r *Registry) IsEphemeral() bool {
	return r.ephemeral
}

// OnChange registers fn to be called after every add or remove
func (r *Registry) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Load replaces the in-memory list with the saved one. A missing record
// yields an empty list. A corrupt record is logged and also yields an empty
// list; the returned error is informational and never fatal.
func (r *Registry) Load() error {
	if r.store == nil {
		return nil
	}

	stations, err := r.read()

	r.mu.Lock()
	r.stations = stations
	r.mu.Unlock()

	if err != nil {
		log.Printf("registry: %v; starting with no stations", err)
	}
	return err
}

func (r *Registry) read() ([]models.Station, error) {
	raw, ok, err := r.store.Get(store.StationsKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceRead, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var saved []models.Station
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceRead, err)
	}

	// Records written by hand or by older versions may repeat ids or lack them
	out := make([]models.Station, 0, len(saved))
	seen := make(map[string]bool, len(saved))
	for _, st := range saved {
		if st.ID == "" || seen[st.ID] {
			continue
		}
		seen[st.ID] = true
		out = append(out, st)
	}
	return out, nil
}

// Add appends st unless a station with the same ID is already present.
// added is false for a duplicate. A save failure keeps the in-memory change
// and is returned wrapped in ErrPersistenceWrite.
func (r *Registry) Add(st models.Station) (added bool, err error) {
	if st.ID == "" {
		return false, fmt.Errorf("station %q has no id", st.Name)
	}

	r.mu.Lock()
	if r.indexOf(st.ID) >= 0 {
		r.mu.Unlock()
		return false, nil
	}
	r.stations = append(r.stations, st)
	err = r.persistLocked()
	listeners := r.listeners
	r.mu.Unlock()

	notify(listeners, Event{Kind: Added, Station: st})
	return true, err
}

// Remove drops the station with the given ID. Removing an unknown ID is a
// no-op and reports removed=false.
func (r *Registry) Remove(id string) (removed bool, err error) {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return false, nil
	}
	st := r.stations[i]
	r.stations = append(r.stations[:i:i], r.stations[i+1:]...)
	err = r.persistLocked()
	listeners := r.listeners
	r.mu.Unlock()

	notify(listeners, Event{Kind: Removed, Station: st})
	return true, err
}

// All returns a snapshot of the stations in insertion order
func (r *Registry) All() []models.Station {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Station, len(r.stations))
	copy(out, r.stations)
	return out
}

// Get returns the station with the given ID
func (r *Registry) Get(id string) (models.Station, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.stations[i], true
	}
	return models.Station{}, false
}

// Contains reports whether a station with the given ID is registered
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(id) >= 0
}

// Len returns the number of registered stations
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stations)
}

func (r *Registry) indexOf(id string) int {
	for i, st := range r.stations {
		if st.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the whole list. Caller holds r.mu.
func (r *Registry) persistLocked() error {
	if r.ephemeral {
		return nil
	}

	stations := r.stations
	if stations == nil {
		stations = []models.Station{}
	}

	data, err := json.Marshal(stations)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceWrite, err)
	}
	if err := r.store.Set(store.StationsKey, string(data)); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceWrite, err)
	}
	return nil
}

func notify(listeners []ChangeFunc, ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}
