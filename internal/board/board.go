// Package board keeps the per-station departure boards and the scheduler
// that refreshes them.
package board

import (
	"sync"
	"time"

	"github.com/perron-board/perron/internal/classify"
	"github.com/perron-board/perron/internal/models"
)

// State is the tri-state of a station's board
type State int

const (
	// Loading means a fetch is in flight and no newer result has arrived
	Loading State = iota
	// Ready means Rows holds the latest departures, possibly none
	Ready
	// Failed means the latest fetch failed
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Row is a departure with its line classification
type Row struct {
	models.Departure
	Class classify.Class
}

// NewRow classifies dep
func NewRow(dep models.Departure) Row {
	return Row{
		Departure: dep,
		Class:     classify.Classify(dep.Category, dep.Number),
	}
}

// Entry is one station's board. While Loading, Rows keeps the previous
// ready rows, if any.
type Entry struct {
	Station   models.Station
	State     State
	Rows      []Row
	Err       error
	UpdatedAt time.Time
}

// Empty reports a ready board without departures
func (e Entry) Empty() bool {
	return e.State == Ready && len(e.Rows) == 0
}

type record struct {
	entry   Entry
	created uint64
	issued  uint64
	applied uint64
}

// Board holds the latest entry per station. It is safe for concurrent use.
type Board struct {
	mu      sync.RWMutex
	records map[string]*record
	seq     uint64
	now     func() time.Time
}

// New creates an empty board
func New() *Board {
	return &Board{
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Get returns the entry for a station
func (b *Board) Get(id string) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.records[id]
	if !ok {
		return Entry{}, false
	}
	return copyEntry(rec.entry), true
}

// Forget drops a station. Fetches issued before Forget are discarded when
// they complete.
func (b *Board) Forget(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.records, id)
}

// Len returns the number of stations on the board
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// begin marks a station as loading and returns the ticket for the fetch
func (b *Board) begin(st models.Station) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	rec, ok := b.records[st.ID]
	if !ok {
		rec = &record{created: b.seq}
		b.records[st.ID] = rec
	}
	rec.issued = b.seq
	rec.entry.Station = st
	rec.entry.State = Loading
	rec.entry.Err = nil
	return b.seq
}

// finish stores the result of the fetch identified by seq. It reports false
// when the station was forgotten or a newer fetch already landed.
func (b *Board) finish(id string, seq uint64, rows []Row, err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.records[id]
	if !ok || seq < rec.created || seq <= rec.applied || seq > rec.issued {
		return false
	}
	rec.applied = seq

	rec.entry.UpdatedAt = b.now()
	if err != nil {
		rec.entry.State = Failed
		rec.entry.Rows = nil
		rec.entry.Err = err
		return true
	}
	rec.entry.State = Ready
	rec.entry.Rows = rows
	rec.entry.Err = nil
	return true
}

func copyEntry(e Entry) Entry {
	if e.Rows != nil {
		rows := make([]Row, len(e.Rows))
		copy(rows, e.Rows)
		e.Rows = rows
	}
	return e
}
