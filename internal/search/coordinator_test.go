package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/perron-board/perron/internal/api"
	"github.com/perron-board/perron/internal/models"
	"github.com/perron-board/perron/internal/registry"
	"github.com/perron-board/perron/internal/store"
	"github.com/perron-board/perron/internal/testutil"
)

const testDelay = 20 * time.Millisecond

// fakeSearcher records queries and answers them from a table. A query with
// a gate blocks until the gate is closed.
type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	results map[string][]models.Candidate
	gates   map[string]chan struct{}
	err     error
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		results: make(map[string][]models.Candidate),
		gates:   make(map[string]chan struct{}),
	}
}

func (f *fakeSearcher) SearchStations(ctx context.Context, query string) ([]models.Candidate, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	gate := f.gates[query]
	res := f.results[query]
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", api.ErrLookupFailed, err)
	}
	return res, nil
}

func (f *fakeSearcher) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.queries))
	copy(out, f.queries)
	return out
}

func candidate(id, name string) models.Candidate {
	return models.Candidate{Station: models.Station{ID: id, Name: name}}
}

// recorder keeps every rendered session
type recorder struct {
	mu       sync.Mutex
	sessions []Session
}

func (r *recorder) RenderSearch(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
}

func (r *recorder) Last() Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) == 0 {
		return Session{}
	}
	return r.sessions[len(r.sessions)-1]
}

func newTestCoordinator(s Searcher) (*Coordinator, *registry.Registry, *recorder) {
	reg := registry.New(store.NewMemoryStore())
	rec := &recorder{}
	c := NewCoordinator(s, reg, WithDelay(testDelay), WithRenderer(rec))
	return c, reg, rec
}

func TestKeystroke_ShortQueryNeverLooksUp(t *testing.T) {
	s := newFakeSearcher()
	c, _, rec := newTestCoordinator(s)
	defer c.Close()

	c.Keystroke("Z")
	time.Sleep(4 * testDelay)

	testutil.AssertLen(t, s.Queries(), 0)
	testutil.AssertEqual(t, c.Session().State, Idle)
	testutil.AssertEqual(t, rec.Last().Results(), ResultsHidden)
}

func TestKeystroke_MultiByteShortQuery(t *testing.T) {
	s := newFakeSearcher()
	c, _, _ := newTestCoordinator(s)
	defer c.Close()

	// one rune, two bytes
	c.Keystroke("Ü")
	time.Sleep(4 * testDelay)
	testutil.AssertLen(t, s.Queries(), 0)
}

func TestKeystroke_DebouncesToFinalText(t *testing.T) {
	s := newFakeSearcher()
	s.results["Zürich"] = []models.Candidate{candidate("8503000", "Zürich HB")}
	c, _, rec := newTestCoordinator(s)
	defer c.Close()

	c.Keystroke("Zü")
	c.Keystroke("Zürich")

	testutil.Eventually(t, time.Second, func() bool { return c.Session().State == Resolved })
	time.Sleep(2 * testDelay)

	queries := s.Queries()
	testutil.AssertLen(t, queries, 1)
	testutil.AssertEqual(t, queries[0], "Zürich")

	last := rec.Last()
	testutil.AssertEqual(t, last.Results(), ResultsList)
	testutil.AssertLen(t, last.Candidates, 1)
	testutil.AssertEqual(t, last.Candidates[0].ID, "8503000")
}

func TestKeystroke_PendingState(t *testing.T) {
	s := newFakeSearcher()
	c, _, _ := newTestCoordinator(s)
	defer c.Close()

	c.Keystroke("Bern")
	testutil.AssertEqual(t, c.Session().State, Pending)
}

func TestKeystroke_ShortQueryHidesResults(t *testing.T) {
	s := newFakeSearcher()
	s.results["Bern"] = []models.Candidate{candidate("8507000", "Bern")}
	c, _, _ := newTestCoordinator(s)
	defer c.Close()

	c.Keystroke("Bern")
	testutil.Eventually(t, time.Second, func() bool { return c.Session().Results() == ResultsList })

	c.Keystroke("B")
	session := c.Session()
	testutil.AssertEqual(t, session.State, Idle)
	testutil.AssertEqual(t, session.Results(), ResultsHidden)
}

func TestKeystroke_EmptyResults(t *testing.T) {
	s := newFakeSearcher()
	c, _, _ := newTestCoordinator(s)
	defer c.Close()

	c.Keystroke("Atlantis")
	testutil.Eventually(t, time.Second, func() bool { return c.Session().State == Resolved })
	testutil.AssertEqual(t, c.Session().Results(), ResultsEmpty)
}

func TestKeystroke_LookupFailure(t *testing.T) {
	s := newFakeSearcher()
	s.err = errors.New("connection refused")
	c, _, _ := newTestCoordinator(s)
	defer c.Close()

	c.Keystroke("Bern")
	testutil.Eventually(t, time.Second, func() bool { return c.Session().State == Resolved })

	session := c.Session()
	testutil.AssertEqual(t, session.Results(), ResultsError)
	testutil.AssertErrorIs(t, session.Err, api.ErrLookupFailed)
}

func TestKeystroke_StaleResponseDropped(t *testing.T) {
	s := newFakeSearcher()
	slow := make(chan struct{})
	s.gates["Ba"] = slow
	s.results["Ba"] = []models.Candidate{candidate("1", "Baden")}
	s.results["Basel"] = []models.Candidate{candidate("8500010", "Basel SBB")}
	c, _, rec := newTestCoordinator(s)
	defer c.Close()

	c.Keystroke("Ba")
	// wait until the slow lookup is in flight
	testutil.Eventually(t, time.Second, func() bool { return len(s.Queries()) == 1 })

	c.Keystroke("Basel")
	testutil.Eventually(t, time.Second, func() bool { return c.Session().State == Resolved })

	// the older response now arrives last
	close(slow)
	time.Sleep(4 * testDelay)

	session := c.Session()
	testutil.AssertLen(t, session.Candidates, 1)
	testutil.AssertEqual(t, session.Candidates[0].ID, "8500010")
	testutil.AssertEqual(t, rec.Last().Candidates[0].ID, "8500010")
}

func TestSelect(t *testing.T) {
	s := newFakeSearcher()
	s.results["Zürich"] = []models.Candidate{candidate("8503000", "Zürich HB")}
	c, reg, _ := newTestCoordinator(s)
	defer c.Close()

	c.Keystroke("Zürich")
	testutil.Eventually(t, time.Second, func() bool { return c.Session().Results() == ResultsList })

	c.Select(c.Session().Candidates[0].Station)

	session := c.Session()
	testutil.AssertTrue(t, session.CanConfirm())
	testutil.AssertEqual(t, session.Query, "Zürich HB")
	testutil.AssertEqual(t, session.Results(), ResultsHidden)
	testutil.AssertEqual(t, reg.Len(), 0)
}

func TestSelect_ClearedWhenQueryDiverges(t *testing.T) {
	c, _, _ := newTestCoordinator(newFakeSearcher())
	defer c.Close()

	c.Select(models.Station{ID: "8507000", Name: "Bern"})
	c.Keystroke("Bernx")
	testutil.AssertFalse(t, c.Session().CanConfirm())
}

func TestConfirm(t *testing.T) {
	c, reg, rec := newTestCoordinator(newFakeSearcher())
	defer c.Close()

	c.Select(models.Station{ID: "8507000", Name: "Bern"})
	st, ok := c.Confirm()

	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, st.ID, "8507000")
	testutil.AssertTrue(t, reg.Contains("8507000"))

	session := rec.Last()
	testutil.AssertEqual(t, session.Query, "")
	testutil.AssertFalse(t, session.CanConfirm())
}

func TestConfirm_WithoutSelection(t *testing.T) {
	c, reg, _ := newTestCoordinator(newFakeSearcher())
	defer c.Close()

	_, ok := c.Confirm()
	testutil.AssertFalse(t, ok)
	testutil.AssertEqual(t, reg.Len(), 0)
}

func TestConfirm_AlreadyRegistered(t *testing.T) {
	c, reg, _ := newTestCoordinator(newFakeSearcher())
	defer c.Close()

	bern := models.Station{ID: "8507000", Name: "Bern"}
	_, _ = reg.Add(bern)

	c.Select(bern)
	_, ok := c.Confirm()
	testutil.AssertFalse(t, ok)
	testutil.AssertEqual(t, reg.Len(), 1)

	// selection is kept so the user can see why nothing happened
	testutil.AssertTrue(t, c.Session().CanConfirm())
}

func TestDismiss(t *testing.T) {
	s := newFakeSearcher()
	s.results["Bern"] = []models.Candidate{candidate("8507000", "Bern")}
	c, _, _ := newTestCoordinator(s)
	defer c.Close()

	c.Keystroke("Bern")
	testutil.Eventually(t, time.Second, func() bool { return c.Session().Results() == ResultsList })

	c.Dismiss()
	testutil.AssertEqual(t, c.Session().Results(), ResultsHidden)
	testutil.AssertEqual(t, c.Session().Query, "Bern")
}

func TestSession_IsSnapshot(t *testing.T) {
	s := newFakeSearcher()
	s.results["Bern"] = []models.Candidate{candidate("8507000", "Bern")}
	c, _, _ := newTestCoordinator(s)
	defer c.Close()

	c.Keystroke("Bern")
	testutil.Eventually(t, time.Second, func() bool { return c.Session().Results() == ResultsList })

	snap := c.Session()
	snap.Candidates[0].Name = "mutated"
	testutil.AssertEqual(t, c.Session().Candidates[0].Name, "Bern")
}
