package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/perron-board/perron/internal/api"
	"github.com/perron-board/perron/internal/board"
	"github.com/perron-board/perron/internal/models"
	"github.com/perron-board/perron/internal/registry"
	"github.com/perron-board/perron/internal/store"
	"github.com/perron-board/perron/internal/testutil"
)

var (
	bern   = models.Station{ID: "8507000", Name: "Bern"}
	zurich = models.Station{ID: "8503000", Name: "Zürich HB"}
)

type fakeSource struct {
	mu         sync.Mutex
	candidates []models.Candidate
	searchErr  error
	boards     map[string][]models.Departure
}

func (f *fakeSource) SearchStations(_ context.Context, _ string) ([]models.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.candidates, f.searchErr
}

func (f *fakeSource) GetStationboard(_ context.Context, id string, _ int) ([]models.Departure, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if deps, ok := f.boards[id]; ok {
		return deps, nil
	}
	return nil, errors.New("unavailable")
}

func newTestServer(t *testing.T, src *fakeSource, kiosk bool, stations ...models.Station) (*Server, *registry.Registry, *board.Scheduler) {
	t.Helper()
	reg := registry.New(store.NewMemoryStore())
	for _, st := range stations {
		_, err := reg.Add(st)
		testutil.AssertNil(t, err)
	}
	sched := board.NewScheduler(src, reg)
	t.Cleanup(sched.Wait)

	srv := New(Config{
		Registry:  reg,
		Scheduler: sched,
		Searcher:  src,
		Kiosk:     kiosk,
		Location:  time.UTC,
	})
	return srv, reg, sched
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	testutil.AssertNil(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeSource{}, false, bern)

	rec := do(t, srv, http.MethodGet, "/health", "")

	testutil.AssertEqual(t, rec.Code, http.StatusOK)
	testutil.AssertContains(t, rec.Body.String(), `"status":"ok"`)
	testutil.AssertContains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestListStations(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeSource{}, false, zurich, bern)

	rec := do(t, srv, http.MethodGet, "/api/stations", "")
	resp := decode[StationsResponse](t, rec)

	testutil.AssertEqual(t, rec.Code, http.StatusOK)
	testutil.AssertEqual(t, resp.Count, 2)
	testutil.AssertEqual(t, resp.Stations[0], zurich)
	testutil.AssertEqual(t, resp.Stations[1], bern)
	testutil.AssertFalse(t, resp.Kiosk)
}

func TestAddStation(t *testing.T) {
	src := &fakeSource{boards: map[string][]models.Departure{bern.ID: {}}}
	srv, reg, sched := newTestServer(t, src, false)

	rec := do(t, srv, http.MethodPost, "/api/stations", `{"id":"8507000","name":"Bern"}`)

	testutil.AssertEqual(t, rec.Code, http.StatusCreated)
	testutil.AssertTrue(t, reg.Contains(bern.ID))

	sched.Wait()
	e, ok := sched.Board().Get(bern.ID)
	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, e.State, board.Ready)
}

func TestAddStation_Duplicate(t *testing.T) {
	srv, reg, _ := newTestServer(t, &fakeSource{}, false, bern)

	rec := do(t, srv, http.MethodPost, "/api/stations", `{"id":"8507000","name":"Bern"}`)

	testutil.AssertEqual(t, rec.Code, http.StatusConflict)
	testutil.AssertEqual(t, reg.Len(), 1)
}

func TestAddStation_Invalid(t *testing.T) {
	srv, reg, _ := newTestServer(t, &fakeSource{}, false)

	for _, body := range []string{`not json`, `{"id":"","name":"Bern"}`, `{"id":"1"}`} {
		rec := do(t, srv, http.MethodPost, "/api/stations", body)
		testutil.AssertEqual(t, rec.Code, http.StatusBadRequest)
	}
	testutil.AssertEqual(t, reg.Len(), 0)
}

func TestRemoveStation(t *testing.T) {
	srv, reg, _ := newTestServer(t, &fakeSource{}, false, bern, zurich)

	rec := do(t, srv, http.MethodDelete, "/api/stations/8507000", "")
	testutil.AssertEqual(t, rec.Code, http.StatusNoContent)
	testutil.AssertFalse(t, reg.Contains(bern.ID))

	rec = do(t, srv, http.MethodDelete, "/api/stations/8507000", "")
	testutil.AssertEqual(t, rec.Code, http.StatusNotFound)
}

func TestKioskForbidsChanges(t *testing.T) {
	srv, reg, _ := newTestServer(t, &fakeSource{}, true, bern)

	rec := do(t, srv, http.MethodPost, "/api/stations", `{"id":"8503000","name":"Zürich HB"}`)
	testutil.AssertEqual(t, rec.Code, http.StatusForbidden)

	rec = do(t, srv, http.MethodDelete, "/api/stations/8507000", "")
	testutil.AssertEqual(t, rec.Code, http.StatusForbidden)

	testutil.AssertEqual(t, reg.Len(), 1)
	testutil.AssertTrue(t, reg.Contains(bern.ID))
}

func TestGetBoard(t *testing.T) {
	src := &fakeSource{boards: map[string][]models.Departure{
		zurich.ID: {{
			Scheduled:   time.Date(2026, 3, 2, 8, 5, 0, 0, time.UTC),
			Category:    "S",
			Number:      "3",
			Destination: "Bülach",
			Delay:       2,
		}},
	}}
	srv, _, sched := newTestServer(t, src, false, zurich, bern)
	sched.RefreshAll(context.Background())
	sched.Wait()

	rec := do(t, srv, http.MethodGet, "/api/board", "")
	resp := decode[BoardResponse](t, rec)

	testutil.AssertEqual(t, rec.Code, http.StatusOK)
	testutil.AssertEqual(t, resp.RefreshInterval, 60)
	testutil.AssertLen(t, resp.Entries, 2)

	zh := resp.Entries[0]
	testutil.AssertEqual(t, zh.Station, zurich)
	testutil.AssertEqual(t, zh.State, "ready")
	testutil.AssertLen(t, zh.Rows, 1)
	testutil.AssertEqual(t, zh.Rows[0].Time, "08:05")
	testutil.AssertEqual(t, zh.Rows[0].Line, "S 3")
	testutil.AssertEqual(t, zh.Rows[0].Delay, 2)
	testutil.AssertEqual(t, zh.Rows[0].Platform, "-")
	testutil.AssertEqual(t, zh.Rows[0].Mode, "train")
	testutil.AssertTrue(t, zh.Rows[0].Color != "")

	be := resp.Entries[1]
	testutil.AssertEqual(t, be.State, "error")
	testutil.AssertEqual(t, be.Message, "Error loading departures")
	testutil.AssertLen(t, be.Rows, 0)
}

func TestGetBoard_NotYetFetched(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeSource{}, false, bern)

	resp := decode[BoardResponse](t, do(t, srv, http.MethodGet, "/api/board", ""))

	testutil.AssertLen(t, resp.Entries, 1)
	testutil.AssertEqual(t, resp.Entries[0].State, "loading")
	testutil.AssertEqual(t, resp.Entries[0].Message, "Loading departures...")
}

func TestSearch(t *testing.T) {
	src := &fakeSource{candidates: []models.Candidate{{Station: bern}}}
	srv, _, _ := newTestServer(t, src, false)

	rec := do(t, srv, http.MethodGet, "/api/search?q=Bern", "")
	resp := decode[SearchResponse](t, rec)

	testutil.AssertEqual(t, rec.Code, http.StatusOK)
	testutil.AssertEqual(t, resp.Query, "Bern")
	testutil.AssertLen(t, resp.Candidates, 1)
	testutil.AssertEqual(t, resp.Candidates[0].ID, bern.ID)
}

func TestSearch_TooShort(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeSource{}, false)

	for _, q := range []string{"", "B", "%20Z%20"} {
		rec := do(t, srv, http.MethodGet, "/api/search?q="+q, "")
		testutil.AssertEqual(t, rec.Code, http.StatusBadRequest)
	}
}

func TestSearch_LookupFailure(t *testing.T) {
	src := &fakeSource{searchErr: api.ErrLookupFailed}
	srv, _, _ := newTestServer(t, src, false)

	rec := do(t, srv, http.MethodGet, "/api/search?q=Bern", "")

	testutil.AssertEqual(t, rec.Code, http.StatusBadGateway)
	testutil.AssertContains(t, rec.Body.String(), "Error searching stations")
}

func TestSearch_NoResults(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeSource{}, false)

	rec := do(t, srv, http.MethodGet, "/api/search?q=Nowhere", "")

	testutil.AssertEqual(t, rec.Code, http.StatusOK)
	testutil.AssertContains(t, rec.Body.String(), `"candidates":[]`)
}

func TestCORS(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeSource{}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/stations", nil)
	req.Header.Set("Origin", "http://kiosk.local")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	testutil.AssertEqual(t, rec.Header().Get("Access-Control-Allow-Origin"), "*")
}

func TestRun_StopsOnCancel(t *testing.T) {
	reg := registry.New(nil)
	srv := New(Config{
		Addr:      "127.0.0.1:0",
		Registry:  reg,
		Scheduler: board.NewScheduler(&fakeSource{}, reg),
		Searcher:  &fakeSource{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		testutil.AssertNil(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
