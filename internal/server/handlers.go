package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/perron-board/perron/internal/api"
	"github.com/perron-board/perron/internal/board"
	"github.com/perron-board/perron/internal/models"
	"github.com/perron-board/perron/internal/output"
)

// ErrorResponse is the JSON error body
type ErrorResponse struct {
	Error string `json:"error"`
}

// StationsResponse is the JSON response for GET /api/stations
type StationsResponse struct {
	Stations []models.Station `json:"stations"`
	Count    int              `json:"count"`
	Kiosk    bool             `json:"kiosk"`
}

// RowResponse is one departure on the board
type RowResponse struct {
	Time        string    `json:"time"`
	Scheduled   time.Time `json:"scheduled"`
	Delay       int       `json:"delay"`
	Line        string    `json:"line"`
	Category    string    `json:"category"`
	Number      string    `json:"number"`
	Destination string    `json:"destination"`
	Platform    string    `json:"platform"`
	Mode        string    `json:"mode"`
	Color       string    `json:"color,omitempty"`
}

// EntryResponse is one station's board
type EntryResponse struct {
	Station   models.Station `json:"station"`
	State     string         `json:"state"`
	Message   string         `json:"message,omitempty"`
	Rows      []RowResponse  `json:"rows"`
	UpdatedAt *time.Time     `json:"updatedAt,omitempty"`
}

// BoardResponse is the JSON response for GET /api/board
type BoardResponse struct {
	Entries         []EntryResponse `json:"entries"`
	RefreshInterval int             `json:"refreshInterval"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

// SearchResponse is the JSON response for GET /api/search
type SearchResponse struct {
	Query      string             `json:"query"`
	Candidates []models.Candidate `json:"candidates"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// health handles GET /health
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"stations":  s.cfg.Registry.Len(),
		"timestamp": time.Now().UTC(),
	})
}

// listStations handles GET /api/stations
func (s *Server) listStations(w http.ResponseWriter, _ *http.Request) {
	stations := s.cfg.Registry.All()
	writeJSON(w, http.StatusOK, StationsResponse{
		Stations: stations,
		Count:    len(stations),
		Kiosk:    s.cfg.Kiosk,
	})
}

// addStation handles POST /api/stations
func (s *Server) addStation(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Kiosk {
		writeError(w, http.StatusForbidden, "Stations cannot be changed in kiosk mode")
		return
	}

	var st models.Station
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid station")
		return
	}
	st.ID = strings.TrimSpace(st.ID)
	st.Name = strings.TrimSpace(st.Name)
	if st.ID == "" || st.Name == "" {
		writeError(w, http.StatusBadRequest, "Station id and name are required")
		return
	}

	added, err := s.cfg.Registry.Add(st)
	if err != nil {
		// the station is on the board even when saving failed
		log.Printf("server: add %s: %v", st.ID, err)
	}
	if !added {
		writeError(w, http.StatusConflict, "Station already added")
		return
	}

	s.cfg.Scheduler.Refresh(s.ctx, st)
	writeJSON(w, http.StatusCreated, st)
}

// removeStation handles DELETE /api/stations/{id}
func (s *Server) removeStation(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Kiosk {
		writeError(w, http.StatusForbidden, "Stations cannot be changed in kiosk mode")
		return
	}

	id := chi.URLParam(r, "id")
	removed, err := s.cfg.Registry.Remove(id)
	if err != nil {
		log.Printf("server: remove %s: %v", id, err)
	}
	if !removed {
		writeError(w, http.StatusNotFound, "Station not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getBoard handles GET /api/board
func (s *Server) getBoard(w http.ResponseWriter, _ *http.Request) {
	entries := s.cfg.Scheduler.Entries()

	resp := BoardResponse{
		Entries:         make([]EntryResponse, 0, len(entries)),
		RefreshInterval: int(s.cfg.Scheduler.Interval() / time.Second),
		GeneratedAt:     time.Now().UTC(),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, NewEntryResponse(e, s.cfg.Location))
	}

	writeJSON(w, http.StatusOK, resp)
}

// NewEntryResponse converts a board entry to its JSON form, with times
// formatted in loc
func NewEntryResponse(e board.Entry, loc *time.Location) EntryResponse {
	out := EntryResponse{
		Station: e.Station,
		State:   e.State.String(),
		Rows:    make([]RowResponse, 0, len(e.Rows)),
	}
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt.UTC()
		out.UpdatedAt = &t
	}

	switch {
	case e.State == board.Failed:
		out.Message = output.MsgError
		return out
	case e.State == board.Loading && len(e.Rows) == 0:
		out.Message = output.MsgLoading
	case e.Empty():
		out.Message = output.MsgEmpty
	}

	for _, row := range e.Rows {
		out.Rows = append(out.Rows, RowResponse{
			Time:        output.FormatTime(row.Scheduled, loc),
			Scheduled:   row.Scheduled,
			Delay:       row.DelayMinutes(),
			Line:        row.Line(),
			Category:    row.Category,
			Number:      row.Number,
			Destination: row.Destination,
			Platform:    output.PlatformLabel(&row.Departure),
			Mode:        string(row.Class.Mode),
			Color:       row.Class.Color,
		})
	}
	return out
}

// searchStations handles GET /api/search?q=
func (s *Server) searchStations(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if utf8.RuneCountInString(q) < api.MinQueryLength {
		writeError(w, http.StatusBadRequest, "Query must be at least 2 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
	defer cancel()

	candidates, err := s.cfg.Searcher.SearchStations(ctx, q)
	if err != nil {
		log.Printf("server: search %q: %v", q, err)
		status := http.StatusBadGateway
		if errors.Is(err, api.ErrQueryTooShort) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "Error searching stations")
		return
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}

	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Candidates: candidates})
}
