package search

import "github.com/perron-board/perron/internal/models"

// State is the coordinator's position in the search cycle
type State int

const (
	// Idle means the query is too short to search
	Idle State = iota
	// Pending means a lookup is scheduled or in flight
	Pending
	// Resolved means the latest lookup has completed
	Resolved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// ResultsView is what the results panel should show
type ResultsView int

const (
	ResultsHidden ResultsView = iota
	ResultsError
	ResultsEmpty
	ResultsList
)

// Session is a snapshot of the search input and its results
type Session struct {
	Query      string
	Candidates []models.Candidate
	Selected   *models.Station
	State      State
	Err        error

	// Open is true while the results panel is shown
	Open bool
}

// Results tells the presentation layer which results panel to draw
func (s Session) Results() ResultsView {
	switch {
	case !s.Open:
		return ResultsHidden
	case s.Err != nil:
		return ResultsError
	case len(s.Candidates) == 0:
		return ResultsEmpty
	default:
		return ResultsList
	}
}

// CanConfirm reports whether a station is selected and ready to add
func (s Session) CanConfirm() bool {
	return s.Selected != nil
}

func (s Session) clone() Session {
	out := s
	if s.Candidates != nil {
		out.Candidates = make([]models.Candidate, len(s.Candidates))
		copy(out.Candidates, s.Candidates)
	}
	if s.Selected != nil {
		st := *s.Selected
		out.Selected = &st
	}
	return out
}
