package models

// Station is a stop identified by the remote service's stable id.
// Two stations are the same station when their IDs match; Name is display
// metadata only.
type Station struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Candidate is a station search result with its optional coordinate
type Candidate struct {
	Station
	Coordinate *Coordinate `json:"coordinate,omitempty"`
}

// Coordinate is a WGS84 position as reported by the lookup endpoint
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LocationsResponse represents the raw JSON response for a station lookup
type LocationsResponse struct {
	Stations []LocationResponse `json:"stations"`
}

// LocationResponse is a single lookup entry. Addresses and POIs come back
// without an id.
type LocationResponse struct {
	ID         *string `json:"id"`
	Name       string  `json:"name"`
	Coordinate *struct {
		Type string   `json:"type"`
		X    *float64 `json:"x"`
		Y    *float64 `json:"y"`
	} `json:"coordinate"`
}

// ToCandidate converts the raw entry. ok is false for entries that cannot be
// tracked as a station.
func (r *LocationResponse) ToCandidate() (Candidate, bool) {
	if r.ID == nil || *r.ID == "" {
		return Candidate{}, false
	}

	c := Candidate{Station: Station{ID: *r.ID, Name: r.Name}}
	if r.Coordinate != nil && r.Coordinate.X != nil && r.Coordinate.Y != nil {
		c.Coordinate = &Coordinate{X: *r.Coordinate.X, Y: *r.Coordinate.Y}
	}
	return c, true
}

// Stations strips coordinates from a candidate list
func Stations(candidates []Candidate) []Station {
	out := make([]Station, len(candidates))
	for i, c := range candidates {
		out[i] = c.Station
	}
	return out
}
