package models

import (
	"strings"
	"time"
)

// Departure is one row of a station's departure board
type Departure struct {
	Scheduled   time.Time `json:"scheduled"`
	Destination string    `json:"destination"`
	Category    string    `json:"category"`
	Number      string    `json:"number"`
	Operator    string    `json:"operator,omitempty"`
	Platform    string    `json:"platform,omitempty"`
	RTPlatform  string    `json:"rtPlatform,omitempty"`
	Delay       int       `json:"delay"`
}

// StationboardResponse represents the full API response for a departure board
type StationboardResponse struct {
	Stationboard []StationboardEntryResponse `json:"stationboard"`
}

// StationboardEntryResponse represents the raw JSON for a single departure
type StationboardEntryResponse struct {
	Stop struct {
		Departure          string  `json:"departure"`
		DepartureTimestamp *int64  `json:"departureTimestamp"`
		Delay              *int    `json:"delay"`
		Platform           *string `json:"platform"`
		Prognosis          *struct {
			Platform *string `json:"platform"`
		} `json:"prognosis"`
	} `json:"stop"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Number   string `json:"number"`
	Operator string `json:"operator"`
	To       string `json:"to"`
}

// ToDeparture converts the raw response to a Departure
func (r *StationboardEntryResponse) ToDeparture(loc *time.Location) *Departure {
	dep := &Departure{
		Destination: r.To,
		Category:    r.Category,
		Number:      r.Number,
		Operator:    r.Operator,
	}

	if r.Stop.Platform != nil {
		dep.Platform = strings.TrimSpace(*r.Stop.Platform)
	}
	if r.Stop.Prognosis != nil && r.Stop.Prognosis.Platform != nil {
		dep.RTPlatform = strings.TrimSpace(*r.Stop.Prognosis.Platform)
	}

	// Unknown and negative delays both render as on time
	if r.Stop.Delay != nil && *r.Stop.Delay > 0 {
		dep.Delay = *r.Stop.Delay
	}

	if t, err := parseTime(r.Stop.Departure); err == nil {
		dep.Scheduled = t.In(loc)
	} else if r.Stop.DepartureTimestamp != nil {
		dep.Scheduled = time.Unix(*r.Stop.DepartureTimestamp, 0).In(loc)
	}

	return dep
}

var timeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
}

// parseTime parses the service's ISO timestamps, which use a colon-less offset
func parseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// EffectivePlatform returns the real-time platform if available, otherwise scheduled
func (d *Departure) EffectivePlatform() string {
	if d.RTPlatform != "" {
		return d.RTPlatform
	}
	return d.Platform
}

// Line returns the category and number as shown on a board, e.g. "S 9"
func (d *Departure) Line() string {
	return strings.TrimSpace(strings.TrimSpace(d.Category) + " " + strings.TrimSpace(d.Number))
}

// DelayMinutes returns the delay, never negative
func (d *Departure) DelayMinutes() int {
	if d.Delay < 0 {
		return 0
	}
	return d.Delay
}
