package models

import (
	"encoding/json"
	"testing"
	"time"
)

func zurich(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		t.Fatalf("Failed to load timezone: %v", err)
	}
	return loc
}

func TestStationboardEntryResponse_ToDeparture(t *testing.T) {
	loc := zurich(t)

	raw := `{
		"stop": {
			"departure": "2025-01-15T10:00:00+0100",
			"delay": 3,
			"platform": "7",
			"prognosis": {"platform": "8"}
		},
		"category": "IC",
		"number": "5",
		"operator": "SBB",
		"to": "Genève-Aéroport"
	}`

	var resp StationboardEntryResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	dep := resp.ToDeparture(loc)

	if dep.Destination != "Genève-Aéroport" {
		t.Errorf("Destination = %q, want %q", dep.Destination, "Genève-Aéroport")
	}
	if dep.Line() != "IC 5" {
		t.Errorf("Line() = %q, want %q", dep.Line(), "IC 5")
	}
	if dep.Delay != 3 {
		t.Errorf("Delay = %d, want 3", dep.Delay)
	}
	if dep.Platform != "7" || dep.RTPlatform != "8" {
		t.Errorf("Platform = %q/%q, want 7/8", dep.Platform, dep.RTPlatform)
	}
	if dep.EffectivePlatform() != "8" {
		t.Errorf("EffectivePlatform() = %q, want 8", dep.EffectivePlatform())
	}
	if got := dep.Scheduled.Format("15:04"); got != "10:00" {
		t.Errorf("Scheduled = %s, want 10:00", got)
	}
}

func TestStationboardEntryResponse_NullFields(t *testing.T) {
	loc := zurich(t)

	raw := `{
		"stop": {
			"departure": null,
			"departureTimestamp": 1736931600,
			"delay": null,
			"platform": null,
			"prognosis": null
		},
		"category": "B",
		"number": "31",
		"to": "Hegibachplatz"
	}`

	var resp StationboardEntryResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	dep := resp.ToDeparture(loc)

	if dep.Delay != 0 {
		t.Errorf("Delay = %d, want 0", dep.Delay)
	}
	if dep.EffectivePlatform() != "" {
		t.Errorf("EffectivePlatform() = %q, want empty", dep.EffectivePlatform())
	}
	if dep.Scheduled.Unix() != 1736931600 {
		t.Errorf("Scheduled = %v, want timestamp fallback", dep.Scheduled)
	}
}

func TestStationboardEntryResponse_NegativeDelay(t *testing.T) {
	delay := -2
	resp := StationboardEntryResponse{To: "Bern"}
	resp.Stop.Delay = &delay

	dep := resp.ToDeparture(time.UTC)
	if dep.DelayMinutes() != 0 {
		t.Errorf("DelayMinutes() = %d, want 0", dep.DelayMinutes())
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2024-01-01T14:30:00+0100", false},
		{"2024-01-01T14:30:00+01:00", false},
		{"2024-01-01T14:30:00Z", false},
		{"14:30", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := parseTime(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestDeparture_Line(t *testing.T) {
	tests := []struct {
		category, number, want string
	}{
		{"S", "9", "S 9"},
		{"T", " 2 ", "T 2"},
		{"", "", ""},
		{"ICE", "", "ICE"},
	}

	for _, tt := range tests {
		d := Departure{Category: tt.category, Number: tt.number}
		if got := d.Line(); got != tt.want {
			t.Errorf("Line(%q, %q) = %q, want %q", tt.category, tt.number, got, tt.want)
		}
	}
}

func TestDeparture_JSONRoundTrip(t *testing.T) {
	original := Departure{
		Scheduled:   time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
		Destination: "Uster",
		Category:    "S",
		Number:      "9",
		Platform:    "7",
		Delay:       2,
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded Departure
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !decoded.Scheduled.Equal(original.Scheduled) || decoded.Destination != original.Destination {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}
