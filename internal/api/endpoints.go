package api

const (
	// BaseURL is the base URL for the transport.opendata.ch API
	BaseURL = "https://transport.opendata.ch/v1"

	// EndpointLocations searches for stations by name
	// Required params: query, type
	EndpointLocations = "/locations"

	// EndpointStationboard returns the next departures at a station
	// Required params: id, limit
	EndpointStationboard = "/stationboard"
)

// MinQueryLength is the shortest query sent to the lookup endpoint.
// Shorter queries are rejected locally.
const MinQueryLength = 2
