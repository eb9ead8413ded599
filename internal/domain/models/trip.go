package models

// Trip is a validated pair of resolved endpoints.
type Trip struct {
	Start Location `json:"start"`
	End   Location `json:"end"`
}

// Route is an ordered polyline with road distance and duration.
type Route struct {
	Points          []Point `json:"points"`
	DistanceMeters  float64 `json:"distanceMeters"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// Weather is the current condition at a coordinate.
type Weather struct {
	Code        int     `json:"code"`
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"`
	WindSpeed   float64 `json:"windSpeed"`
}

// TripPlan is what the trip screen renders between start and end.
type TripPlan struct {
	Start           Location   `json:"start"`
	End             Location   `json:"end"`
	Waypoints       []Location `json:"waypoints"`
	Path            []Point    `json:"path"`
	DistanceMeters  float64    `json:"distanceMeters"`
	DurationSeconds float64    `json:"durationSeconds"`
	Fallback        bool       `json:"fallback"`
	StartWeather    *Weather   `json:"startWeather,omitempty"`
	EndWeather      *Weather   `json:"endWeather,omitempty"`
}
