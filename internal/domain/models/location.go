package models

// Point is a WGS84 coordinate pair in degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Location is an immutable gazetteer entry. Name is the canonical key.
type Location struct {
	Name             string   `json:"name" yaml:"name"`
	LocalName        string   `json:"localName" yaml:"local_name"`
	Aliases          []string `json:"aliases" yaml:"aliases"`
	Region           string   `json:"region" yaml:"region"`
	FamousAttributes []string `json:"famousAttributes" yaml:"famous_attributes"`
	PointsOfInterest []string `json:"pointsOfInterest" yaml:"points_of_interest"`
	Coordinates      Point    `json:"coordinates" yaml:"coordinates"`
}
