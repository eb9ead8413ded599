package trip

import (
	"math"

	"pothikbondhu/internal/domain/models"
)

const (
	earthRadiusMeters = 6371e3
	// RoadWindingFactor inflates straight-line figures to approximate roads.
	RoadWindingFactor = 1.3
	// FallbackSpeedMPS is 50 km/h.
	FallbackSpeedMPS = 50_000.0 / 3600.0
)

// Haversine returns the great-circle distance in meters.
func Haversine(a, b models.Point) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// FallbackRoute is the straight-line estimate used when no road route is available.
func FallbackRoute(start, end models.Point) models.Route {
	direct := Haversine(start, end)
	return models.Route{
		Points:          StraightLine(start, end, FallbackSteps),
		DistanceMeters:  direct * RoadWindingFactor,
		DurationSeconds: direct / FallbackSpeedMPS * RoadWindingFactor,
	}
}
