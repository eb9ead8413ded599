package trip

import (
	"math"
	"sort"

	"pothikbondhu/internal/domain/models"
)

const (
	// NearThresholdSq is roughly 15 km expressed in squared degrees.
	NearThresholdSq = 0.0225
	// EndpointTolerance is how close (per axis, degrees) a district must be to
	// an endpoint to count as that endpoint.
	EndpointTolerance = 0.05
	// MaxSamples bounds how many path points are compared per district.
	MaxSamples = 100
	// FallbackSteps produces FallbackSteps+1 straight-line points.
	FallbackSteps = 20
)

type candidate struct {
	loc     models.Location
	nearest int
}

// Waypoints returns the candidates lying near path, in travel order. Districts
// within EndpointTolerance of either endpoint are never included.
func Waypoints(path []models.Point, start, end models.Point, candidates []models.Location) []models.Location {
	if len(path) == 0 {
		return []models.Location{}
	}
	step := max(1, len(path)/MaxSamples)

	kept := []candidate{}
	for _, loc := range candidates {
		if nearPoint(loc.Coordinates, start) || nearPoint(loc.Coordinates, end) {
			continue
		}
		minSq, nearest := math.Inf(1), -1
		for i := 0; i < len(path); i += step {
			dLat := path[i].Lat - loc.Coordinates.Lat
			dLng := path[i].Lng - loc.Coordinates.Lng
			if sq := dLat*dLat + dLng*dLng; sq < minSq {
				minSq, nearest = sq, i
			}
		}
		if minSq < NearThresholdSq {
			kept = append(kept, candidate{loc: loc, nearest: nearest})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].nearest < kept[j].nearest })

	out := make([]models.Location, 0, len(kept))
	for _, c := range kept {
		out = append(out, c.loc)
	}
	return out
}

func nearPoint(a, b models.Point) bool {
	return math.Abs(a.Lat-b.Lat) < EndpointTolerance && math.Abs(a.Lng-b.Lng) < EndpointTolerance
}

// StraightLine interpolates steps+1 evenly spaced points from start to end.
func StraightLine(start, end models.Point, steps int) []models.Point {
	if steps < 1 {
		steps = 1
	}
	out := make([]models.Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		out = append(out, models.Point{
			Lat: start.Lat + t*(end.Lat-start.Lat),
			Lng: start.Lng + t*(end.Lng-start.Lng),
		})
	}
	return out
}
