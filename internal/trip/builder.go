// Package trip validates trip endpoints and derives the districts a route
// passes through.
package trip

import (
	"errors"
	"strings"

	"pothikbondhu/internal/domain"
	"pothikbondhu/internal/domain/models"
)

const (
	SideFrom = "from"
	SideTo   = "to"
)

// Resolver resolves free text to a gazetteer entry.
type Resolver interface {
	Resolve(input string) (models.Location, bool)
}

type Builder struct {
	Resolver Resolver
}

func NewBuilder(r Resolver) Builder {
	return Builder{Resolver: r}
}

// Plan resolves both endpoints. The from side is checked first so a message
// identifies the earliest failing input.
func (b Builder) Plan(fromText, toText string) (models.Trip, error) {
	start, ok := b.Resolver.Resolve(fromText)
	if !ok {
		return models.Trip{}, domain.EndpointNotFoundError{Side: SideFrom, Input: strings.TrimSpace(fromText)}
	}
	end, ok := b.Resolver.Resolve(toText)
	if !ok {
		return models.Trip{}, domain.EndpointNotFoundError{Side: SideTo, Input: strings.TrimSpace(toText)}
	}
	if start.Name == end.Name {
		return models.Trip{}, ErrIdenticalEndpoints
	}
	return models.Trip{Start: start, End: end}, nil
}

// ErrIdenticalEndpoints is returned when both sides resolve to one district.
var ErrIdenticalEndpoints = domain.ValidationError{Field: "trip", Msg: "start and destination are the same district"}

func IsIdenticalEndpoints(err error) bool {
	var v domain.ValidationError
	return errors.As(err, &v) && v == ErrIdenticalEndpoints
}
