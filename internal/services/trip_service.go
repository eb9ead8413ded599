package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pothikbondhu/internal/domain"
	"pothikbondhu/internal/domain/models"
	"pothikbondhu/internal/metrics"
	"pothikbondhu/internal/trip"
	"pothikbondhu/internal/utils"
)

const defaultExternalTimeout = 4 * time.Second

type RouteSource interface {
	Route(ctx context.Context, from, to models.Point) (models.Route, error)
}

type WeatherSource interface {
	Current(ctx context.Context, at models.Point) (models.Weather, error)
}

// TripService resolves both endpoints and decorates the trip with a route and weather.
type TripService struct {
	Builder    trip.Builder
	Candidates []models.Location
	Routes     RouteSource
	Weather    WeatherSource
	Timeout    time.Duration
	Metrics    *metrics.Metrics
	RequestID  string
}

func (s TripService) Plan(ctx context.Context, fromText, toText string) (models.TripPlan, error) {
	t, err := s.Builder.Plan(fromText, toText)
	s.Metrics.Resolution(!domain.IsEndpointNotFound(err))
	if err != nil {
		return models.TripPlan{}, err
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultExternalTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		route    models.Route
		routeErr error
		startW   *models.Weather
		endW     *models.Weather
	)

	// Collaborator failures are absorbed, so no goroutine returns an error.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if s.Routes == nil {
			routeErr = errNoCollaborator
			return nil
		}
		route, routeErr = s.Routes.Route(gctx, t.Start.Coordinates, t.End.Coordinates)
		return nil
	})
	g.Go(func() error {
		startW = s.currentWeather(gctx, t.Start)
		return nil
	})
	g.Go(func() error {
		endW = s.currentWeather(gctx, t.End)
		return nil
	})
	_ = g.Wait()

	plan := models.TripPlan{
		Start:        t.Start,
		End:          t.End,
		StartWeather: startW,
		EndWeather:   endW,
	}
	if routeErr != nil || len(route.Points) == 0 {
		if routeErr != nil {
			utils.LogWarn(s.RequestID, "trips", "route", routeErr,
				zap.String("from", t.Start.Name), zap.String("to", t.End.Name))
		}
		s.Metrics.RouteFallback()
		route = trip.FallbackRoute(t.Start.Coordinates, t.End.Coordinates)
		plan.Fallback = true
	}
	plan.Path = route.Points
	plan.DistanceMeters = route.DistanceMeters
	plan.DurationSeconds = route.DurationSeconds
	plan.Waypoints = trip.Waypoints(route.Points, t.Start.Coordinates, t.End.Coordinates, s.Candidates)
	return plan, nil
}

func (s TripService) currentWeather(ctx context.Context, loc models.Location) *models.Weather {
	if s.Weather == nil {
		return nil
	}
	w, err := s.Weather.Current(ctx, loc.Coordinates)
	if err != nil {
		utils.LogWarn(s.RequestID, "trips", "weather", err, zap.String("location", loc.Name))
		return nil
	}
	return &w
}

var errNoCollaborator = domain.InternalError{Msg: "collaborator not configured"}
