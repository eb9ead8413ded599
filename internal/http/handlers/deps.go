package handlers

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"

	intconfig "pothikbondhu/internal/config"
	"pothikbondhu/internal/domain/models"
	"pothikbondhu/internal/events"
	"pothikbondhu/internal/gazetteer"
	"pothikbondhu/internal/http/middleware"
	"pothikbondhu/internal/locator"
	"pothikbondhu/internal/metrics"
	"pothikbondhu/internal/repositories"
	"pothikbondhu/internal/services"
	"pothikbondhu/internal/trip"
)

// Handlers carries the long-lived collaborators; services are assembled per request.
type Handlers struct {
	DB              *sql.DB
	Gazetteer       *gazetteer.Gazetteer
	Locator         *locator.Locator
	Routes          services.RouteSource
	Weather         services.WeatherSource
	Tokens          services.TokenIssuer
	Events          events.Publisher
	Metrics         *metrics.Metrics
	ExternalTimeout time.Duration
}

func (h *Handlers) db() *sql.DB {
	if h.DB != nil {
		return h.DB
	}
	return intconfig.DB
}

func (h *Handlers) users() repositories.UserRepository {
	return repositories.UserRepository{DB: h.db()}
}

func (h *Handlers) auth(c *gin.Context) services.AuthService {
	return services.AuthService{
		Users:     h.users(),
		Locations: h.Locator,
		Tokens:    h.Tokens,
		RequestID: middleware.GetRequestID(c),
	}
}

func (h *Handlers) guides(c *gin.Context) services.GuideService {
	return services.GuideService{
		Users:     h.users(),
		Locations: h.Locator,
		RequestID: middleware.GetRequestID(c),
	}
}

func (h *Handlers) bookings(c *gin.Context) services.BookingService {
	return services.BookingService{
		Bookings:  repositories.BookingRepository{DB: h.db()},
		Users:     h.users(),
		Locations: h.Locator,
		Events:    h.Events,
		Metrics:   h.Metrics,
		DB:        h.db(),
		RequestID: middleware.GetRequestID(c),
	}
}

func (h *Handlers) vouchers(c *gin.Context) services.VoucherService {
	return services.VoucherService{
		Bookings:  h.bookings(c),
		RequestID: middleware.GetRequestID(c),
	}
}

func (h *Handlers) trips(c *gin.Context) services.TripService {
	var candidates []models.Location
	if h.Gazetteer != nil {
		candidates = h.Gazetteer.All()
	}
	return services.TripService{
		Builder:    trip.NewBuilder(h.Locator),
		Candidates: candidates,
		Routes:     h.Routes,
		Weather:    h.Weather,
		Timeout:    h.ExternalTimeout,
		Metrics:    h.Metrics,
		RequestID:  middleware.GetRequestID(c),
	}
}
