package api

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	intconfig "pothikbondhu/internal/config"
	"pothikbondhu/internal/domain"
	h "pothikbondhu/internal/http/handlers"
	"pothikbondhu/internal/http/middleware"
	"pothikbondhu/internal/services"
	"pothikbondhu/internal/utils"
)

func NewRouter(env intconfig.Env, hs *h.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(hs.Metrics), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.LogWarn("", "http", "trusted_proxies", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	requireUser := middleware.Auth(hs.Tokens)
	requireGuide := middleware.RequireRoles(string(domain.RoleGuide))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", hs.DBCheck)
		api.GET("/routes", h.Routes)
		api.GET("/metrics", hs.ServeMetrics)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/register", hs.Register)
		auth.POST("/login", hs.Login)

		// Gazetteer and trip planning
		api.GET("/districts", hs.ListDistricts)
		api.GET("/districts/resolve", hs.ResolveDistrict)
		api.GET("/trips/plan", hs.PlanTrip)

		// Guide directory
		guides := api.Group("/guides")
		guides.GET("", hs.ListGuides)
		guides.GET("/grouped", hs.GroupedGuides)
		guides.GET("/:id", hs.GetGuide)
		guides.PUT("/me/location", requireUser, requireGuide, hs.UpdateMyLocation)
		guides.PUT("/me/availability", requireUser, requireGuide, hs.SetMyAvailability)

		// Bookings
		bookings := api.Group("/bookings", requireUser)
		bookings.POST("", hs.CreateBooking)
		bookings.GET("/user/:userId", hs.ListUserBookings)
		bookings.GET("/guide/:guideId", hs.ListGuideBookings)
		for _, action := range []string{
			services.ActionAccept,
			services.ActionReject,
			services.ActionCancel,
			services.ActionComplete,
		} {
			bookings.POST("/:id/"+action, hs.TransitionBooking(action))
		}
		bookings.POST("/:id/rate", hs.RateBooking)
		bookings.GET("/:id/voucher", hs.BookingVoucher)
	}

	h.SetRouter(r)
	return r
}
