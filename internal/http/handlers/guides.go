package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pothikbondhu/internal/domain"
	"pothikbondhu/internal/domain/models"
)

// GET /api/guides?location=&available=
func (h *Handlers) ListGuides(c *gin.Context) {
	svc := h.guides(c)
	location := c.Query("location")

	available := false
	if raw := c.Query("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			RespondDomainError(c, domain.ValidationError{Field: "available", Msg: "available must be true or false"})
			return
		}
		available = v
	}

	var (
		out []models.Guide
		err error
	)
	if available || location != "" {
		out, err = svc.ListAvailable(c.Request.Context(), location)
	} else {
		out, err = svc.ListAll(c.Request.Context())
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/guides/grouped
func (h *Handlers) GroupedGuides(c *gin.Context) {
	out, err := h.guides(c).GroupByLocation(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/guides/:id
func (h *Handlers) GetGuide(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	g, err := h.guides(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

type locationRequest struct {
	Location string `json:"location"`
}

// PUT /api/guides/me/location
func (h *Handlers) UpdateMyLocation(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req locationRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	g, err := h.guides(c).UpdateLocation(c.Request.Context(), a, req.Location)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

type availabilityRequest struct {
	IsAvailable *bool `json:"isAvailable"`
}

// PUT /api/guides/me/availability
func (h *Handlers) SetMyAvailability(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req availabilityRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.IsAvailable == nil {
		RespondDomainError(c, domain.ValidationError{Field: "isAvailable", Msg: "isAvailable is required"})
		return
	}
	g, err := h.guides(c).SetAvailability(c.Request.Context(), a, *req.IsAvailable)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}
