package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pothikbondhu/internal/services"
)

// POST /api/bookings
func (h *Handlers) CreateBooking(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req services.CreateBookingInput
	if !BindJSONOrError(c, &req) {
		return
	}
	b, err := h.bookings(c).Create(c.Request.Context(), a, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GET /api/bookings/user/:userId
func (h *Handlers) ListUserBookings(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "userId")
	if !ok {
		return
	}
	out, err := h.bookings(c).ListForUser(c.Request.Context(), a, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/bookings/guide/:guideId
func (h *Handlers) ListGuideBookings(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "guideId")
	if !ok {
		return
	}
	out, err := h.bookings(c).ListForGuide(c.Request.Context(), a, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// TransitionBooking serves POST /api/bookings/:id/<action>.
func (h *Handlers) TransitionBooking(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		b, err := h.bookings(c).Transition(c.Request.Context(), a, id, action)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// POST /api/bookings/:id/rate
func (h *Handlers) RateBooking(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.RateInput
	if !BindJSONOrError(c, &req) {
		return
	}
	out, err := h.bookings(c).Rate(c.Request.Context(), a, id, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rating": out})
}

// GET /api/bookings/:id/voucher
func (h *Handlers) BookingVoucher(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	pdf, filename, err := h.vouchers(c).Generate(c.Request.Context(), a, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
