package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/trips/plan?from=&to=
func (h *Handlers) PlanTrip(c *gin.Context) {
	plan, err := h.trips(c).Plan(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}
