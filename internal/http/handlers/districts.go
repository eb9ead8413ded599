package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pothikbondhu/internal/domain"
	"pothikbondhu/internal/domain/models"
)

type districtMatch struct {
	models.Location
	Score float64 `json:"score"`
}

// GET /api/districts?q=
func (h *Handlers) ListDistricts(c *gin.Context) {
	matches := h.Locator.Search(c.Query("q"))
	out := make([]districtMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, districtMatch{Location: m.Location, Score: m.Score})
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/districts/resolve?q=
func (h *Handlers) ResolveDistrict(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		RespondDomainError(c, domain.ValidationError{Field: "q", Msg: "query is required"})
		return
	}
	loc, ok := h.Locator.Resolve(q)
	h.Metrics.Resolution(ok)
	if !ok {
		RespondDomainError(c, domain.NotFoundError{Resource: "district"})
		return
	}
	c.JSON(http.StatusOK, loc)
}
