package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pothikbondhu/internal/services"
)

// POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req services.RegisterInput
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := h.auth(c)
	reg, err := svc.ParseRegistration(req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	res, err := svc.Register(c.Request.Context(), reg)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req services.LoginInput
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.auth(c).Login(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
