package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pothikbondhu/internal/domain"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// TokenParser turns a bearer token into the calling actor.
type TokenParser interface {
	Parse(raw string) (domain.Actor, error)
}

// Auth rejects requests without a valid bearer token and stores the actor on the context.
func Auth(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		actor, err := p.Parse(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}
		c.Set(userIDKey, actor.UserID)
		c.Set(userRoleKey, string(actor.Role))
		c.Next()
	}
}

// ActorFrom returns the actor stored by Auth.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return domain.Actor{}, false
	}
	id, ok := v.(domain.ID)
	if !ok || id <= 0 {
		return domain.Actor{}, false
	}
	return domain.Actor{UserID: id, Role: domain.Role(c.GetString(userRoleKey))}, true
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      msg,
		"code":       "unauthorized",
		"request_id": GetRequestID(c),
	})
}
