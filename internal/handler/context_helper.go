package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/enrollease/enrollease-api/internal/middleware"
	"github.com/enrollease/enrollease-api/internal/models"
)

// currentUser returns the signed-in operator, or nil for anonymous routes.
func currentUser(c *gin.Context) *models.SessionClaims {
	if v, ok := c.Get(middleware.ContextUserKey); ok {
		if claims, ok := v.(*models.SessionClaims); ok {
			return claims
		}
	}
	return nil
}
