package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/server"
)

// SetupRoutes registers the /api/v1 routes. When jwtSecret is set every route
// requires a bearer token.
func SetupRoutes(router *gin.Engine, h *Handler, jwtSecret string) {
	v1 := router.Group("/api/v1")
	if jwtSecret != "" {
		v1.Use(server.JWTMiddleware(jwtSecret))
	}

	v1.POST("/annotate", h.Annotate)
	v1.GET("/rules", h.ListRules)
	v1.POST("/rules/select", h.Select)
}
