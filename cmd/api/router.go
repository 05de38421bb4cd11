package main

import (
	"net/http"

	"charterdesk/internal/middleware"
	"charterdesk/internal/modules/reservation"
	jwtsvc "charterdesk/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

func newRouter(h *reservation.Handler, j *jwtsvc.Service, corsOrigins []string, log *zap.SugaredLogger) *gin.Engine {
	binding.EnableDecoderDisallowUnknownFields = true

	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(corsOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(j))
	{
		// Agents can book and edit but only dispatch staff remove reservations.
		h.RegisterRoutes(v1, middleware.RequireRole(middleware.RoleAdmin, middleware.RoleDispatcher))
	}
	return r
}
