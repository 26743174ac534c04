package api

import (
	"github.com/gin-gonic/gin"
	"tcu-monitor/internal/logging"
)

func NewRouter(h *Handler, hub *Hub, logger *logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	api := r.Group("/api/v0")
	{
		api.GET("/health", h.Health)
		api.GET("/status", h.Status)
		api.GET("/groups", h.ListGroups)
		api.GET("/groups/:project/:ncu", h.GroupStatus)
		api.GET("/dispatches", h.ListDispatches)
	}
	r.GET("/ws", hub.ServeWS)
	return r
}
