package routes

import (
	"seribro_backend/internal/handlers"
	"seribro_backend/internal/logger"
	"seribro_backend/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
	guards handlers.RouteGuards,
	uploadsDir string,
) {
	SetupPublicRoutes(ginRouter, uploadsDir)

	api := ginRouter.Group("/api")
	appHandlers.RegisterRoutes(api, guards)

	SetupWebSocketRoutes(ginRouter, wsHandler, guards.Auth)
	logger.Info("Routes registered")
}
