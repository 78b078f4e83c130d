package routes

import (
	"seribro_backend/ws"

	"github.com/gin-gonic/gin"
)

func SetupWebSocketRoutes(r *gin.Engine, wsHandler *ws.WebSocketHandler, auth gin.HandlerFunc) {
	// Только авторизованные: токен из заголовка, cookie или ?token=
	r.GET("/ws", auth, wsHandler.ServeWS)
}
