package ws

import (
	"net/http"

	"seribro_backend/internal/logger"
	"seribro_backend/internal/middleware"
	"seribro_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	Manager  *WebSocketManager
	upgrader websocket.Upgrader
}

// NewWebSocketHandler - allowedOrigins как у CORS: пусто или "*" пускает всех
func NewWebSocketHandler(manager *WebSocketManager, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		Manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return len(set) == 0 || origin == "" || set[origin]
	}
}

// ServeWS godoc
// @Summary WebSocket для push-уведомлений
// @Description Сообщения сервера: {"type":"notification","data":{...}}
// @Tags notifications
// @Security BearerAuth
// @Router /ws [get]
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	// userID ставит AuthMiddleware
	userID := middleware.GetUserID(c)
	if userID == "" {
		apperrors.HandleError(c, apperrors.ErrUnauthenticated)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "WebSocket upgrade error", "error", err)
		return
	}

	client := newClient(userID, conn, h.Manager)
	if !h.Manager.add(client) {
		conn.Close()
		return
	}
	logger.CtxInfo(c.Request.Context(), "WebSocket client connected")

	go client.writePump()
	go client.readPump()
}
