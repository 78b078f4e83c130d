package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"seribro_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) (*WebSocketManager, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	manager := NewWebSocketManager()
	go manager.Run(ctx)

	handler := NewWebSocketHandler(manager, nil)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		// Вместо AuthMiddleware
		c.Set(contextkeys.UserIDKey, c.Query("as"))
		c.Next()
	}, handler.ServeWS)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return manager, srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?as=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestSendToUser_DeliversToEveryConnection(t *testing.T) {
	manager, srv := newTestHub(t)
	first := dial(t, srv, "u1")
	second := dial(t, srv, "u1")
	other := dial(t, srv, "u2")

	require.Eventually(t, func() bool { return manager.GetClientCount() == 3 }, time.Second, 10*time.Millisecond)

	manager.SendToUser("u1", map[string]string{"title": "Application accepted"})

	for _, conn := range []*websocket.Conn{first, second} {
		env := readEnvelope(t, conn)
		assert.Equal(t, EventNotification, env["type"])
		assert.Equal(t, "Application accepted", env["data"].(map[string]interface{})["title"])
	}

	// u2 ничего не получает
	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestClient_PingPong(t *testing.T) {
	manager, srv := newTestHub(t)
	conn := dial(t, srv, "u1")
	require.Eventually(t, func() bool { return manager.IsClientConnected("u1") }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(IncomingWSMessage{Action: "ping"}))
	assert.Equal(t, "pong", readEnvelope(t, conn)["type"])
}

func TestManager_UnregistersOnClose(t *testing.T) {
	manager, srv := newTestHub(t)
	conn := dial(t, srv, "u1")
	require.Eventually(t, func() bool { return manager.IsClientConnected("u1") }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return !manager.IsClientConnected("u1") }, 2*time.Second, 10*time.Millisecond)

	// Отправка отключенному пользователю - no-op
	manager.SendToUser("u1", "ignored")
}

func TestServeWS_RequiresUser(t *testing.T) {
	_, srv := newTestHub(t)
	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.seribro.test"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://app.seribro.test")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.test")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
	assert.True(t, originChecker(nil)(req))
}
