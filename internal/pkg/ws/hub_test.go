package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub)
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_IsOnline_NoConnections(t *testing.T) {
	hub := NewHub()

	assert.False(t, hub.IsOnline(123))
}

func TestHub_SendToUser_UserNotOnline(t *testing.T) {
	hub := NewHub()

	msg := &Message{
		Type: "analysis_updated",
		Data: map[string]interface{}{"analysis_id": 42},
	}

	// 离线用户不算错误
	err := hub.SendToUser(123, msg)
	assert.NoError(t, err)
}

func TestHub_WithRealWebSocket(t *testing.T) {
	hub := NewHub()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}

		client := &Client{
			UserID: 100,
			Conn:   conn,
		}
		hub.Register(client)

		// 保持连接一段时间再注销
		time.Sleep(200 * time.Millisecond)

		hub.Unregister(client)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// 等待注册完成
	time.Sleep(50 * time.Millisecond)

	assert.True(t, hub.IsOnline(100))
	assert.Equal(t, 1, hub.ConnectionCount())

	// 推送一条消息并在客户端侧读取
	err = hub.SendToUser(100, &Message{Type: "analysis_updated", Data: map[string]interface{}{"analysis_id": 1}})
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(payload), "analysis_updated")

	// 注销后用户离线
	time.Sleep(300 * time.Millisecond)
	assert.False(t, hub.IsOnline(100))
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_MultipleConnectionsSameUser(t *testing.T) {
	hub := NewHub()

	c1 := &Client{UserID: 7}
	c2 := &Client{UserID: 7}

	hub.Register(c1)
	hub.Register(c2)

	assert.True(t, hub.IsOnline(7))
	assert.Equal(t, 2, hub.ConnectionCount())

	hub.Unregister(c1)
	assert.True(t, hub.IsOnline(7))

	hub.Unregister(c2)
	assert.False(t, hub.IsOnline(7))
	assert.Equal(t, 0, hub.ConnectionCount())
}
