package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"complaintdesk/backend/internal/feed"
	"complaintdesk/backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketClient_ReceivesEvents(t *testing.T) {
	// Arrange
	hub, _, _ := startHub(t)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := feed.NewWebSocketClient("browser", conn, hub)
		if hub.Register(client) {
			client.Run()
		}
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	// Act
	require.NoError(t, hub.Publish(context.Background(), models.ComplaintEvent{Type: models.EventCreated, ComplaintID: "c1"}))

	// Assert
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got models.ComplaintEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, models.EventCreated, got.Type)
	assert.Equal(t, "c1", got.ComplaintID)

	// Disconnecting unregisters the client.
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
