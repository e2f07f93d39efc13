package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot-studio/internal/service"
)

func newTestClient(hub *Hub, templateID string, buffer int) *Client {
	return &Client{hub: hub, templateID: templateID, send: make(chan []byte, buffer)}
}

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub, "t1", 1)

	hub.add(c)
	assert.Equal(t, 1, hub.RoomSize("t1"))

	hub.remove(c)
	assert.Equal(t, 0, hub.RoomSize("t1"))
	assert.Empty(t, hub.rooms)

	// removing twice must not close send again
	hub.remove(c)
}

func TestHubNotifyOnlyReachesTemplateRoom(t *testing.T) {
	hub := NewHub()
	watching := newTestClient(hub, "t1", 4)
	other := newTestClient(hub, "t2", 4)
	hub.add(watching)
	hub.add(other)

	hub.Notify(context.Background(), service.Event{Type: "node.created", TemplateID: "t1", SubjectID: "n1"})

	require.Len(t, watching.send, 1)
	assert.Empty(t, other.send)

	var got map[string]any
	require.NoError(t, json.Unmarshal(<-watching.send, &got))
	assert.Equal(t, "node.created", got["type"])
	assert.Equal(t, "t1", got["template_id"])
	assert.Equal(t, "n1", got["subject_id"])
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := newTestClient(hub, "t1", 1)
	hub.add(slow)

	hub.Notify(context.Background(), service.Event{Type: "node.updated", TemplateID: "t1"})
	hub.Notify(context.Background(), service.Event{Type: "node.updated", TemplateID: "t1"})

	assert.Equal(t, 0, hub.RoomSize("t1"))
	<-slow.send
	_, open := <-slow.send
	assert.False(t, open)
}

func TestServeTemplateStreamsEvents(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeTemplate(w, r, "t1")
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.RoomSize("t1") == 1 }, time.Second, 10*time.Millisecond)

	hub.Notify(context.Background(), service.Event{Type: "template.updated", TemplateID: "t1", SubjectID: "t1"})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"template.updated","template_id":"t1","subject_id":"t1","data":null}`, string(msg))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.RoomSize("t1") == 0 }, time.Second, 10*time.Millisecond)
}
