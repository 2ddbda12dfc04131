package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one WebSocket subscription: a viewer, their branch filter, and
// the connection state. Created on connect, destroyed on disconnect.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	viewer service.Viewer
	branch models.Branch

	// notifiedServingID remembers which serving session the your-turn alert
	// already fired for, so propagation ticks don't re-fire it.
	notifiedServingID string
}

// Serve upgrades the request and registers the client with the hub. The
// caller's identity and role come from the auth middleware; the branch filter
// from the query string (empty means all branches).
func (h *Hub) Serve(c *gin.Context, viewer service.Viewer) {
	branch := models.Branch(c.Query("branch"))
	if branch != "" && !branch.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown branch"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.l.Error("Failed to upgrade websocket", "error", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 16),
		viewer: viewer,
		branch: branch,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump discards inbound frames; its job is noticing the disconnect.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
			// Run already tore the client set down; nobody is listening.
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
