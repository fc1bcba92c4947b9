package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/table-order/realtime"
	"github.com/yeremiapane/table-order/utils"
)

const (
	// DefaultPongWait is how long a client may stay silent before it is dropped.
	DefaultPongWait = 60 * time.Second
	maxMessageSize  = 512
)

// RealtimeController upgrades authenticated clients to websocket channels.
type RealtimeController struct {
	Hub *realtime.Hub
	// PongWait bounds the time between pongs; pings go out at 9/10 of it.
	PongWait time.Duration
	upgrader websocket.Upgrader
}

func NewRealtimeController(hub *realtime.Hub, allowedOrigin string) *RealtimeController {
	return &RealtimeController{
		Hub:      hub,
		PongWait: DefaultPongWait,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
		},
	}
}

// Connect -> endpoint WebSocket
func (rc *RealtimeController) Connect(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	ws, err := rc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	channelID := uuid.NewString()
	rc.Hub.Register(channelID, ws)
	ctx := c.Request.Context()
	if err := rc.Hub.Bind(ctx, identity, channelID); err != nil {
		utils.ErrorLogger.Errorf("failed to bind channel for %s %d: %v", identity.Role, identity.ID, err)
		rc.Hub.Unregister(ctx, channelID)
		return
	}

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(rc.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(rc.PongWait))
	})

	stop := make(chan struct{})
	go rc.keepAlive(ws, channelID, stop)

	// Baca pesan sampai client disconnect
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	close(stop)

	// the request context may already be done once the client is gone
	rc.Hub.Unregister(context.Background(), channelID)
}

// keepAlive pings the client until stop is closed. WriteControl is safe to
// call next to the hub's writer goroutine.
func (rc *RealtimeController) keepAlive(ws *websocket.Conn, channelID string, stop <-chan struct{}) {
	ticker := time.NewTicker(rc.PongWait * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(realtime.WriteWait)); err != nil {
				utils.ErrorLogger.Warnf("realtime: ping to channel %s failed: %v", channelID, err)
				return
			}
		}
	}
}
