package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/richxcame/scam-sniffer/pkg/common"
	"github.com/richxcame/scam-sniffer/pkg/logger"
	"github.com/richxcame/scam-sniffer/pkg/middleware"
	ws "github.com/richxcame/scam-sniffer/pkg/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Cross-origin policy is enforced by the CORS middleware in front
	// of this route
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to websocket connections
type Handler struct {
	hub *ws.Hub
}

// NewHandler creates a new realtime handler
func NewHandler(hub *ws.Hub) *Handler {
	return &Handler{hub: hub}
}

// HandleWebSocket upgrades the connection and starts the client pumps.
// Authentication is optional: anonymous visitors can analyze text, but
// only authenticated submissions are persisted and only admins receive
// the observer broadcasts.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithContext(c.Request.Context()).Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	role := c.GetString(middleware.ContextRole)
	if role == "" {
		role = "anonymous"
	}

	client := ws.NewClient(uuid.New().String(), conn, h.hub, role, logger.Get())
	client.Email = c.GetString(middleware.ContextEmail)

	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

// GetLiveUserCount reports how many clients are connected right now
func (h *Handler) GetLiveUserCount(c *gin.Context) {
	common.SuccessResponse(c, gin.H{"count": h.hub.GetClientCount()})
}
