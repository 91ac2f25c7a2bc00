package system

import (
	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

type WebSocketController struct {
	hub    *Hub
	logger *zap.Logger
}

func NewWebSocketController(hub *Hub, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{hub: hub, logger: logger}
}

// HandleWebSocket pushes hub events to the client until either side closes
func (h *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	events, leave := h.hub.Subscribe()
	defer leave()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			// clients only listen; reading detects disconnects
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-closed:
			return
		}
	}
}
