package handlers

import (
	"net/http"

	"redflag/internal/streaming"
	"redflag/pkg/logger"
)

// StreamingHandler handles WebSocket connections for live analysis updates
type StreamingHandler struct {
	wsHub  *streaming.WebSocketHub
	logger *logger.Logger
}

// NewStreamingHandler creates a new streaming handler
func NewStreamingHandler(wsHub *streaming.WebSocketHub, log *logger.Logger) *StreamingHandler {
	return &StreamingHandler{
		wsHub:  wsHub,
		logger: log.WithComponent("streaming-handler"),
	}
}

// ServeWS handles GET /api/v1/ws - upgrades the connection and attaches the
// client to the hub
func (h *StreamingHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, "streaming not configured")
		return
	}
	h.wsHub.ServeWebSocket(w, r)
}

// Status handles GET /api/v1/ws/status
func (h *StreamingHandler) Status(w http.ResponseWriter, r *http.Request) {
	clients := 0
	enabled := h.wsHub != nil
	if enabled {
		clients = h.wsHub.ClientCount()
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"enabled": enabled,
		"clients": clients,
	})
}
