// Package handlers provides HTTP handlers for the API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/javatutor/session-service/internal/api/middleware"
	"github.com/javatutor/session-service/internal/domain/errors"
	"github.com/javatutor/session-service/internal/domain/models"
	"github.com/javatutor/session-service/internal/services/syncbus"
)

// tabSendBuffer bounds the per-tab outbound queue. Delivery is best-effort;
// a slow tab drops events rather than backing up the bus.
const tabSendBuffer = 64

// SyncHandler bridges browser tabs to the sync bus over WebSocket. Each tab
// gets an origin id; it receives every broadcast except its own and may
// publish envelopes upstream.
type SyncHandler struct {
	bus      *syncbus.Bus
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(bus *syncbus.Bus, allowedOrigins []string, logger zerolog.Logger) *SyncHandler {
	origins := make(map[string]bool)
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &SyncHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true // allow non-browser clients
				}
				return origins[origin]
			},
		},
		logger: logger.With().Str("component", "sync-handler").Logger(),
	}
}

// connectedMessage is the first frame sent to a tab after upgrade.
type connectedMessage struct {
	Type  string `json:"type"`
	TabID string `json:"tabId"`
}

// Connect handles GET /sessions/{sessionId}/sync
// @Summary Cross-tab sync stream
// @Description Upgrades to WebSocket; the tab receives every broadcast except its own and may publish events
// @Tags Sync
// @Param sessionId path string true "Session ID"
// @Param tabId query string false "Tab origin id; generated when absent"
// @Success 101 {string} string "Switching Protocols"
// @Failure 503 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/sync [get]
func (h *SyncHandler) Connect(c *gin.Context) {
	if !h.bus.IsSupported() {
		middleware.HandleError(c, errors.NewServiceUnavailableError("sync bus", nil))
		return
	}

	tabID := c.Query("tabId")
	if tabID == "" {
		tabID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(connectedMessage{Type: "connected", TabID: tabID}); err != nil {
		h.logger.Warn().Err(err).Msg("failed to send connected frame")
		return
	}

	// The subscription callback runs on the bus goroutine; hand envelopes to
	// the write pump so the connection has a single writer.
	outbound := make(chan models.SyncEnvelope, tabSendBuffer)
	unsubscribe := h.bus.SubscribeAll(func(env models.SyncEnvelope) {
		if env.Origin == tabID {
			return
		}
		select {
		case outbound <- env:
		default:
			h.logger.Debug().Str("tab_id", tabID).Str("event_type", string(env.Type)).Msg("slow tab, dropping sync event")
		}
	})
	defer unsubscribe()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case env := <-outbound:
				if err := conn.WriteJSON(env); err != nil {
					return
				}
			}
		}
	}()

	ctx := c.Request.Context()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).Str("tab_id", tabID).Msg("websocket closed unexpectedly")
			}
			return
		}

		var env models.SyncEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			h.logger.Warn().Err(err).Str("tab_id", tabID).Msg("malformed sync frame, dropping")
			continue
		}
		if env.Type == "" {
			continue
		}

		// The server, not the client, asserts the envelope's origin.
		env.Origin = tabID
		h.bus.PublishEnvelope(ctx, env)
	}
}
