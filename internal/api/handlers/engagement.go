// Package handlers provides HTTP handlers for the API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/javatutor/session-service/internal/api/middleware"
	"github.com/javatutor/session-service/internal/domain/errors"
	"github.com/javatutor/session-service/internal/domain/models"
	"github.com/javatutor/session-service/internal/services/engagement"
)

// EngagementHandler handles engagement tracking endpoints.
type EngagementHandler struct {
	trackers *engagement.Manager
	logger   zerolog.Logger
}

// NewEngagementHandler creates a new EngagementHandler.
func NewEngagementHandler(trackers *engagement.Manager, logger zerolog.Logger) *EngagementHandler {
	return &EngagementHandler{
		trackers: trackers,
		logger:   logger.With().Str("component", "engagement-handler").Logger(),
	}
}

// StartTrackingRequest represents the request body for starting tracking.
type StartTrackingRequest struct {
	Kind models.SessionKind `json:"kind" binding:"omitempty,oneof=lesson practice"`
}

// Start handles POST /sessions/{sessionId}/engagement/start
// @Summary Start engagement tracking
// @Description Resets score and latch, then begins accruing activity for the session
// @Tags Engagement
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param request body StartTrackingRequest false "Session kind"
// @Success 200 {object} map[string]string
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/engagement/start [post]
func (h *EngagementHandler) Start(c *gin.Context) {
	sessionID := c.Param("sessionId")

	var req StartTrackingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
			return
		}
	}
	if req.Kind == "" {
		req.Kind = models.KindLesson
	}

	tracker, err := h.trackers.Get(sessionID, req.Kind)
	if err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid session", err.Error()))
		return
	}
	tracker.StartTracking()

	c.JSON(http.StatusOK, gin.H{
		"status": "tracking",
		"kind":   string(req.Kind),
	})
}

// Stop handles POST /sessions/{sessionId}/engagement/stop
// @Summary Stop engagement tracking
// @Description Halts timers and debouncers; the score survives until reset
// @Tags Engagement
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/engagement/stop [post]
func (h *EngagementHandler) Stop(c *gin.Context) {
	sessionID := c.Param("sessionId")

	tracker, ok := h.trackers.Lookup(sessionID)
	if !ok {
		middleware.HandleError(c, errors.NewNotFoundError("engagement tracker", sessionID))
		return
	}
	tracker.StopTracking()

	c.JSON(http.StatusOK, gin.H{
		"status": "stopped",
		"score":  tracker.Score(),
	})
}

// Reset handles POST /sessions/{sessionId}/engagement/reset
// @Summary Reset engagement tracking
// @Description Stops tracking and clears score, latch, and event log
// @Tags Engagement
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} map[string]string
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/engagement/reset [post]
func (h *EngagementHandler) Reset(c *gin.Context) {
	sessionID := c.Param("sessionId")

	tracker, ok := h.trackers.Lookup(sessionID)
	if !ok {
		middleware.HandleError(c, errors.NewNotFoundError("engagement tracker", sessionID))
		return
	}
	tracker.ResetTracking()

	c.JSON(http.StatusOK, gin.H{
		"status": "reset",
	})
}

// ActivityEventRequest represents one raw activity signal from the client.
type ActivityEventRequest struct {
	Type models.ActivityType `json:"type" binding:"required,oneof=message_sent code_executed scroll interaction"`
}

// RecordEvent handles POST /sessions/{sessionId}/engagement/events
// @Summary Record an activity signal
// @Description Feeds one raw activity signal into the tracker; scroll and interaction signals are debounced
// @Tags Engagement
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param request body ActivityEventRequest true "Activity type"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/engagement/events [post]
func (h *EngagementHandler) RecordEvent(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("sessionId")

	var req ActivityEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	tracker, ok := h.trackers.Lookup(sessionID)
	if !ok {
		middleware.HandleError(c, errors.NewNotFoundError("engagement tracker", sessionID))
		return
	}

	switch req.Type {
	case models.ActivityMessageSent:
		tracker.TrackMessageSent(ctx)
	case models.ActivityCodeExecuted:
		tracker.TrackCodeExecuted(ctx)
	case models.ActivityScroll:
		tracker.SignalScroll()
	case models.ActivityInteraction:
		tracker.SignalInteraction()
	}

	c.JSON(http.StatusAccepted, gin.H{
		"accepted": true,
		"score":    tracker.Score(),
	})
}

// GetAnalytics handles GET /sessions/{sessionId}/engagement/analytics
// @Summary Engagement analytics
// @Description Returns a read-only summary of the tracking session
// @Tags Engagement
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} models.EngagementAnalytics
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/engagement/analytics [get]
func (h *EngagementHandler) GetAnalytics(c *gin.Context) {
	sessionID := c.Param("sessionId")

	tracker, ok := h.trackers.Lookup(sessionID)
	if !ok {
		middleware.HandleError(c, errors.NewNotFoundError("engagement tracker", sessionID))
		return
	}

	c.JSON(http.StatusOK, tracker.Analytics())
}
