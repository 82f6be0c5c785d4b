// Package handlers provides HTTP handlers for the API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/javatutor/session-service/internal/api/middleware"
	"github.com/javatutor/session-service/internal/domain/errors"
	"github.com/javatutor/session-service/internal/services/engagement"
	"github.com/javatutor/session-service/internal/services/tutor"
)

// ExecutionHandler relays code snippets to the backend sandbox and feeds the
// outcome into engagement tracking.
type ExecutionHandler struct {
	tutorClient tutor.Client
	trackers    *engagement.Manager
	logger      zerolog.Logger
}

// NewExecutionHandler creates a new ExecutionHandler.
func NewExecutionHandler(tutorClient tutor.Client, trackers *engagement.Manager, logger zerolog.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		tutorClient: tutorClient,
		trackers:    trackers,
		logger:      logger.With().Str("component", "execution-handler").Logger(),
	}
}

// ExecuteCodeRequest represents the request body for running a snippet.
type ExecuteCodeRequest struct {
	Code string `json:"code" binding:"required,max=65536"`
}

// ExecuteCode handles POST /sessions/{sessionId}/code/execute
// @Summary Execute a code snippet
// @Description Runs a snippet in the backend sandbox and returns stdout/stderr
// @Tags Execution
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param request body ExecuteCodeRequest true "Code to run"
// @Success 200 {object} tutor.ExecutionResult
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/code/execute [post]
func (h *ExecutionHandler) ExecuteCode(c *gin.Context) {
	ctx := tutor.WithToken(c.Request.Context(), middleware.GetToken(c))
	sessionID := c.Param("sessionId")

	var req ExecuteCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	result, err := h.tutorClient.ExecuteCode(ctx, req.Code)
	if err != nil {
		middleware.HandleError(c, errors.NewServiceUnavailableError("code sandbox", err))
		return
	}

	if tracker, ok := h.trackers.Lookup(sessionID); ok {
		tracker.TrackCodeExecuted(ctx)
	}

	c.JSON(http.StatusOK, result)
}
