// Package handlers provides HTTP handlers for the API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/javatutor/session-service/internal/api/middleware"
	"github.com/javatutor/session-service/internal/api/sse"
	"github.com/javatutor/session-service/internal/core/cache"
	"github.com/javatutor/session-service/internal/core/docdb"
	"github.com/javatutor/session-service/internal/domain/errors"
	"github.com/javatutor/session-service/internal/domain/models"
	"github.com/javatutor/session-service/internal/services/conversation"
	"github.com/javatutor/session-service/internal/services/engagement"
	"github.com/javatutor/session-service/internal/services/tutor"
)

// tutorUnavailableText is shown in place of a reply when the backend fails.
// It is stored as a regular assistant message so the transcript stays coherent.
const tutorUnavailableText = "Sorry, I couldn't process that message. Please try again."

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	stores      *conversation.Manager
	trackers    *engagement.Manager
	tutorClient tutor.Client
	cacheClient cache.Client
	docDBClient docdb.Client
	logger      zerolog.Logger
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(
	stores *conversation.Manager,
	trackers *engagement.Manager,
	tutorClient tutor.Client,
	cacheClient cache.Client,
	docDBClient docdb.Client,
	logger zerolog.Logger,
) *ConversationHandler {
	return &ConversationHandler{
		stores:      stores,
		trackers:    trackers,
		tutorClient: tutorClient,
		cacheClient: cacheClient,
		docDBClient: docDBClient,
		logger:      logger.With().Str("component", "conversation-handler").Logger(),
	}
}

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	Text string `json:"text" binding:"required,max=32000"`
	// Model is the target tutor; defaults to the session's active model.
	Model models.ModelTag `json:"model"`
	// Both routes the message to both tutors for split-screen mode.
	Both   bool `json:"both"`
	Stream bool `json:"stream"`
}

// SendMessageResponse represents the response for sending a message.
type SendMessageResponse struct {
	Message *models.Message   `json:"message"`
	Replies []*models.Message `json:"replies"`
}

// SendMessage handles POST /sessions/{sessionId}/conversation/messages
// @Summary Send a message
// @Description Appends a user message and returns the tutor reply (supports SSE streaming)
// @Tags Conversation
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param request body SendMessageRequest true "Message content"
// @Success 200 {object} SendMessageResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/conversation/messages [post]
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("sessionId")

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	store, err := h.stores.Get(ctx, sessionID)
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("failed to load conversation", err))
		return
	}

	var userMessage *models.Message
	var targets []models.ModelTag
	if req.Both {
		userMessage, err = store.AppendUserMessageBoth(ctx, req.Text)
		targets = models.KnownModels
	} else {
		model := req.Model
		if model == "" {
			model = store.ActiveModel()
		}
		if !model.IsValid() {
			middleware.HandleError(c, errors.NewValidationError("unknown model", string(req.Model)))
			return
		}
		userMessage, err = store.AppendUserMessage(ctx, req.Text, model)
		targets = []models.ModelTag{model}
	}
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("failed to append message", err))
		return
	}
	if userMessage == nil {
		// Whitespace-only input is ignored rather than rejected.
		c.JSON(http.StatusOK, SendMessageResponse{Replies: []*models.Message{}})
		return
	}

	if tracker, ok := h.trackers.Lookup(sessionID); ok {
		tracker.TrackMessageSent(ctx)
	}

	if req.Stream {
		h.streamReplies(c, store, targets)
		return
	}

	replies := make([]*models.Message, 0, len(targets))
	for _, model := range targets {
		replies = append(replies, h.collectReply(c, store, model))
	}

	c.JSON(http.StatusOK, SendMessageResponse{
		Message: userMessage,
		Replies: replies,
	})
}

// collectReply runs one tutor turn and stores the reply. A backend failure
// becomes a stored fallback reply so the transcript never has a hole.
func (h *ConversationHandler) collectReply(c *gin.Context, store *conversation.Store, model models.ModelTag) *models.Message {
	ctx := tutor.WithToken(c.Request.Context(), middleware.GetToken(c))

	window := store.ContextWindow(model, 0)
	result, err := h.tutorClient.SubmitChatTurn(ctx, model, window)

	var text string
	var meta *models.Meta
	if err != nil {
		h.logger.Warn().Err(err).Str("model", string(model)).Msg("tutor turn failed")
		text = tutorUnavailableText
	} else {
		text = result.Text
		meta = &models.Meta{
			CorrelationID: result.CorrelationID,
			LatencyMs:     result.LatencyMs,
			ModelName:     result.ModelName,
		}
	}

	reply, err := store.AppendAssistantMessage(ctx, text, model, meta)
	if err != nil {
		h.logger.Error().Err(err).Str("model", string(model)).Msg("failed to store tutor reply")
		return nil
	}
	return reply
}

// streamReplies writes each tutor reply as an SSE message chunk.
func (h *ConversationHandler) streamReplies(c *gin.Context, store *conversation.Store, targets []models.ModelTag) {
	writer, err := sse.NewWriter(c.Writer)
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("streaming not supported", err))
		return
	}

	for i, model := range targets {
		reply := h.collectReply(c, store, model)
		if reply == nil {
			writer.WriteError("failed to store tutor reply")
			continue
		}
		writer.WriteMessageChunk(&sse.MessageChunk{
			Content:   reply.Text,
			MessageID: reply.ID,
			Done:      i == len(targets)-1,
		})
	}

	writer.WriteDone()
}

// CombinedViewResponse represents the merged split-screen transcript.
type CombinedViewResponse struct {
	SessionID string           `json:"sessionId"`
	Messages  []models.Message `json:"messages"`
	Total     int              `json:"total"`
}

// GetCombinedView handles GET /sessions/{sessionId}/conversation/combined
// @Summary Combined transcript
// @Description Returns both model histories merged by timestamp with duplicate user messages collapsed
// @Tags Conversation
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} CombinedViewResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/conversation/combined [get]
func (h *ConversationHandler) GetCombinedView(c *gin.Context) {
	store, err := h.stores.Get(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("failed to load conversation", err))
		return
	}

	messages := store.CombinedView()
	c.JSON(http.StatusOK, CombinedViewResponse{
		SessionID: store.SessionID(),
		Messages:  messages,
		Total:     len(messages),
	})
}

// ContextWindowRequest represents the query parameters for a context window.
type ContextWindowRequest struct {
	Max int `form:"max" binding:"omitempty,min=1,max=100"`
}

// ContextWindowResponse represents a bounded model context.
type ContextWindowResponse struct {
	Model   models.ModelTag       `json:"model"`
	Entries []models.ContextEntry `json:"entries"`
}

// GetContextWindow handles GET /sessions/{sessionId}/conversation/{model}/context
// @Summary Model context window
// @Description Returns the most recent messages for one model as (role, content) pairs
// @Tags Conversation
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param model path string true "Model tag" Enums(gemini, together)
// @Param max query int false "Window size" default(10) minimum(1) maximum(100)
// @Success 200 {object} ContextWindowResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/conversation/{model}/context [get]
func (h *ConversationHandler) GetContextWindow(c *gin.Context) {
	model := models.ModelTag(c.Param("model"))
	if !model.IsValid() {
		middleware.HandleError(c, errors.NewValidationError("unknown model", c.Param("model")))
		return
	}

	var req ContextWindowRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid query parameters", err.Error()))
		return
	}

	store, err := h.stores.Get(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("failed to load conversation", err))
		return
	}

	c.JSON(http.StatusOK, ContextWindowResponse{
		Model:   model,
		Entries: store.ContextWindow(model, req.Max),
	})
}

// SetActiveModelRequest represents the request body for switching models.
type SetActiveModelRequest struct {
	Model models.ModelTag `json:"model" binding:"required"`
}

// SetActiveModel handles POST /sessions/{sessionId}/conversation/active-model
// @Summary Switch active model
// @Description Selects which model bucket single-model views read from
// @Tags Conversation
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param request body SetActiveModelRequest true "Model tag"
// @Success 200 {object} map[string]string
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/conversation/active-model [post]
func (h *ConversationHandler) SetActiveModel(c *gin.Context) {
	var req SetActiveModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	store, err := h.stores.Get(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("failed to load conversation", err))
		return
	}

	if err := store.SwitchActiveModel(req.Model); err != nil {
		middleware.HandleError(c, errors.NewValidationError("unknown model", string(req.Model)))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activeModel": string(store.ActiveModel()),
	})
}

// HydrateResponse reports the bucket sizes after a restore.
type HydrateResponse struct {
	SessionID string                  `json:"sessionId"`
	Counts    map[models.ModelTag]int `json:"counts"`
}

// Hydrate handles POST /sessions/{sessionId}/hydrate
// @Summary Restore persisted conversation
// @Description Re-reads the encrypted cache slot; missing or malformed state yields an empty conversation
// @Tags Conversation
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} HydrateResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/hydrate [post]
func (h *ConversationHandler) Hydrate(c *gin.Context) {
	ctx := c.Request.Context()

	store, err := h.stores.Get(ctx, c.Param("sessionId"))
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("failed to load conversation", err))
		return
	}
	store.Hydrate(ctx)

	counts := make(map[models.ModelTag]int, len(models.KnownModels))
	for _, model := range models.KnownModels {
		counts[model] = store.BucketLen(model)
	}

	c.JSON(http.StatusOK, HydrateResponse{
		SessionID: store.SessionID(),
		Counts:    counts,
	})
}

// LoginSweep handles POST /sessions/{sessionId}/login-sweep
// @Summary Sweep legacy storage keys
// @Description Removes earlier releases' session/conversation keys before a new session is established
// @Tags Conversation
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} map[string]int64
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/login-sweep [post]
func (h *ConversationHandler) LoginSweep(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("sessionId")

	removed, err := conversation.SweepLegacyKeys(ctx, h.cacheClient)
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("failed to sweep legacy keys", err))
		return
	}

	// A fresh login also drops any in-memory state for the session id.
	h.stores.Evict(sessionID)
	h.trackers.Evict(sessionID)

	c.JSON(http.StatusOK, gin.H{
		"removed": removed,
	})
}

// DeleteMessages handles DELETE /sessions/{sessionId}/messages
// @Summary Erase a session's transcript
// @Description Removes the archived messages, the persisted cache slot, and any in-memory state for a session
// @Tags Conversation
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} map[string]int64
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/messages [delete]
func (h *ConversationHandler) DeleteMessages(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("sessionId")

	removed, err := h.docDBClient.Messages().DeleteBySession(ctx, sessionID)
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("failed to delete messages", err))
		return
	}

	if _, err := h.cacheClient.Delete(ctx, conversation.SlotKey(sessionID)); err != nil {
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to drop persisted conversation slot")
	}
	h.stores.Evict(sessionID)

	c.JSON(http.StatusOK, gin.H{
		"removed": removed,
	})
}

// GetMessagesRequest represents the query parameters for the archive listing.
type GetMessagesRequest struct {
	Model  models.ModelTag `form:"model" binding:"omitempty,oneof=gemini together"`
	Limit  int64           `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int64           `form:"offset" binding:"omitempty,min=0"`
}

// GetMessagesResponse represents the archive listing response.
type GetMessagesResponse struct {
	Messages []*models.Message `json:"messages"`
	Total    int64             `json:"total"`
	Limit    int64             `json:"limit"`
	Offset   int64             `json:"offset"`
}

// GetMessages handles GET /sessions/{sessionId}/messages
// @Summary List archived messages
// @Description Retrieves durably archived messages for a session with pagination
// @Tags Conversation
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param model query string false "Filter by model tag" Enums(gemini, together)
// @Param limit query int false "Maximum number of messages" default(50) minimum(1) maximum(100)
// @Param offset query int false "Offset for pagination" default(0) minimum(0)
// @Success 200 {object} GetMessagesResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/session-service/sessions/{sessionId}/messages [get]
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("sessionId")

	var req GetMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid query parameters", err.Error()))
		return
	}
	if req.Limit == 0 {
		req.Limit = 50
	}

	total, err := h.docDBClient.Messages().CountBySession(ctx, sessionID)
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("failed to count messages", err))
		return
	}

	messages, err := h.docDBClient.Messages().List(ctx, &docdb.ListMessagesOptions{
		SessionID: sessionID,
		Model:     req.Model,
		Limit:     req.Limit,
		Skip:      req.Offset,
		OrderBy:   docdb.SortOrderDesc,
	})
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("failed to list messages", err))
		return
	}

	c.JSON(http.StatusOK, GetMessagesResponse{
		Messages: messages,
		Total:    total,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
}
