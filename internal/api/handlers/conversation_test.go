package handlers_test

import (
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/javatutor/session-service/internal/api/handlers"
	"github.com/javatutor/session-service/internal/core/cache"
	"github.com/javatutor/session-service/internal/domain/models"
	rediscache "github.com/javatutor/session-service/internal/infrastructure/cache/redis"
	"github.com/javatutor/session-service/internal/pkg/encryption"
	"github.com/javatutor/session-service/internal/services/conversation"
	"github.com/javatutor/session-service/internal/services/engagement"
	"github.com/javatutor/session-service/internal/services/tutor"
	"github.com/javatutor/session-service/tests/mocks"
	"github.com/javatutor/session-service/tests/testutils"
)

type conversationFixture struct {
	mr       *miniredis.Miniredis
	cache    cache.Client
	stores   *conversation.Manager
	trackers *engagement.Manager
	tutor    *mocks.MockTutorClient
	docDB    *mocks.MockDocDBClient
	router   *gin.Engine
}

func setupConversationRouter(t *testing.T) *conversationFixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	cacheClient, err := rediscache.NewClient(rediscache.Config{
		Host: mr.Host(),
		Port: mr.Port(),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		cacheClient.Close()
		mr.Close()
	})

	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	encryptor, err := encryption.NewAESEncryptor(key)
	require.NoError(t, err)

	stores, err := conversation.NewManager(&conversation.ManagerConfig{
		CacheClient: cacheClient,
		Encryptor:   encryptor,
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)

	trackers, err := engagement.NewManager(&engagement.ManagerConfig{
		Threshold: 10,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	tutorClient := &mocks.MockTutorClient{}
	docDB := mocks.NewMockDocDBClient()

	handler := handlers.NewConversationHandler(stores, trackers, tutorClient, cacheClient, docDB, zerolog.Nop())

	router := testutils.SetupTestRouter()
	sessions := router.Group("/sessions/:sessionId")
	sessions.POST("/login-sweep", handler.LoginSweep)
	sessions.POST("/hydrate", handler.Hydrate)
	sessions.GET("/messages", handler.GetMessages)
	sessions.DELETE("/messages", handler.DeleteMessages)
	sessions.POST("/conversation/messages", handler.SendMessage)
	sessions.GET("/conversation/combined", handler.GetCombinedView)
	sessions.GET("/conversation/:model/context", handler.GetContextWindow)
	sessions.POST("/conversation/active-model", handler.SetActiveModel)

	return &conversationFixture{
		mr:       mr,
		cache:    cacheClient,
		stores:   stores,
		trackers: trackers,
		tutor:    tutorClient,
		docDB:    docDB,
		router:   router,
	}
}

func TestSendMessage_SingleModel(t *testing.T) {
	fx := setupConversationRouter(t)

	fx.tutor.On("SubmitChatTurn", mock.Anything, models.ModelGemini, mock.Anything).
		Return(&tutor.ChatTurnResult{
			Text:          "A HashMap stores key-value pairs.",
			CorrelationID: "corr-1",
			LatencyMs:     200,
			ModelName:     "gemini-pro",
		}, nil)

	w := testutils.PerformRequest(fx.router, "POST", "/sessions/s1/conversation/messages", handlers.SendMessageRequest{
		Text:  "What is a HashMap?",
		Model: models.ModelGemini,
	}, nil)

	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response handlers.SendMessageResponse
	testutils.ParseJSONResponse(t, w, &response)

	require.NotNil(t, response.Message)
	assert.Equal(t, models.SenderUser, response.Message.Sender)
	require.Len(t, response.Replies, 1)
	assert.Equal(t, "A HashMap stores key-value pairs.", response.Replies[0].Text)
	require.NotNil(t, response.Replies[0].Meta)
	assert.Equal(t, "corr-1", response.Replies[0].Meta.CorrelationID)
}

func TestSendMessage_BothModels(t *testing.T) {
	fx := setupConversationRouter(t)

	fx.tutor.On("SubmitChatTurn", mock.Anything, models.ModelGemini, mock.Anything).
		Return(&tutor.ChatTurnResult{Text: "gemini reply"}, nil)
	fx.tutor.On("SubmitChatTurn", mock.Anything, models.ModelTogether, mock.Anything).
		Return(&tutor.ChatTurnResult{Text: "together reply"}, nil)

	w := testutils.PerformRequest(fx.router, "POST", "/sessions/s1/conversation/messages", handlers.SendMessageRequest{
		Text: "Compare loops",
		Both: true,
	}, nil)

	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response handlers.SendMessageResponse
	testutils.ParseJSONResponse(t, w, &response)
	assert.Len(t, response.Replies, 2)

	// The shared user message collapses to one entry in the combined view.
	combined := testutils.PerformRequest(fx.router, "GET", "/sessions/s1/conversation/combined", nil, nil)
	testutils.AssertStatusCode(t, http.StatusOK, combined)

	var view handlers.CombinedViewResponse
	testutils.ParseJSONResponse(t, combined, &view)
	assert.Equal(t, 3, view.Total)
}

func TestSendMessage_BackendFailureStoresFallbackReply(t *testing.T) {
	fx := setupConversationRouter(t)

	fx.tutor.On("SubmitChatTurn", mock.Anything, models.ModelGemini, mock.Anything).
		Return(nil, assert.AnError)

	w := testutils.PerformRequest(fx.router, "POST", "/sessions/s1/conversation/messages", handlers.SendMessageRequest{
		Text:  "hello?",
		Model: models.ModelGemini,
	}, nil)

	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response handlers.SendMessageResponse
	testutils.ParseJSONResponse(t, w, &response)

	require.Len(t, response.Replies, 1)
	assert.Contains(t, response.Replies[0].Text, "try again")
	assert.Nil(t, response.Replies[0].Meta)
}

func TestSendMessage_WhitespaceIgnored(t *testing.T) {
	fx := setupConversationRouter(t)

	w := testutils.PerformRequest(fx.router, "POST", "/sessions/s1/conversation/messages", handlers.SendMessageRequest{
		Text:  "   ",
		Model: models.ModelGemini,
	}, nil)

	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response handlers.SendMessageResponse
	testutils.ParseJSONResponse(t, w, &response)
	assert.Nil(t, response.Message)
	assert.Empty(t, response.Replies)
	fx.tutor.AssertNotCalled(t, "SubmitChatTurn", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessage_UnknownModelRejected(t *testing.T) {
	fx := setupConversationRouter(t)

	w := testutils.PerformRequest(fx.router, "POST", "/sessions/s1/conversation/messages", map[string]string{
		"text":  "hello",
		"model": "claude",
	}, nil)

	testutils.AssertStatusCode(t, http.StatusBadRequest, w)
}

func TestGetContextWindow(t *testing.T) {
	fx := setupConversationRouter(t)

	fx.tutor.On("SubmitChatTurn", mock.Anything, models.ModelGemini, mock.Anything).
		Return(&tutor.ChatTurnResult{Text: "reply"}, nil)

	for i := 0; i < 8; i++ {
		w := testutils.PerformRequest(fx.router, "POST", "/sessions/s1/conversation/messages", handlers.SendMessageRequest{
			Text:  "question",
			Model: models.ModelGemini,
		}, nil)
		testutils.AssertStatusCode(t, http.StatusOK, w)
	}

	w := testutils.PerformRequest(fx.router, "GET", "/sessions/s1/conversation/gemini/context?max=10", nil, nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response handlers.ContextWindowResponse
	testutils.ParseJSONResponse(t, w, &response)

	assert.Equal(t, models.ModelGemini, response.Model)
	assert.Len(t, response.Entries, 10) // 16 stored, bounded to 10

	w = testutils.PerformRequest(fx.router, "GET", "/sessions/s1/conversation/claude/context", nil, nil)
	testutils.AssertStatusCode(t, http.StatusBadRequest, w)
}

func TestSetActiveModel(t *testing.T) {
	fx := setupConversationRouter(t)

	w := testutils.PerformRequest(fx.router, "POST", "/sessions/s1/conversation/active-model", handlers.SetActiveModelRequest{
		Model: models.ModelGemini,
	}, nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)

	w = testutils.PerformRequest(fx.router, "POST", "/sessions/s1/conversation/active-model", map[string]string{
		"model": "gpt",
	}, nil)
	testutils.AssertStatusCode(t, http.StatusBadRequest, w)
}

func TestHydrate_RestoresPersistedState(t *testing.T) {
	fx := setupConversationRouter(t)

	fx.tutor.On("SubmitChatTurn", mock.Anything, models.ModelTogether, mock.Anything).
		Return(&tutor.ChatTurnResult{Text: "reply"}, nil)

	w := testutils.PerformRequest(fx.router, "POST", "/sessions/s1/conversation/messages", handlers.SendMessageRequest{
		Text:  "persist me",
		Model: models.ModelTogether,
	}, nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)

	w = testutils.PerformRequest(fx.router, "POST", "/sessions/s1/hydrate", nil, nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response handlers.HydrateResponse
	testutils.ParseJSONResponse(t, w, &response)

	assert.Equal(t, "s1", response.SessionID)
	assert.Equal(t, 2, response.Counts[models.ModelTogether])
	assert.Equal(t, 0, response.Counts[models.ModelGemini])
}

func TestLoginSweep_RemovesLegacyKeys(t *testing.T) {
	fx := setupConversationRouter(t)

	require.NoError(t, fx.mr.Set("preserved_session", "stale"))
	require.NoError(t, fx.mr.Set("conversation_history_3", "stale"))

	w := testutils.PerformRequest(fx.router, "POST", "/sessions/s1/login-sweep", nil, nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response map[string]int64
	testutils.ParseJSONResponse(t, w, &response)

	assert.Equal(t, int64(2), response["removed"])
	assert.False(t, fx.mr.Exists("preserved_session"))
}

func TestDeleteMessages_ErasesTranscript(t *testing.T) {
	fx := setupConversationRouter(t)

	fx.tutor.On("SubmitChatTurn", mock.Anything, models.ModelGemini, mock.Anything).
		Return(&tutor.ChatTurnResult{Text: "reply"}, nil)
	fx.docDB.MessagesMock().On("DeleteBySession", mock.Anything, "s1").Return(int64(4), nil)

	w := testutils.PerformRequest(fx.router, "POST", "/sessions/s1/conversation/messages", handlers.SendMessageRequest{
		Text:  "erase me later",
		Model: models.ModelGemini,
	}, nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)
	require.True(t, fx.mr.Exists(conversation.SlotKey("s1")))

	w = testutils.PerformRequest(fx.router, "DELETE", "/sessions/s1/messages", nil, nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response map[string]int64
	testutils.ParseJSONResponse(t, w, &response)
	assert.Equal(t, int64(4), response["removed"])

	// The persisted slot is gone, so a hydrate starts empty.
	assert.False(t, fx.mr.Exists(conversation.SlotKey("s1")))
}

func TestGetMessages_PaginatedArchive(t *testing.T) {
	fx := setupConversationRouter(t)

	archived := []*models.Message{
		testutils.NewTestAssistantMessage(models.ModelGemini),
		testutils.NewTestUserMessage(models.ModelGemini),
	}

	fx.docDB.MessagesMock().On("CountBySession", mock.Anything, "s1").Return(int64(2), nil)
	fx.docDB.MessagesMock().On("List", mock.Anything, mock.Anything).Return(archived, nil)

	w := testutils.PerformRequest(fx.router, "GET", "/sessions/s1/messages?limit=10", nil, nil)
	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response handlers.GetMessagesResponse
	testutils.ParseJSONResponse(t, w, &response)

	assert.Equal(t, int64(2), response.Total)
	assert.Len(t, response.Messages, 2)
	assert.Equal(t, int64(10), response.Limit)
}
