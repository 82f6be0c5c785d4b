package sse_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javatutor/session-service/internal/api/sse"
)

func TestNewWriter_SetsStreamHeaders(t *testing.T) {
	w := httptest.NewRecorder()

	_, err := sse.NewWriter(w)

	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no", w.Header().Get("X-Accel-Buffering"))
}

func TestWriteMessageChunk(t *testing.T) {
	w := httptest.NewRecorder()
	writer, err := sse.NewWriter(w)
	require.NoError(t, err)

	err = writer.WriteMessageChunk(&sse.MessageChunk{
		Content:   "A HashMap stores key-value pairs.",
		MessageID: "msg-1",
		Done:      true,
	})

	require.NoError(t, err)
	body := w.Body.String()
	assert.Contains(t, body, "event: message\n")
	assert.Contains(t, body, `"content":"A HashMap stores key-value pairs."`)
	assert.Contains(t, body, `"done":true`)
}

func TestWriteErrorAndDone(t *testing.T) {
	w := httptest.NewRecorder()
	writer, err := sse.NewWriter(w)
	require.NoError(t, err)

	require.NoError(t, writer.WriteError("backend unavailable"))
	require.NoError(t, writer.WriteDone())

	body := w.Body.String()
	assert.Contains(t, body, "event: error\n")
	assert.Contains(t, body, `"message":"backend unavailable"`)
	assert.Contains(t, body, "event: done\ndata: {}\n\n")
}
