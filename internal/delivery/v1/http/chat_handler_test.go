package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/printlab-tech/shopbot-backend/internal/usecase"
	"github.com/printlab-tech/shopbot-backend/pkg/logger"
	"github.com/stretchr/testify/require"
)

type conversationUCStub struct {
	lastUserID int64
	lastEvent  usecase.Event
	view       *usecase.View
	err        error
}

func (s *conversationUCStub) Handle(_ context.Context, userID int64, event usecase.Event) (*usecase.View, error) {
	s.lastUserID = userID
	s.lastEvent = event
	return s.view, s.err
}

func postEvent(t *testing.T, handler *ChatHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/events", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.handleEvent(rec, req)

	return rec
}

func TestHandleEvent_StartReturnsView(t *testing.T) {
	stub := &conversationUCStub{view: usecase.NewView("Привет!")}
	handler := NewChatHandler(stub, logger.NewSlogLogger())

	rec := postEvent(t, handler, `{"user_id": 7, "type": "start"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(7), stub.lastUserID)
	require.IsType(t, usecase.StartEvent{}, stub.lastEvent)

	var view usecase.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "Привет!", view.Text)
}

func TestHandleEvent_SelectParsesToken(t *testing.T) {
	stub := &conversationUCStub{view: usecase.NewView("ok")}
	handler := NewChatHandler(stub, logger.NewSlogLogger())

	rec := postEvent(t, handler, `{"user_id": 7, "type": "select", "token": "product_3"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	sel, ok := stub.lastEvent.(usecase.SelectEvent)
	require.True(t, ok)
	require.Equal(t, usecase.SelProduct{ProductID: 3}, sel.Selection)
}

func TestHandleEvent_IgnoredReturnsNoContent(t *testing.T) {
	stub := &conversationUCStub{view: nil}
	handler := NewChatHandler(stub, logger.NewSlogLogger())

	rec := postEvent(t, handler, `{"user_id": 7, "type": "select", "token": "current_page"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.Bytes())
}

func TestHandleEvent_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{user_id:`},
		{"missing user id", `{"type": "start"}`},
		{"unknown type", `{"user_id": 7, "type": "poke"}`},
		{"text event without text", `{"user_id": 7, "type": "text"}`},
		{"select event without token", `{"user_id": 7, "type": "select"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &conversationUCStub{view: usecase.NewView("ok")}
			handler := NewChatHandler(stub, logger.NewSlogLogger())

			rec := postEvent(t, handler, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, http.StatusBadRequest, resp.Code)
		})
	}
}

func TestHandleEvent_UsecaseErrorReturnsInternal(t *testing.T) {
	stub := &conversationUCStub{err: context.DeadlineExceeded}
	handler := NewChatHandler(stub, logger.NewSlogLogger())

	rec := postEvent(t, handler, `{"user_id": 7, "type": "start"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
