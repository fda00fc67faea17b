package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/printlab-tech/shopbot-backend/internal/usecase"
	"github.com/printlab-tech/shopbot-backend/pkg/e"
	"github.com/printlab-tech/shopbot-backend/pkg/logger"
)

// ChatEventRequest — апдейт от платформенного адаптера (Telegram, веб-чат).
type ChatEventRequest struct {
	UserID int64  `json:"user_id"`
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Token  string `json:"token,omitempty"`
}

type ChatHandler struct {
	conversationUsecase usecase.ConversationUC
	logger              logger.Logger
}

func NewChatHandler(conversationUsecase usecase.ConversationUC, logger logger.Logger) *ChatHandler {
	return &ChatHandler{conversationUsecase: conversationUsecase, logger: logger}
}

// handleEvent
//
//	@Summary		Шаг диалога
//	@Description	Принимает событие диалога и возвращает представление ответа
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			event	body		ChatEventRequest	true	"Событие диалога"
//	@Success		200		{object}	usecase.View		"Ответ пользователю"
//	@Success		204		{string}	string				"Событие проигнорировано"
//	@Failure		400		{object}	ErrorResponse		"Ошибка валидации"
//	@Router			/chat/events [post]
func (h *ChatHandler) handleEvent(w http.ResponseWriter, r *http.Request) {
	const maxRequestSize = 64 << 10

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	var req ChatEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	event, err := toEvent(&req)
	if err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	view, err := h.conversationUsecase.Handle(r.Context(), req.UserID, event)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	if view == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	WriteSuccess(w, http.StatusOK, view)
}

// toEvent сводит транспортный запрос к одному из вариантов события диалога.
func toEvent(req *ChatEventRequest) (usecase.Event, error) {
	if req.UserID <= 0 {
		return nil, e.Wrap("user_id is required", e.ErrMissingFields)
	}

	switch req.Type {
	case "start":
		return usecase.StartEvent{}, nil
	case "text":
		if strings.TrimSpace(req.Text) == "" {
			return nil, e.Wrap("text is required for text events", e.ErrMissingFields)
		}
		return usecase.TextEvent{Content: req.Text}, nil
	case "select":
		if req.Token == "" {
			return nil, e.Wrap("token is required for select events", e.ErrMissingFields)
		}
		return usecase.SelectEvent{Selection: usecase.ParseSelection(req.Token)}, nil
	case "cancel":
		return usecase.CancelEvent{}, nil
	default:
		return nil, e.Wrap(req.Type, e.ErrUnknownEventType)
	}
}
