package http

import (
	"github.com/go-chi/chi/v5"
	_ "github.com/printlab-tech/shopbot-backend/docs" // Импорт сгенерированных файлов
	"github.com/printlab-tech/shopbot-backend/internal/usecase"
	"github.com/printlab-tech/shopbot-backend/pkg/logger"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(convUC usecase.ConversationUC) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		chatHandler := NewChatHandler(convUC, r.logger)
		registerChatRoutes(v1, chatHandler)
	})
}

func registerChatRoutes(router chi.Router, chatHandler *ChatHandler) {
	router.Route("/chat", func(ch chi.Router) {
		ch.Post("/events", chatHandler.handleEvent)
	})
}
