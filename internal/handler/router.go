package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/zhouzirui/laptop-support/internal/handler/chat"
	"github.com/zhouzirui/laptop-support/internal/handler/contexts"
	"github.com/zhouzirui/laptop-support/internal/handler/live"
	"github.com/zhouzirui/laptop-support/internal/handler/page"
	"github.com/zhouzirui/laptop-support/internal/logging"
	chatService "github.com/zhouzirui/laptop-support/internal/service/chat"
	"github.com/zhouzirui/laptop-support/pkg/utils"
)

// Options configures the router.
type Options struct {
	AllowedOrigin string
	Logger        *zap.Logger
}

// Router serves the chat page and its API. Wait blocks until exchanges
// started through it have settled.
type Router struct {
	http.Handler

	chat *chat.Handler
	live *live.Handler
}

// NewRouter wires HTTP routes to the chat session.
func NewRouter(session *chatService.Session, opts Options) (*Router, error) {
	logger := logging.OrNop(opts.Logger)
	origin := opts.AllowedOrigin
	if origin == "" {
		origin = "*"
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	pageHandler, err := page.New(logger)
	if err != nil {
		return nil, err
	}
	chatHandler := chat.New(session, logger)
	liveHandler := live.New(session, logger)

	pageHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		contexts.New().RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		liveHandler.RegisterRoutes(api)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.RespondError(w, http.StatusNotFound, "not found")
	})

	return &Router{Handler: r, chat: chatHandler, live: liveHandler}, nil
}

// Wait blocks until every in-flight exchange has settled.
func (r *Router) Wait() {
	r.live.Stop()
	r.chat.Wait()
	r.live.Wait()
}
