package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"flint/internal/handlers"
	"flint/internal/middleware"
)

// New wires the HTTP surface. chatLimiter may be nil, in which case
// /api/chat is not rate limited.
func New(
	chatHandler *handlers.ChatHandler,
	chatLimiter *middleware.RateLimiter,
	allowedOrigin string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(allowedOrigin))

	// Health check
	r.Get("/health", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if chatLimiter != nil {
				r.Use(chatLimiter.Middleware)
			}
			// Method dispatch (OPTIONS / POST / 405) lives in the handler.
			r.HandleFunc("/chat", chatHandler.Chat)
		})
	})

	return r
}
