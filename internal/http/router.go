package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"regulaqa/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Health    *handlers.HealthHandler
	Upload    *handlers.UploadHandler
	Documents *handlers.DocumentsHandler
	Chat      *handlers.ChatHandler
	Model     *handlers.ModelHandler
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", deps.Health)
		r.Method(http.MethodPost, "/upload", deps.Upload)
		r.Method(http.MethodPost, "/chat", deps.Chat)
		r.Method(http.MethodGet, "/model", deps.Model)

		r.Get("/documents", deps.Documents.List)
		r.Delete("/documents", deps.Documents.Clear)
		r.Delete("/documents/{name}", deps.Documents.Delete)
		r.Put("/documents/{name}", deps.Documents.Rename)
		r.Get("/documents/{name}/view", deps.Documents.View)
	})

	return r
}
