package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/facegate/internal/web/handlers"
	"github.com/kozaktomas/facegate/internal/web/static"
)

func (s *Server) setupRoutes() {
	dashboardHandler := handlers.NewDashboardHandler(s.reader)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/data", dashboardHandler.Data)
		r.Get("/stats", dashboardHandler.Stats)
	})

	// unversioned path polled by the dashboard page and older clients
	s.router.Get("/data", dashboardHandler.Data)

	s.router.Get("/favicon.ico", handlers.Favicon)
	s.router.Get("/", serveIndex)
}

func serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(static.Index())
}
