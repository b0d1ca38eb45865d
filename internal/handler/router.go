package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/appt-dashboard/internal/config"
	"github.com/zhouzirui/appt-dashboard/internal/handler/chat"
	"github.com/zhouzirui/appt-dashboard/internal/handler/page"
	"github.com/zhouzirui/appt-dashboard/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/appt-dashboard/internal/middleware"
	chatService "github.com/zhouzirui/appt-dashboard/internal/service/chat"
	"github.com/zhouzirui/appt-dashboard/internal/service/loader"
	"github.com/zhouzirui/appt-dashboard/internal/service/view"
	"github.com/zhouzirui/appt-dashboard/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(cfg *config.Config, views []view.Definition, chatSvc *chatService.Service, opts ...loader.Option) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.SecurityHeaders)
	r.Use(middlewarePkg.CSRF(cfg.Security))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Create handlers
	pageHandler := page.New(views, chatSvc, opts...)
	chatHandler := chat.New(chatSvc)
	streamHandler := stream.New(views, opts...)

	pageHandler.RegisterRoutes(r)
	chatHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.CORS(cfg.Security.TrustedOrigins))
		streamHandler.RegisterRoutes(api)
	})

	return r
}
