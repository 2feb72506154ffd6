package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/avelar/fitcoach-be/internal/api/handlers"
	"github.com/avelar/fitcoach-be/internal/auth"
	"github.com/avelar/fitcoach-be/internal/services"
	"github.com/avelar/fitcoach-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(jwt *auth.Manager, userService services.UserServiceProvider, planService services.PlanServiceProvider, hub *websocket.Hub) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, jwt)
	planHandler := handlers.NewPlanHandler(planService, userService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Post("/logout", userHandler.Logout)
		})

		// Everything below requires a valid session token.
		r.Group(func(r chi.Router) {
			r.Use(jwt.Middleware())

			r.Get("/auth/me", userHandler.GetMe)
			r.Get("/ws", wsHandler.Serve)

			r.Route("/plans", func(r chi.Router) {
				r.Post("/", planHandler.Generate)
				r.Get("/history", planHandler.History)
				r.Get("/artifact", planHandler.DownloadArtifact)
			})
		})
	})

	return r
}
