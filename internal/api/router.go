package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"

	"learnhub_backend/internal/api/handler"
	"learnhub_backend/internal/app/service"
	"learnhub_backend/internal/common/security"
	"learnhub_backend/internal/platform/config"
)

func NewRouter(
	authService *service.AuthService,
	testService *service.TestService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AppConfig.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Verifies the bearer token when present and puts claims in context.
	// Authenticator (per route group) decides whether auth is required.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(authService)
	r.Route("/auth", authHandler.RegisterRoutes)

	// Test lifecycle routes (authenticated)
	testHandler := handler.NewTestHandler(testService)
	r.Route("/tests", testHandler.RegisterRoutes)

	return r
}
