package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnhub_backend/internal/api"
	"learnhub_backend/internal/app/service"
	"learnhub_backend/internal/common/security"
	"learnhub_backend/internal/domain/repository"
	"learnhub_backend/internal/platform/cache"
	"learnhub_backend/internal/platform/config"
	"learnhub_backend/internal/platform/database"
)

func main() {
	// 1. Load Configuration
	config.Load()
	log.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()

	// 3. Initialize Database
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.Open(ctx, config.AppConfig.DBDriver, config.AppConfig.DBDSN)
	cancel()
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	defer db.Close()
	log.Printf("Database connected (driver=%s).", config.AppConfig.DBDriver)

	// 4. Initialize Redis cache (optional; the test view falls back to the DB)
	rdb, err := cache.Connect(context.Background())
	if err != nil {
		log.Printf("WARN: redis unavailable, running without test view cache: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
		log.Println("Redis connected.")
	}

	// 5. Initialize Repositories
	userRepo := repository.NewSQLUserRepository(db)
	testRepo := repository.NewSQLTestRepository(db)
	subRepo := repository.NewSQLSubmissionRepository(db)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo)
	testService := service.NewTestService(testRepo, subRepo, rdb, db)

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(authService, testService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
