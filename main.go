package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avelar/fitcoach-be/internal/api"
	"github.com/avelar/fitcoach-be/internal/auth"
	"github.com/avelar/fitcoach-be/internal/config"
	"github.com/avelar/fitcoach-be/internal/database"
	"github.com/avelar/fitcoach-be/internal/llm"
	"github.com/avelar/fitcoach-be/internal/logger"
	"github.com/avelar/fitcoach-be/internal/monitoring"
	"github.com/avelar/fitcoach-be/internal/services"
	"github.com/avelar/fitcoach-be/internal/websocket"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	// Load configuration. Missing secrets are fatal before any request
	// is served.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up the document store
	client, err := database.New(cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to disconnect from MongoDB")
		}
	}()

	userStore := database.NewUserStore(client, cfg.DBName, cfg.CollectionName)

	// Set up the model client
	llmClient := llm.New(llm.Config{
		Token:   cfg.HFToken,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
	})

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	jwtManager := auth.NewManager(cfg.JWTSecret)
	userService := services.NewUserService(userStore)
	planService := services.NewPlanService(userService, llmClient, hub)

	// Set up and run the background store health checker
	healthChecker, err := monitoring.NewHealthChecker(userStore, cfg.HealthCheckSchedule)
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.HealthCheckSchedule).Msg("Invalid health check schedule")
	}
	go healthChecker.Run()

	// Set up router
	router := api.NewRouter(jwtManager, userService, planService, hub)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	healthChecker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
