package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"pixeltrack/api/config"
	"pixeltrack/api/database"
	"pixeltrack/api/handlers"
	"pixeltrack/api/middleware"
	"pixeltrack/api/publisher"
	"pixeltrack/api/store"
	"pixeltrack/api/tracker"
	"pixeltrack/api/utils"
)

func main() {
	cfg := config.Load()

	logCloser := utils.SetupLogging(cfg.LogFile)
	defer logCloser.Close()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if len(cfg.JWTSecret) == 0 {
		log.Fatalf("JWT_SECRET_KEY must be set")
	}
	if err := middleware.RegisterValidators(); err != nil {
		log.Fatalf("Failed to register request validators: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// --- PostgreSQL (pixel accounts) ---
	dbClient, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL database: %v", err)
	}
	defer dbClient.Close()
	if err := dbClient.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare PostgreSQL schema: %v", err)
	}

	// --- ClickHouse (tracked events) ---
	chClient, err := database.NewClickHouseDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize ClickHouse database: %v", err)
	}
	defer chClient.Close()
	if err := chClient.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare ClickHouse schema: %v", err)
	}

	pixelStore := store.NewPixelStore(dbClient.DB)
	analyticsStore := store.NewAnalyticsStore(chClient)

	sinks := []tracker.Sink{analyticsStore}

	// --- Kafka forwarding (optional) ---
	if len(cfg.KafkaBrokers) > 0 {
		kafkaClient, err := publisher.NewKafkaClient(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka client: %v", err)
		}
		defer kafkaClient.Close()
		sinks = append(sinks, publisher.NewKafkaPublisher(kafkaClient, cfg.KafkaTopic))
		log.Printf("Forwarding pixel events to Kafka topic %s", cfg.KafkaTopic)
	}

	// --- Redis eventID deduplication (optional) ---
	var deduper tracker.Deduper
	if cfg.RedisURL != "" {
		rdb, err := tracker.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
		}
		defer rdb.Close()
		deduper = tracker.NewRedisDeduper(rdb, cfg.DedupWindow)
		log.Printf("Deduplicating eventIDs over %s", cfg.DedupWindow)
	}

	pixelHandlers := handlers.NewPixelHandlers(pixelStore, cfg.JWTSecret, cfg.JWTTTL)
	analyticsHandlers := handlers.NewAnalyticsHandlers(pixelStore, analyticsStore, sinks, deduper, cfg.MaxBatchSize, cfg.TrackTimeout)

	r := handlers.NewRouter(pixelHandlers, analyticsHandlers, cfg.JWTSecret, cfg.FrontendOrigin)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Pixel API server starting on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Pixel API server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
