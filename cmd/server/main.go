package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/customer360/internal/analytics"
	"github.com/ignite/customer360/internal/api"
	"github.com/ignite/customer360/internal/archive"
	"github.com/ignite/customer360/internal/cache"
	"github.com/ignite/customer360/internal/config"
	"github.com/ignite/customer360/internal/dashboard"
	"github.com/ignite/customer360/internal/insights"
	"github.com/ignite/customer360/internal/pkg/logger"
	"github.com/ignite/customer360/internal/warehouse"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config; empty uses defaults and env only")
	flag.Parse()

	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  Customer 360 Analytics Server (cmd/server/main.go)       ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	if cfg.Log.RedactPII != nil {
		logger.SetRedactPII(*cfg.Log.RedactPII)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Snowflake is the only record source
	if !cfg.Snowflake.Configured() {
		log.Fatalf("Snowflake is not configured: set SNOWFLAKE_CONNECTION_STRING or snowflake.account/user")
	}
	wh, err := warehouse.NewClient(cfg.Snowflake.Resolved())
	if err != nil {
		log.Fatalf("Failed to create Snowflake client: %v", err)
	}
	defer wh.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 15*time.Second)
	if err := wh.Ping(pingCtx); err != nil {
		log.Printf("Warning: Snowflake not reachable yet: %v", err)
	} else {
		log.Println("Snowflake connection verified")
	}
	pingCancel()

	// Redis is optional; without it each instance caches in memory
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Printf("Warning: Redis unavailable, using in-memory cache: %v", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("Redis query cache enabled")
		}
	}
	queryCache := cache.New(cfg.Cache, redisClient)
	records := cache.NewProvider(wh, queryCache)

	summarizer, err := insights.NewFromConfig(ctx, cfg.Insights, wh)
	if err != nil {
		log.Fatalf("Failed to initialize insights provider: %v", err)
	}
	log.Printf("Insights provider: %s (timeout %s)", providerName(cfg.Insights.Provider), cfg.Insights.Timeout)

	// Archive is optional. Keep the interfaces nil when it is off.
	var archiver dashboard.Archiver
	var archivePinger api.Pinger
	if cfg.Archive.Bucket != "" {
		s3Archive, err := archive.NewS3Archive(ctx, cfg.Archive)
		if err != nil {
			log.Fatalf("Failed to initialize report archive: %v", err)
		}
		archiver, archivePinger = s3Archive, s3Archive
		log.Printf("Insight snapshots archived to s3://%s/%s", cfg.Archive.Bucket, cfg.Archive.Prefix)
	}

	svc := dashboard.New(records, wh, summarizer, archiver, dashboard.Options{
		Segments:    cfg.Segments,
		AtRisk:      cfg.AtRisk.AtRiskThresholds,
		AtRiskLimit: cfg.AtRisk.Limit,
	})

	order, err := analytics.ParseOrdering(cfg.AtRisk.Order)
	if err != nil {
		log.Fatalf("Invalid at_risk.order: %v", err)
	}

	health := api.NewHealthChecker(wh, redisClient, archivePinger, queryCache)
	server := api.NewServer(cfg.Server, api.NewHandlers(svc, order), health)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

func providerName(p string) string {
	if p == "" {
		return insights.ProviderCortex
	}
	return p
}
