package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wishgrab/config"
	"wishgrab/database"
	"wishgrab/handlers"
	"wishgrab/middleware"
	"wishgrab/repository"
	"wishgrab/scheduler"
	"wishgrab/scraper"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// The metadata cache is optional; without a database the pipeline
	// simply re-extracts every request
	var cache scraper.MetadataCache
	var cacheStats handlers.CacheStats
	var janitor *scheduler.CacheJanitor
	if cfg.Database.URL != "" {
		if err := database.InitDatabase(cfg.Database.URL); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer database.CloseDatabase()

		if err := database.CreateTables(); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}

		metadataRepo := repository.NewMetadataRepository(cfg.Database.CacheTTL)
		cache = metadataRepo
		cacheStats = metadataRepo

		janitor = scheduler.NewCacheJanitor(metadataRepo)
		janitor.Start()
		defer janitor.Stop()
	} else {
		log.Println("No DATABASE_URL configured, metadata cache disabled")
	}

	// Initialize pipeline
	fetcher := scraper.NewFetcher()
	browser := scraper.NewBrowserSession(cfg.Browser)
	headless := scraper.NewHeadlessExtractor(browser)
	vision := scraper.NewVisionClient(cfg.Vision)
	orchestrator := scraper.NewOrchestrator(cfg.Timeouts, fetcher, headless, vision, cache)

	// Initialize handlers
	h := handlers.NewHandlers(orchestrator, browser, cacheStats)
	defer h.Close()

	// Setup router
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware(2)) // requests per second per client

	// Health and monitoring endpoints
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/metrics", h.Metrics).Methods("GET")

	// Extraction endpoint
	r.HandleFunc("/api/extract-metadata", h.ExtractMetadata).Methods("GET")

	// CORS configuration
	c := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.Server.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	server := &http.Server{
		Addr:    addr,
		Handler: c.Handler(r),
		// Headless extraction can legitimately take tens of seconds
		WriteTimeout: 2 * time.Minute,
		ReadTimeout:  10 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server starting on %s", addr)
		log.Printf("📋 API:")
		log.Printf("   GET  /health - Health check")
		log.Printf("   GET  /metrics - Request counters")
		log.Printf("   GET  /api/extract-metadata?url=... - Extract product metadata")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
