package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supportdesk/internal/config"
	"supportdesk/internal/database"
	"supportdesk/internal/geo"
	"supportdesk/internal/metrics"
	"supportdesk/internal/server"
	"supportdesk/internal/services"
	"supportdesk/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
)

func main() {
	log.SetPrefix("[API] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Startup checks: every violation is reported before exiting, so a
	// broken deployment shows its full list of problems at once.
	if checkErrs := cfg.Check(); len(checkErrs) > 0 {
		for _, ce := range checkErrs {
			log.Printf("Configuration check failed: %s (hint: %s)", ce.Error(), ce.Hint)
		}
		log.Fatalf("%d configuration check(s) failed, refusing to start", len(checkErrs))
	}

	log.Printf("Starting %s v%s", cfg.App.Name, cfg.App.Version)
	log.Printf("Environment: debug=%v, port=%s, host=%s", cfg.App.Debug, cfg.App.Port, cfg.App.Host)

	// Initialize database
	log.Println("Initializing database connection...")
	if err := database.Init(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		log.Println("Closing database connections...")
		if sqlDB, err := database.GetDB().DB(); err == nil {
			if closeErr := sqlDB.Close(); closeErr != nil {
				log.Printf("Error closing database: %v", closeErr)
			}
		}
	}()

	// Periodically export connection pool stats
	statsDone := make(chan struct{})
	defer close(statsDone)
	go reportDBStats(statsDone)

	// GeoIP country resolver (no-op when unconfigured)
	resolver := geo.NewResolver(cfg.Support.GeoIPPath)
	if mm, ok := resolver.(*geo.MaxMind); ok {
		defer mm.Close()
	}

	// Create service instances
	log.Println("Initializing services...")
	db := database.GetDB()
	supportStore := store.NewSupportStore(db)
	contactStore := store.NewContactStore(db)
	emailSvc := services.NewEmailService(cfg)
	supportSvc := services.NewSupportService(supportStore, emailSvc, resolver)
	contactSvc := services.NewContactBookService(contactStore)
	authSvc := services.NewAuthService(db)

	handler := server.NewRouter(server.Deps{
		Config:   cfg,
		Support:  supportSvc,
		Contacts: contactSvc,
		Auth:     authSvc,
		DBHealth: database.HealthCheck,
	})

	// Create HTTP server with timeouts
	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     log.New(os.Stderr, "[HTTP] ", log.LstdFlags),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatalf("Server failed to start: %v", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v. Starting graceful shutdown...", sig)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Error during graceful shutdown: %v", err)
		if err == context.DeadlineExceeded {
			log.Println("Shutdown timeout exceeded, forcing close...")
			httpServer.Close()
		}
	}

	log.Println("Server shutdown complete")
}

func reportDBStats(done <-chan struct{}) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if stats, err := database.GetStats(); err == nil {
				metrics.UpdateDBConnections(stats.InUse, stats.Idle)
			}
		}
	}
}
