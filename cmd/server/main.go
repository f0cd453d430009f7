package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/accessops/access-console/internal/api"
	"github.com/accessops/access-console/internal/catalog"
	"github.com/accessops/access-console/internal/config"
	"github.com/accessops/access-console/internal/governance"
	"github.com/accessops/access-console/internal/renewal"
	"github.com/accessops/access-console/internal/storage/sql"
	"github.com/accessops/access-console/internal/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create data directory if needed (for SQLite)
	if cfg.Database.Driver == "sqlite3" {
		dir := "data"
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	// Initialize storage
	store, err := sql.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Initialize governance backend client (or file shim for testing)
	var client governance.Client
	if cfg.UseFileShim() {
		log.Printf("Using file shim for governance backend: %s", cfg.Backend.FileShim)
		client = governance.NewFileShim(cfg.Backend.FileShim)
	} else {
		client, err = governance.New(cfg.Backend.BaseURL, cfg.Backend.APIToken)
		if err != nil {
			log.Fatalf("Failed to initialize governance client: %v", err)
		}
	}

	// Load the catalog and schedule refreshes
	catalogSvc := catalog.New(client)
	startCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := catalogSvc.Start(startCtx, cfg.Catalog.RefreshSchedule); err != nil {
		cancel()
		log.Fatalf("Failed to load catalog: %v", err)
	}
	cancel()
	defer catalogSvc.Stop()

	// Renewal submitter refreshes the catalog after fully successful
	// submissions so the next review sees current state.
	submitter := renewal.NewSubmitter(client, catalogSvc, func(ctx context.Context) {
		if err := catalogSvc.Refresh(ctx); err != nil {
			log.Printf("Post-submission catalog refresh failed: %v", err)
		}
	})

	// OIDC components (nil when disabled)
	oidcComponents, err := web.NewOIDCComponents(context.Background(), &cfg.OIDC)
	if err != nil {
		log.Fatalf("Failed to initialize OIDC: %v", err)
	}

	// Create router
	router := api.NewRouter(api.Deps{
		Store:        store,
		Catalog:      catalogSvc,
		Submitter:    submitter,
		BootstrapKey: cfg.Console.BootstrapAPIKey,
		AdminEmails:  cfg.Console.GetAdminEmails(),
		OIDC:         oidcComponents,
		LogoutURL:    cfg.OIDC.LogoutURL,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting Access Console on http://%s", cfg.Server.Addr())
	log.Printf("Press Ctrl+C to stop")

	// Start server in goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
