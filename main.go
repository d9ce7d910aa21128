package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lantern-ml/evalbench/internal/api"
	"github.com/lantern-ml/evalbench/internal/charts"
	"github.com/lantern-ml/evalbench/internal/config"
	"github.com/lantern-ml/evalbench/internal/db"
	"github.com/lantern-ml/evalbench/internal/decode"
	"github.com/lantern-ml/evalbench/internal/infer"
)

var (
	devMode       = flag.Bool("dev", false, "Run in dev mode: mount debug chart and SQL browser routes")
	listen        = flag.String("listen", ":8080", "Listen address")
	dbFile        = flag.String("db", "evalbench.db", "Path to the sqlite database")
	configFile    = flag.String("config", "", "Path to a tuning config JSON (optional)")
	migrationsDir = flag.String("migrations", "migrations", "Path to the migrations directory")
	modelURL      = flag.String("model-url", "", "Base URL of the model inference service (overrides config)")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyConfig()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
		log.Printf("Loaded tuning config from %s", *configFile)
	}
	if *modelURL != "" {
		cfg = cfg.Merge(&config.EvalConfig{ModelURL: modelURL})
	}

	database, err := db.Open(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := database.MigrateUp(*migrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// The decode endpoint needs a logits backend. Without a model URL
	// the endpoint reports 503 and the rest of the API still works.
	var model decode.Model
	if cfg.ModelURL != nil {
		model = infer.NewClient(*cfg.ModelURL, nil)
		log.Printf("Using model backend at %s", *cfg.ModelURL)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(database, model, cfg).ServeMux()

		// Debug routes carry no auth, so they are dev-only.
		if *devMode {
			database.AttachAdminRoutes(mux)
			charts.NewHandlers(database).RegisterRoutes(mux)
		}

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("Listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
