package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/webgeeksai/print-service-mcp/internal/api/handlers"
	"github.com/webgeeksai/print-service-mcp/internal/config"
	"github.com/webgeeksai/print-service-mcp/internal/core"
	"github.com/webgeeksai/print-service-mcp/internal/db"
	"github.com/webgeeksai/print-service-mcp/internal/printer"
	"github.com/webgeeksai/print-service-mcp/internal/webhook"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if cfg.Logging.File != "" {
		logFile, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	if err := db.Init(db.Config{Path: cfg.Database.Path}); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close()

	queue := core.NewQueue(&cfg.Queue)

	recovered, err := queue.RecoverStale(context.Background())
	if err != nil {
		log.Fatalf("failed to recover stale jobs: %v", err)
	}
	if recovered > 0 {
		log.Printf("recovered %d jobs left in processing by a previous run", recovered)
	}

	var notifier core.Notifier
	if len(cfg.Webhooks) > 0 {
		sender := webhook.NewSender(cfg.Webhooks)
		sender.Start()
		defer sender.Stop()
		notifier = sender
	}

	var device core.Printer
	if cfg.Printer.Simulation {
		log.Printf("running in SIMULATION mode, no physical printing")
		device = printer.NewSimulator()
	} else {
		log.Printf("printer configured at %s:%d", cfg.Printer.Address, cfg.Printer.Port)
		device = printer.NewCardPrinter(&cfg.Printer)
	}

	worker := core.NewWorker(queue, device, notifier, cfg.Queue.PollInterval)
	worker.Start()

	health := core.NewHealth(queue, cfg.Queue.CleanupInterval)
	health.Start()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handlers.NewJobHandler(queue).RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	health.Stop()
	// Waits for any in-flight print attempt; the device must not be cut off
	// mid-transmission.
	worker.Stop()

	log.Printf("shutdown complete")
}
