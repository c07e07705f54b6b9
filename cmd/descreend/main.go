package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ivlev/descreen/internal/analyzer"
	"github.com/ivlev/descreen/internal/config"
	"github.com/ivlev/descreen/internal/descreen"
	"github.com/ivlev/descreen/internal/logger"
	"github.com/ivlev/descreen/internal/system"
	"github.com/ivlev/descreen/internal/transport"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadServerFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetJSON()

	workers := cfg.Workers
	if workers <= 0 {
		workers = system.DefaultWorkers()
	}
	defaults := config.Default()
	handler := transport.NewHandler(cfg, analyzer.Options{
		Pow2:          min(defaults.Pow2, cfg.MaxPow2),
		Workers:       workers,
		MinProminence: defaults.MinProminence,
		Analyzer:      descreen.Options{CachePlans: true},
	})

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"address":  cfg.Address(),
			"timeout":  cfg.RequestTimeout,
			"max_pow2": cfg.MaxPow2,
			"workers":  workers,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
