package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Brownie44l1/fer-gallery/internal/config"
	"github.com/Brownie44l1/fer-gallery/internal/handlers"
	"github.com/Brownie44l1/fer-gallery/internal/model"
)

func main() {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:], config.Server)
	if err != nil {
		panic(err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	modelServer, err := model.NewServer(cfg.Model.Path, cfg.Model.MetadataPath, logger)
	if err != nil {
		logger.Fatal("Failed to initialize model server", zap.Error(err))
	}
	defer modelServer.Close()

	mux := http.NewServeMux()
	handlers.NewHandler(modelServer, modelServer.Metadata, logger).Routes(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Server starting",
		zap.String("port", cfg.Server.Port),
		zap.Strings("endpoints", []string{
			"GET /health",
			"POST /predict",
			"POST /predict/image",
			"POST /titles",
			"POST /gallery",
		}))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}
