package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Brownie44l1/fer-gallery/internal/config"
	"github.com/Brownie44l1/fer-gallery/internal/dataset"
	"github.com/Brownie44l1/fer-gallery/internal/gallery"
	"github.com/Brownie44l1/fer-gallery/internal/model"
	"github.com/Brownie44l1/fer-gallery/internal/render"
)

func main() {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:], config.Gallery)
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

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	samples, err := dataset.Load(cfg.Dataset.Dir, dataset.Options{Limit: cfg.Dataset.Limit}, logger)
	if err != nil {
		logger.Fatal("Failed to load dataset", zap.Error(err))
	}

	modelServer, err := model.NewServer(cfg.Model.Path, cfg.Model.MetadataPath, logger)
	if err != nil {
		logger.Fatal("Failed to initialize model server", zap.Error(err))
	}
	defer modelServer.Close()

	var fig *render.Figure
	if cfg.Gallery.Overview {
		fig, err = gallery.Overview(ctx, modelServer, samples, cfg.Gallery.Start)
	} else {
		var res *gallery.Result
		res, err = gallery.Page(ctx, modelServer, samples, cfg.Gallery.Start)
		if err == nil {
			fig = res.Figure
			for i, title := range res.Titles {
				logger.Info("Resolved title",
					zap.Int("index", cfg.Gallery.Start+i),
					zap.String("title", title),
					zap.Stringer("color", res.Colors[i]))
			}
		}
	}
	if err != nil {
		logger.Fatal("Failed to build gallery", zap.Error(err))
	}

	if err := fig.SaveFile(cfg.Gallery.Output); err != nil {
		logger.Fatal("Failed to save gallery", zap.Error(err))
	}
	logger.Info("Gallery written", zap.String("output", cfg.Gallery.Output))
}
