package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wordchain/client/internal/api"
	"github.com/wordchain/client/internal/app"
	"github.com/wordchain/client/internal/channel"
	"github.com/wordchain/client/internal/config"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Load()

	apiClient, err := api.New(cfg.APIBaseURL, log)
	if err != nil {
		log.Fatal("building api client", zap.Error(err))
	}

	ch := channel.NewManager(cfg.ChannelURL, log)
	a := app.New(apiClient, ch, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ch.Run(ctx) })
	g.Go(func() error {
		// The loop exiting (Shutdown included) must take the channel down
		// with it, or its event buffer eventually fills with no consumer.
		defer stop()
		return a.Run(ctx)
	})

	log.Info("wordchain client running",
		zap.String("api", cfg.APIBaseURL),
		zap.String("channel", cfg.ChannelURL))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("client stopped", zap.Error(err))
	}
}
