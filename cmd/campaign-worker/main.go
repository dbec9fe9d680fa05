package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/safetatt/safetatt-backend/internal/campaigns"
	"github.com/safetatt/safetatt-backend/internal/clients"
	"github.com/safetatt/safetatt-backend/internal/loyalty"
	"github.com/safetatt/safetatt-backend/internal/studios"
	"github.com/safetatt/safetatt-backend/pkg/config"
	"github.com/safetatt/safetatt-backend/pkg/db"
	"github.com/safetatt/safetatt-backend/pkg/logger"
	"github.com/safetatt/safetatt-backend/pkg/pubsub"
	"github.com/safetatt/safetatt-backend/pkg/whatsapp"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "campaign-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "campaign-worker"

	logg = logger.New(logger.Options{
		ServiceName: "campaign-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	whatsappClient, err := whatsapp.NewClient(context.Background(), cfg.WhatsApp, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap whatsapp gateway", err)
		os.Exit(1)
	}

	clientsRepo := clients.NewRepository(dbClient.DB())
	loyaltyRepo := loyalty.NewRepository(dbClient.DB())

	loyaltyService, err := loyalty.NewService(loyaltyRepo, clientsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create loyalty service", err)
		os.Exit(1)
	}

	segmenter, err := campaigns.NewSegmenter(clientsRepo, loyaltyService)
	if err != nil {
		logg.Error(context.Background(), "failed to create audience segmenter", err)
		os.Exit(1)
	}

	dispatcher, err := campaigns.NewDispatcher(campaigns.DispatcherParams{
		Repo:     campaigns.NewRepository(dbClient.DB()),
		Studios:  studios.NewRepository(dbClient.DB()),
		Segments: segmenter,
		Sender:   whatsappClient,
		Config:   cfg.Campaigns,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create campaign dispatcher", err)
		os.Exit(1)
	}

	consumer, err := campaigns.NewConsumer(dispatcher, pubsubClient.CampaignSubscription(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create campaign consumer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting campaign worker")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "campaign worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "campaign worker shutting down gracefully")
}
