package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/safetatt/safetatt-backend/api/controllers"
	"github.com/safetatt/safetatt-backend/api/routes"
	"github.com/safetatt/safetatt-backend/internal/anamnesis"
	"github.com/safetatt/safetatt-backend/internal/appointments"
	"github.com/safetatt/safetatt-backend/internal/auth"
	"github.com/safetatt/safetatt-backend/internal/campaigns"
	"github.com/safetatt/safetatt-backend/internal/clients"
	"github.com/safetatt/safetatt-backend/internal/loyalty"
	"github.com/safetatt/safetatt-backend/internal/memberships"
	"github.com/safetatt/safetatt-backend/internal/profiles"
	"github.com/safetatt/safetatt-backend/internal/sessions"
	"github.com/safetatt/safetatt-backend/internal/studios"
	"github.com/safetatt/safetatt-backend/pkg/auth/session"
	"github.com/safetatt/safetatt-backend/pkg/config"
	"github.com/safetatt/safetatt-backend/pkg/db"
	"github.com/safetatt/safetatt-backend/pkg/logger"
	"github.com/safetatt/safetatt-backend/pkg/pubsub"
	"github.com/safetatt/safetatt-backend/pkg/redis"
	"github.com/safetatt/safetatt-backend/pkg/storage/gcs"
	"github.com/safetatt/safetatt-backend/pkg/whatsapp"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		logg.Error(context.Background(), "failed to load default timezone", err)
		os.Exit(1)
	}

	profilesRepo := profiles.NewRepository(dbClient.DB())
	membershipsRepo := memberships.NewRepository(dbClient.DB())
	studiosRepo := studios.NewRepository(dbClient.DB())
	clientsRepo := clients.NewRepository(dbClient.DB())
	appointmentsRepo := appointments.NewRepository(dbClient.DB())
	sessionsRepo := sessions.NewRepository(dbClient.DB())
	loyaltyRepo := loyalty.NewRepository(dbClient.DB())
	campaignsRepo := campaigns.NewRepository(dbClient.DB())
	anamnesisRepo := anamnesis.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		ProfilesRepo:    profilesRepo,
		MembershipsRepo: membershipsRepo,
		SessionManager:  sessionManager,
		JWTConfig:       cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	studioService, err := studios.NewService(studios.ServiceParams{
		Repo:            studiosRepo,
		MembershipsRepo: membershipsRepo,
		ProfilesRepo:    profilesRepo,
		Gateway:         whatsappClient,
		PasswordConfig:  cfg.Password,
		Logger:          logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create studio service", err)
		os.Exit(1)
	}

	clientService, err := clients.NewService(clientsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create client service", err)
		os.Exit(1)
	}

	appointmentService, err := appointments.NewService(appointmentsRepo, dbClient, logg, loc)
	if err != nil {
		logg.Error(context.Background(), "failed to create appointment service", err)
		os.Exit(1)
	}

	loyaltyService, err := loyalty.NewService(loyaltyRepo, clientsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create loyalty service", err)
		os.Exit(1)
	}

	sessionService, err := sessions.NewService(sessionsRepo, dbClient, loyaltyService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create session service", err)
		os.Exit(1)
	}

	campaignPublisher, err := campaigns.NewPubSubPublisher(pubsubClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create campaign publisher", err)
		os.Exit(1)
	}

	campaignService, err := campaigns.NewService(campaigns.ServiceParams{
		Repo:      campaignsRepo,
		Publisher: campaignPublisher,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create campaign service", err)
		os.Exit(1)
	}

	anamnesisService, err := anamnesis.NewService(anamnesis.ServiceParams{
		Repo:    anamnesisRepo,
		Clients: clientsRepo,
		Store:   gcsClient,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create anamnesis service", err)
		os.Exit(1)
	}

	health := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
		"gcs":      gcsClient,
		"pubsub":   pubsubClient,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			health,
			sessionManager,
			membershipsRepo,
			authService,
			registerService,
			studioService,
			clientService,
			appointmentService,
			sessionService,
			loyaltyService,
			campaignService,
			anamnesisService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
