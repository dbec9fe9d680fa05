package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safetatt/safetatt-backend/api/controllers"
	"github.com/safetatt/safetatt-backend/api/middleware"
	"github.com/safetatt/safetatt-backend/internal/anamnesis"
	"github.com/safetatt/safetatt-backend/internal/appointments"
	"github.com/safetatt/safetatt-backend/internal/auth"
	"github.com/safetatt/safetatt-backend/internal/campaigns"
	"github.com/safetatt/safetatt-backend/internal/clients"
	"github.com/safetatt/safetatt-backend/internal/loyalty"
	"github.com/safetatt/safetatt-backend/internal/sessions"
	"github.com/safetatt/safetatt-backend/internal/studios"
	"github.com/safetatt/safetatt-backend/pkg/auth/session"
	"github.com/safetatt/safetatt-backend/pkg/config"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	"github.com/safetatt/safetatt-backend/pkg/logger"
	"github.com/safetatt/safetatt-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	health map[string]controllers.Pinger,
	sessionChecker session.AccessSessionChecker,
	membershipChecker middleware.MembershipChecker,
	authService auth.Service,
	registerService auth.RegisterService,
	studioService studios.Service,
	clientService clients.Service,
	appointmentService appointments.Service,
	sessionService sessions.Service,
	loyaltyService loyalty.Service,
	campaignService campaigns.Service,
	anamnesisService anamnesis.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	manageRoles := middleware.RequireStudioRoles(membershipChecker, logg, enums.MemberRoleOwner, enums.MemberRoleAdmin)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, health))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(registerService, authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
		r.Post("/switch-studio", controllers.AuthSwitchStudio(authService, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.StudioContext(logg))

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", controllers.ClientList(clientService, logg))
			r.Post("/", controllers.ClientCreate(clientService, logg))
			r.Get("/{clientId}", controllers.ClientDetail(clientService, logg))
			r.Put("/{clientId}", controllers.ClientUpdate(clientService, logg))
			r.Get("/{clientId}/sessions", controllers.SessionsByClient(sessionService, logg))
			r.Get("/{clientId}/anamnesis", controllers.AnamnesisByClient(anamnesisService, logg))
			r.Get("/{clientId}/loyalty/balance", controllers.LoyaltyBalance(loyaltyService, logg))
			r.Get("/{clientId}/loyalty/transactions", controllers.LoyaltyClientTransactions(loyaltyService, logg))
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", controllers.AppointmentList(appointmentService, logg))
			r.Post("/", controllers.AppointmentCreate(appointmentService, logg))
			r.Post("/conflict-check", controllers.AppointmentConflictCheck(appointmentService, logg))
			r.Get("/{appointmentId}", controllers.AppointmentDetail(appointmentService, logg))
			r.Put("/{appointmentId}", controllers.AppointmentUpdate(appointmentService, logg))
			r.Post("/{appointmentId}/cancel", controllers.AppointmentCancel(appointmentService, logg))
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", controllers.SessionList(sessionService, logg))
			r.Post("/", controllers.SessionCreate(sessionService, logg))
			r.Get("/{sessionId}", controllers.SessionDetail(sessionService, logg))
			r.Put("/{sessionId}", controllers.SessionUpdate(sessionService, logg))
		})

		r.Route("/loyalty", func(r chi.Router) {
			r.Get("/metrics", controllers.LoyaltyMetrics(loyaltyService, logg))
			r.Get("/clients", controllers.LoyaltyClients(loyaltyService, logg))
			r.Post("/transactions", controllers.LoyaltyTransactionCreate(loyaltyService, logg))
			r.Get("/settings", controllers.LoyaltySettingsGet(loyaltyService, logg))
			r.With(manageRoles).Put("/settings", controllers.LoyaltySettingsUpdate(loyaltyService, logg))
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", controllers.CampaignList(campaignService, logg))
			r.With(manageRoles).Post("/", controllers.CampaignCreate(campaignService, logg))
			r.Get("/{campaignId}", controllers.CampaignDetail(campaignService, logg))
			r.Get("/{campaignId}/messages", controllers.CampaignMessages(campaignService, logg))
			r.With(manageRoles).Post("/{campaignId}/queue", controllers.CampaignQueue(campaignService, logg))
		})

		r.Route("/anamnesis", func(r chi.Router) {
			r.Post("/", controllers.AnamnesisCreate(anamnesisService, logg))
			r.Get("/{recordId}", controllers.AnamnesisDetail(anamnesisService, logg))
		})

		r.Route("/studios/me", func(r chi.Router) {
			r.Get("/", controllers.StudioProfile(studioService, logg))
			r.With(manageRoles).Put("/", controllers.StudioUpdate(studioService, logg))
			r.Get("/members", controllers.StudioMembers(studioService, logg))
			r.Get("/artists", controllers.StudioArtists(studioService, logg))
			r.With(manageRoles).Post("/members/invite", controllers.StudioInvite(studioService, logg))
			r.With(manageRoles).Delete("/members/{profileId}", controllers.StudioRemoveMember(studioService, logg))

			r.Route("/whatsapp", func(r chi.Router) {
				r.Get("/status", controllers.StudioWhatsAppStatus(studioService, logg))
				r.With(manageRoles).Post("/provision", controllers.StudioWhatsAppProvision(studioService, logg))
				r.With(manageRoles).Post("/connect", controllers.StudioWhatsAppConnect(studioService, logg))
			})
		})
	})

	return r
}
