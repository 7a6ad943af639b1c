// file: internal/router/router.go
package router

import (
	"net/http"

	"badgehub/internal/config"
	"badgehub/internal/handlers/web"
	"badgehub/internal/middleware"
	"badgehub/internal/response"
	"badgehub/internal/services"

	_ "badgehub/docs" // generated swagger docs

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// New builds the full HTTP handler: API routes, swagger UI, health
// probes and the shared middleware chain.
func New(sc *services.ServiceCollection, cfg *config.Config, logger *zap.Logger) (http.Handler, error) {
	builder := response.NewBuilder(cfg.IsProduction(), logger)

	authHandler := web.NewAuthHandler(sc.AuthService, builder, logger)
	googleHandler := web.NewGoogleHandler(sc.AuthService, builder, logger)
	badgeHandler := web.NewBadgeHandler(sc.BadgeService, builder, logger)
	rewardHandler := web.NewRewardHandler(sc.RewardService, builder, logger)
	profileHandler := web.NewProfileHandler(sc.ProfileService, builder, logger)
	communityHandler := web.NewCommunityHandler(sc.BadgeService, builder, logger)
	healthHandler := web.NewHealthHandler(sc, logger)

	hub, err := web.NewHub(sc.EventBus, logger)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.Use(
		response.Middleware(builder),
		middleware.RequestID(logger),
		middleware.Recover,
		middleware.Logging,
		middleware.SecurityHeaders,
		middleware.CORS,
	)

	// Health probes
	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthHandler.Live).Methods(http.MethodGet)

	// Swagger UI
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	api := r.PathPrefix("/api").Subrouter()

	// Public auth routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/google", googleHandler.Redirect).Methods(http.MethodGet)
	api.HandleFunc("/auth/google/callback", googleHandler.Callback).Methods(http.MethodGet)

	// Catalog browsing works anonymously but reflects the session when present
	public := api.NewRoute().Subrouter()
	public.Use(middleware.OptionalAuth(sc.AuthService))
	public.HandleFunc("/badges", badgeHandler.List).Methods(http.MethodGet)
	public.HandleFunc("/badges/themes", badgeHandler.Themes).Methods(http.MethodGet)
	public.HandleFunc("/badges/{id:[0-9]+}", badgeHandler.Get).Methods(http.MethodGet)
	public.HandleFunc("/community", communityHandler.Feed).Methods(http.MethodGet)
	public.HandleFunc("/leaderboard", profileHandler.Leaderboard).Methods(http.MethodGet)

	// Session-only routes
	private := api.NewRoute().Subrouter()
	private.Use(middleware.RequireAuth(sc.AuthService))
	private.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)
	private.HandleFunc("/profile", profileHandler.Me).Methods(http.MethodGet)
	private.HandleFunc("/profile", profileHandler.UpdateProfile).Methods(http.MethodPut)
	private.HandleFunc("/profile/avatar", profileHandler.UploadAvatar).Methods(http.MethodPost)
	private.HandleFunc("/profile/recompute", badgeHandler.Recompute).Methods(http.MethodPost)
	private.HandleFunc("/badges/{id:[0-9]+}/answer", badgeHandler.Submit).Methods(http.MethodPost)
	private.HandleFunc("/badges/{id:[0-9]+}/improve", rewardHandler.StartImprovement).Methods(http.MethodPost)
	private.HandleFunc("/badges/{id:[0-9]+}/improve", rewardHandler.CancelImprovement).Methods(http.MethodDelete)
	private.HandleFunc("/rewards/daily", rewardHandler.ClaimDailyBonus).Methods(http.MethodPost)

	// The wheel gets its own throttle on top of authentication
	spin := private.NewRoute().Subrouter()
	spin.Use(middleware.RateLimit(sc.Cache, "spin", cfg.Rewards.SpinRatePerMin))
	spin.HandleFunc("/rewards/spin", rewardHandler.Spin).Methods(http.MethodPost)

	// Live event stream, authenticated by session cookie or bearer token
	r.Handle("/ws", middleware.RequireAuth(sc.AuthService)(http.HandlerFunc(hub.ServeWS))).Methods(http.MethodGet)

	logger.Info("router configured",
		zap.String("swagger_ui", "/swagger/"),
		zap.Int("spin_rate_per_min", cfg.Rewards.SpinRatePerMin),
	)

	return r, nil
}
