package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Ayman482/nile-dose-cafe-website/internal/auth"
	"github.com/Ayman482/nile-dose-cafe-website/internal/authz"
	"github.com/Ayman482/nile-dose-cafe-website/internal/metrics"
	"github.com/Ayman482/nile-dose-cafe-website/internal/ratelimit"
	"github.com/Ayman482/nile-dose-cafe-website/internal/service"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the HTTP layer dispatches to.
// Limiter, Metrics and Health may be nil.
type Dependencies struct {
	Users      *service.UserService
	Loyalty    *service.LoyaltyService
	Rewards    *service.RewardCatalog
	Catering   *service.CateringService
	Tokens     *auth.TokenManager
	Authorizer *authz.Authorizer
	Limiter    *ratelimit.FixedWindow
	Metrics    *metrics.Metrics
	Health     HealthChecker
	StaticDir  string
}

type ServerSystem struct {
	Dependencies
	log *zap.Logger
}

func NewServerSystem(deps Dependencies, log *zap.Logger) *ServerSystem {
	return &ServerSystem{Dependencies: deps, log: log.Named("http")}
}

func (ls *ServerSystem) MakeServer(serverAddr string) *http.Server {
	return &http.Server{
		Addr:         serverAddr,
		Handler:      ls.Router(),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (ls *ServerSystem) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(ls.recoverMiddleware, ls.accessLogMiddleware)
	r.NotFoundHandler = http.HandlerFunc(ls.notFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(ls.methodNotAllowedHandler)

	r.HandleFunc("/healthz", ls.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", ls.Metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/user/register", ls.RegisterUserHandler).Methods(http.MethodPost)
	api.HandleFunc("/user/login", ls.LoginUserHandler).Methods(http.MethodPost)
	api.Handle("/user/me", ls.authenticated(ls.MeHandler)).Methods(http.MethodGet)
	api.Handle("/user/me", ls.authenticated(ls.UpdateMeHandler)).Methods(http.MethodPatch)
	api.Handle("/user/password", ls.authenticated(ls.limited("password", ls.ChangePasswordHandler))).Methods(http.MethodPost)

	api.HandleFunc("/loyalty/rewards", ls.ListRewardsHandler).Methods(http.MethodGet)
	api.HandleFunc("/loyalty/points/calculate", ls.CalculatePointsHandler).Methods(http.MethodGet)
	api.Handle("/loyalty/balance", ls.authenticated(ls.GetBalanceHandler)).Methods(http.MethodGet)
	api.Handle("/loyalty/history", ls.authenticated(ls.GetHistoryHandler)).Methods(http.MethodGet)
	api.Handle("/loyalty/redeem", ls.authenticated(ls.limited("redeem", ls.RedeemPointsHandler))).Methods(http.MethodPost)
	api.Handle("/loyalty/rewards/{id}/redeem", ls.authenticated(ls.limited("redeem", ls.RedeemRewardHandler))).Methods(http.MethodPost)

	api.HandleFunc("/catering/menu", ls.GetMenuHandler).Methods(http.MethodGet)
	api.Handle("/catering/orders", ls.optionallyAuthenticated(ls.limited("order", ls.SubmitOrderHandler))).Methods(http.MethodPost)
	api.Handle("/catering/orders", ls.authenticated(ls.ListOrdersHandler)).Methods(http.MethodGet)
	api.Handle("/catering/orders/{id}", ls.authenticated(ls.GetOrderHandler)).Methods(http.MethodGet)
	api.Handle("/catering/orders/{id}/cancel", ls.authenticated(ls.CancelOrderHandler)).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Handle("/rewards", ls.admin(authz.ObjectReward, ls.AdminListRewardsHandler)).Methods(http.MethodGet)
	admin.Handle("/rewards", ls.admin(authz.ObjectReward, ls.AdminSaveRewardHandler)).Methods(http.MethodPost)
	admin.Handle("/rewards/{id}", ls.admin(authz.ObjectReward, ls.AdminSaveRewardHandler)).Methods(http.MethodPut)
	admin.Handle("/rewards/{id}", ls.admin(authz.ObjectReward, ls.AdminDeleteRewardHandler)).Methods(http.MethodDelete)
	admin.Handle("/catering/menu", ls.admin(authz.ObjectCateringMenu, ls.AdminListMenuHandler)).Methods(http.MethodGet)
	admin.Handle("/catering/menu", ls.admin(authz.ObjectCateringMenu, ls.AdminSaveMenuItemHandler)).Methods(http.MethodPost)
	admin.Handle("/catering/menu/{id}", ls.admin(authz.ObjectCateringMenu, ls.AdminSaveMenuItemHandler)).Methods(http.MethodPut)
	admin.Handle("/catering/menu/{id}", ls.admin(authz.ObjectCateringMenu, ls.AdminDeleteMenuItemHandler)).Methods(http.MethodDelete)
	admin.Handle("/catering/orders", ls.admin(authz.ObjectCateringOrder, ls.AdminListOrdersHandler)).Methods(http.MethodGet)
	admin.Handle("/catering/orders/{id}/status", ls.admin(authz.ObjectCateringOrder, ls.AdminOrderStatusHandler)).Methods(http.MethodPatch)
	admin.Handle("/loyalty/stats", ls.admin(authz.ObjectLoyaltyStats, ls.AdminLoyaltyStatsHandler)).Methods(http.MethodGet)
	admin.Handle("/loyalty/adjust", ls.admin(authz.ObjectLoyaltyLedger, ls.AdminAdjustPointsHandler)).Methods(http.MethodPost)

	if ls.StaticDir != "" {
		r.PathPrefix("/").
			MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool { return !strings.HasPrefix(r.URL.Path, "/api/") }).
			Handler(newSPAHandler(ls.StaticDir)).
			Methods(http.MethodGet, http.MethodHead)
	}
	return r
}

func (ls *ServerSystem) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if ls.Health != nil {
		if err := ls.Health.Ping(r.Context()); err != nil {
			ls.log.Error("health check failed", zap.Error(err))
			ls.writeFailure(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	ls.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (ls *ServerSystem) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	ls.writeFailure(w, http.StatusNotFound, localize(localeFrom(r), classNotFound, ""))
}

func (ls *ServerSystem) methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	ls.writeFailure(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}
