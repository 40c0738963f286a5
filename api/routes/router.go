package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farlliant/tokopos-backend/api/controllers"
	"github.com/farlliant/tokopos-backend/api/middleware"
	accountsvc "github.com/farlliant/tokopos-backend/internal/accounts"
	authsvc "github.com/farlliant/tokopos-backend/internal/auth"
	catalogsvc "github.com/farlliant/tokopos-backend/internal/catalog"
	ledgersvc "github.com/farlliant/tokopos-backend/internal/ledger"
	reportingsvc "github.com/farlliant/tokopos-backend/internal/reporting"
	"github.com/farlliant/tokopos-backend/pkg/auth/session"
	"github.com/farlliant/tokopos-backend/pkg/config"
	"github.com/farlliant/tokopos-backend/pkg/db"
	"github.com/farlliant/tokopos-backend/pkg/enums"
	"github.com/farlliant/tokopos-backend/pkg/logger"
	"github.com/farlliant/tokopos-backend/pkg/metrics"
	"github.com/farlliant/tokopos-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionChecker session.AccessSessionChecker
	HTTPMetrics    *metrics.HTTPMetrics
	Registry       *prometheus.Registry

	AuthService      authsvc.Service
	AccountService   accountsvc.Service
	CatalogService   catalogsvc.Service
	LedgerService    ledgersvc.Service
	ReportingService reportingsvc.Service
}

// NewRouter wires the middleware stack and the full route table.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(deps.HTTPMetrics),
	)

	authGuard := middleware.Auth(cfg.JWT, deps.SessionChecker, logg)
	adminGuard := middleware.RequireRole(string(enums.RoleAdmin), logg)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	var cachePinger controllers.Pinger
	if deps.Redis != nil {
		cachePinger = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, cachePinger))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	login := controllers.AuthLogin(deps.AuthService, logg)
	if deps.Redis != nil {
		limited := middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)(login)
		login = limited.ServeHTTP
	}

	r.Route("/user", func(r chi.Router) {
		r.Post("/login", login)

		r.Group(func(r chi.Router) {
			r.Use(authGuard)
			r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
			r.Get("/", controllers.UserList(deps.AccountService, logg))
			r.With(adminGuard).Post("/", controllers.UserRegister(deps.AccountService, logg))
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authGuard)

		r.Route("/produk", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.CatalogService, logg))
			r.Post("/", controllers.ProductCreate(deps.CatalogService, logg))
			r.Post("/bulk", controllers.ProductBulkCreate(deps.CatalogService, logg))
			r.Patch("/bulk_update", controllers.ProductBulkUpdate(deps.CatalogService, logg))
			r.With(adminGuard).Delete("/bulk_delete", controllers.ProductBulkDelete(deps.CatalogService, logg))

			r.Route("/{code}", func(r chi.Router) {
				r.Get("/", controllers.ProductGet(deps.CatalogService, logg))
				r.Put("/", controllers.ProductUpdate(deps.CatalogService, logg))
				r.With(adminGuard).Delete("/", controllers.ProductDelete(deps.CatalogService, logg))
			})
		})

		r.Route("/transaksi", func(r chi.Router) {
			r.Get("/", controllers.TransactionList(deps.LedgerService, logg))
			r.Post("/", controllers.TransactionCreate(deps.LedgerService, logg))
			r.Post("/bulk", controllers.TransactionBulkCreate(deps.LedgerService, logg))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", controllers.TransactionGet(deps.LedgerService, logg))
				r.With(adminGuard).Delete("/", controllers.TransactionReverse(deps.LedgerService, logg))
			})
		})

		r.Route("/report", func(r chi.Router) {
			r.Get("/", controllers.Report(deps.ReportingService, logg))
			r.Get("/yearly", controllers.ReportYearly(deps.ReportingService, logg))
		})
	})

	return r
}
