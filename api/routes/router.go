package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/friotec/fieldservice-backend/api/controllers"
	ordercontrollers "github.com/friotec/fieldservice-backend/api/controllers/serviceorders"
	"github.com/friotec/fieldservice-backend/api/middleware"
	"github.com/friotec/fieldservice-backend/internal/auth"
	"github.com/friotec/fieldservice-backend/internal/customers"
	"github.com/friotec/fieldservice-backend/internal/serviceorders"
	"github.com/friotec/fieldservice-backend/pkg/auth/session"
	"github.com/friotec/fieldservice-backend/pkg/config"
	"github.com/friotec/fieldservice-backend/pkg/enums"
	"github.com/friotec/fieldservice-backend/pkg/logger"
	"github.com/friotec/fieldservice-backend/pkg/metrics"
)

// redisStore is the slice of the Redis client the HTTP layer needs.
type redisStore interface {
	controllers.Pinger
	middleware.ReplayStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient redisStore,
	sessionChecker session.AccessSessionChecker,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	authService auth.Service,
	registerService auth.RegisterService,
	customersRepo customers.Repository,
	orderService serviceorders.Service,
	dlqRepo controllers.DLQReader,
	eventResolver controllers.EventResolver,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg, httpMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisClient,
		}))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.UserRoleAdmin))
			r.Post("/users", controllers.AdminRegisterStaff(registerService, logg))
			r.Get("/outbox/dlq", controllers.AdminListOutboxDLQ(dlqRepo, logg))
			r.Get("/outbox/dlq/{eventId}", controllers.AdminGetOutboxDLQ(dlqRepo, eventResolver, logg))
		})

		r.Get("/clients", controllers.ListClients(customersRepo, logg))
		r.Get("/clients/{clientId}/establishments", controllers.ListEstablishments(customersRepo, logg))
		r.Get("/establishments/{establishmentId}/equipment", controllers.ListEquipment(customersRepo, logg))

		r.Route("/service-orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(orderService, logg))
			r.Post("/", ordercontrollers.Create(orderService, logg))
			r.Post("/bulk-status", ordercontrollers.BulkChangeStatus(orderService, logg))

			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(orderService, logg))
				r.Patch("/", ordercontrollers.Update(orderService, logg))
				r.Post("/status", ordercontrollers.ChangeStatus(orderService, logg))
				r.Post("/timer/start", ordercontrollers.StartTimer(orderService, logg))
				r.Post("/timer/stop", ordercontrollers.StopTimer(orderService, logg))
				r.Get("/notes", ordercontrollers.ListNotes(orderService, logg))
				r.Post("/notes", ordercontrollers.AddNote(orderService, logg))
				r.Get("/activities", ordercontrollers.ListActivities(orderService, logg))
			})
		})
	})

	return r
}
