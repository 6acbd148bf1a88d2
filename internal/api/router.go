package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tmorder/tmorder/internal/api/handler"
	"github.com/tmorder/tmorder/internal/api/middleware"
	"github.com/tmorder/tmorder/internal/config"
	"github.com/tmorder/tmorder/internal/service"
)

// Services collects the service dependencies the router needs.
type Services struct {
	Orders    service.OrderService
	Reminders service.ReminderService
	Calendar  service.CalendarService
	System    service.SystemService
}

// NewRouter wires the HTTP surface: order CRUD, the reminder poll endpoints,
// the ICS calendar feed, the status endpoint and the operational probes.
func NewRouter(logger *slog.Logger, services Services, metricsCfg config.MetricsConfig) http.Handler {
	if services.Orders == nil {
		panic("router requires OrderService")
	}
	if services.Reminders == nil {
		panic("router requires ReminderService")
	}
	if services.Calendar == nil {
		panic("router requires CalendarService")
	}
	if services.System == nil {
		panic("router requires SystemService")
	}

	r := chi.NewRouter()

	mCfg := middleware.DefaultMetricsConfig()
	if metricsCfg.Namespace != "" {
		mCfg.Namespace = metricsCfg.Namespace
	}
	if metricsCfg.Subsystem != "" {
		mCfg.Subsystem = metricsCfg.Subsystem
	}
	if len(metricsCfg.Buckets) > 0 {
		mCfg.Buckets = metricsCfg.Buckets
	}

	var metrics *middleware.Metrics
	if metricsCfg.Enabled {
		metrics = middleware.NewMetrics(mCfg)
	}

	r.Use(
		chiMiddleware.RequestID,
		chiMiddleware.RealIP,
	)

	if metricsCfg.Enabled {
		r.Use(metrics.Middleware(mCfg))
	}

	r.Use(
		middleware.StructuredLogger(middleware.LoggingConfig{
			Logger:        logger,
			SlowThreshold: 500 * time.Millisecond,
			SkipPaths:     []string{"/health", "/healthz", "/metrics"},
		}),
		chiMiddleware.Recoverer,
		chiMiddleware.Compress(5),
	)

	r.Get("/healthz", handleHealth)
	// Alias for Docker health check
	r.Get("/health", handleHealth)

	if metricsCfg.Enabled {
		if metricsCfg.Token != "" {
			r.With(middleware.MetricsGuard(metricsCfg.Token)).Handle("/metrics", promhttp.Handler())
		} else {
			r.Handle("/metrics", promhttp.Handler())
		}
	}

	orders := handler.NewOrderHandler(services.Orders)
	reminders := handler.NewReminderHandler(services.Reminders)
	calendar := handler.NewCalendarHandler(services.Calendar)
	system := handler.NewSystemHandler(services.System)

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orders.Create)
			r.Get("/", orders.List)
			// fixed segment must be registered before the {id} routes
			r.Get("/check-reminders", reminders.Check)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", orders.Get)
				r.Put("/", orders.Update)
				r.Delete("/", orders.Delete)
				r.Post("/reminders/{horizon}", reminders.Acknowledge)
			})
		})
		r.Get("/system/status", system.Status)
	})

	r.Get("/calendar/ics", calendar.Feed)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"ts":     time.Now().UTC().Format(time.RFC3339Nano),
	})
}
