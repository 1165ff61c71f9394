package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tavern-pos/tavern/internal/audit"
	"github.com/tavern-pos/tavern/internal/catalog"
	"github.com/tavern-pos/tavern/internal/credit"
	"github.com/tavern-pos/tavern/internal/observability"
	"github.com/tavern-pos/tavern/internal/orders"
	"github.com/tavern-pos/tavern/internal/payments"
	"github.com/tavern-pos/tavern/internal/payroll"
	"github.com/tavern-pos/tavern/internal/reports"
	"github.com/tavern-pos/tavern/internal/stock"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Pool            *pgxpool.Pool
	CatalogHandler  *catalog.Handler
	StockHandler    *stock.Handler
	OrdersHandler   *orders.Handler
	PaymentsHandler *payments.Handler
	CreditHandler   *credit.Handler
	PayrollHandler  *payroll.Handler
	ReportsHandler  *reports.Handler
	AuditHandler    *audit.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Tavern defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Metrics.Middleware)

	r.Handle("/metrics", params.Metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			if err := params.Pool.Ping(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(api chi.Router) {
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(api)
		}
		if params.StockHandler != nil {
			params.StockHandler.MountRoutes(api)
		}
		if params.OrdersHandler != nil {
			params.OrdersHandler.MountRoutes(api)
		}
		if params.PaymentsHandler != nil {
			params.PaymentsHandler.MountRoutes(api)
		}
		if params.CreditHandler != nil {
			params.CreditHandler.MountRoutes(api)
		}
		if params.PayrollHandler != nil {
			params.PayrollHandler.MountRoutes(api)
		}
		if params.ReportsHandler != nil {
			params.ReportsHandler.MountRoutes(api)
		}
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(api)
		}
	})

	return r
}
