package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tavern-pos/tavern/internal/app"
	"github.com/tavern-pos/tavern/internal/audit"
	"github.com/tavern-pos/tavern/internal/catalog"
	"github.com/tavern-pos/tavern/internal/credit"
	"github.com/tavern-pos/tavern/internal/notify"
	"github.com/tavern-pos/tavern/internal/observability"
	"github.com/tavern-pos/tavern/internal/orders"
	"github.com/tavern-pos/tavern/internal/payments"
	"github.com/tavern-pos/tavern/internal/payroll"
	"github.com/tavern-pos/tavern/internal/platform/cache"
	"github.com/tavern-pos/tavern/internal/platform/db"
	"github.com/tavern-pos/tavern/internal/reports"
	"github.com/tavern-pos/tavern/internal/shared"
	"github.com/tavern-pos/tavern/internal/stock"
	"github.com/tavern-pos/tavern/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, reports served uncached", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	queue := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = queue.Close() }()
	notifier := notify.NewSMSNotifier(logger, queue)

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	metrics := observability.NewMetrics()

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	stockRepo := stock.NewRepository(pool)
	stockService := stock.NewService(stockRepo, auditLogger, idempotencyStore, notifier, stock.ServiceConfig{
		AlertRecipients: cfg.StockAlertSMS,
		CountDepletion:  metrics.CountDepletion,
	})
	stockHandler := stock.NewHandler(logger, stockService)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(ordersRepo, catalogService, auditLogger, stockService, payments.ClassifyLabel)
	ordersHandler := orders.NewHandler(logger, ordersService)

	paymentsRepo := payments.NewRepository(pool)
	paymentsService := payments.NewService(paymentsRepo, auditLogger, notifier)
	paymentsHandler := payments.NewHandler(logger, paymentsService)

	creditRepo := credit.NewRepository(pool)
	creditService := credit.NewService(creditRepo, auditLogger, notifier, payments.ClassifyLabel)
	creditHandler := credit.NewHandler(logger, creditService)

	payrollRepo := payroll.NewRepository(pool)
	payrollService := payroll.NewService(payrollRepo, auditLogger)
	payrollHandler := payroll.NewHandler(logger, payrollService)

	reportsRepo := reports.NewRepository(pool)
	var reportsCache *reports.Cache
	if redisClient != nil {
		reportsCache = reports.NewCache(redisClient, cfg.ReportCacheTTL)
	}
	reportsService := reports.NewService(reportsRepo, reportsCache)
	reportsHandler := reports.NewHandler(logger, reportsService)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(logger, auditService)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Pool:            pool,
		CatalogHandler:  catalogHandler,
		StockHandler:    stockHandler,
		OrdersHandler:   ordersHandler,
		PaymentsHandler: paymentsHandler,
		CreditHandler:   creditHandler,
		PayrollHandler:  payrollHandler,
		ReportsHandler:  reportsHandler,
		AuditHandler:    auditHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
