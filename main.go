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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/TARS911/dongfeng-minitraktor-sub001/bitrix"
	"github.com/TARS911/dongfeng-minitraktor-sub001/config"
	"github.com/TARS911/dongfeng-minitraktor-sub001/handlers"
	"github.com/TARS911/dongfeng-minitraktor-sub001/logger"
	"github.com/TARS911/dongfeng-minitraktor-sub001/metrics"
	"github.com/TARS911/dongfeng-minitraktor-sub001/notify"
	"github.com/TARS911/dongfeng-minitraktor-sub001/repository"
	"github.com/TARS911/dongfeng-minitraktor-sub001/services"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err = logger.Init(cfg.Log); err != nil {
		return err
	}
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.DSN(), cfg.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	defer db.Close()
	if err = repository.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		return err
	}
	slog.Info("db connected", "driver", cfg.Database.Driver)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	uR, err := repository.NewUserRepository(db)
	if err != nil {
		return err
	}
	sR, err := repository.NewSessionRepository(ctx, rdb, cfg.Session.TTL)
	if err != nil {
		return err
	}
	slog.Info("redis connected", "addr", cfg.Redis.Addr())
	pR, _ := repository.NewProductRepository(db)
	cR, _ := repository.NewCategoryRepository(db)
	custR, _ := repository.NewCustomerRepository(db)
	oR, _ := repository.NewOrderRepository(db)
	lR, _ := repository.NewLeadRepository(db)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewServerMetrics(reg)

	dispatcher := notify.NewDispatcher(m, senders(cfg)...)
	// runs after srv.Shutdown so no handler can start a new delivery
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if !services.WaitNotifications(drainCtx) {
			slog.Warn("pending notifications abandoned on shutdown")
		}
		if err := dispatcher.Close(); err != nil {
			slog.Error("notification senders close", "err", err)
		}
	}()

	us := services.NewUserService(uR, sR)
	if created, err := us.EnsureAdmin(ctx, cfg.Admin.BootstrapUser, cfg.Admin.BootstrapPassword); err != nil {
		return err
	} else if created {
		slog.Info("bootstrap admin created", "user", cfg.Admin.BootstrapUser)
	}

	hp := handlers.HandlerParams{
		UsrService:  us,
		PrdService:  services.NewProductService(pR, cR),
		CatsService: services.NewCategoryService(cR),
		OrdService:  services.NewOrderService(custR, oR, dispatcher, m),
		ImpService:  services.NewImportService(cR, pR, bitrix.NewClient(cfg.Bitrix.Timeout), cfg.Import.MaxBatch, m),
		LeadService: services.NewLeadService(lR, dispatcher),

		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	}
	router := handlers.NewRouter(handlers.NewHandler(hp), handlers.RouterParams{
		Metrics:        m,
		Limiter:        handlers.NewRedisRateLimiter(rdb),
		FormsPerMinute: cfg.Contact.RateLimit,
		TrustProxy:     cfg.HTTP.TrustProxy,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server...", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// senders returns the notification channels that have credentials configured.
func senders(cfg *config.Config) []notify.Sender {
	var out []notify.Sender
	if cfg.Telegram.Enabled() {
		out = append(out, notify.NewTelegramSender(cfg.Telegram, 10*time.Second))
	} else {
		slog.Warn("telegram notifications disabled: TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set")
	}
	if cfg.Email.Enabled() {
		out = append(out, notify.NewEmailSender(cfg.Email))
	} else {
		slog.Warn("email notifications disabled: EMAIL_HOST, EMAIL_USER or EMAIL_PASSWORD not set")
	}
	if cfg.Kafka.Enabled() {
		out = append(out, notify.NewKafkaSender(cfg.Kafka))
	} else {
		slog.Info("kafka events disabled: KAFKA_BROKERS not set")
	}
	return out
}
