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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"paybridge.app/app/internal/config"
	apphttp "paybridge.app/app/internal/http"
	"paybridge.app/app/internal/http/middleware"
	"paybridge.app/app/internal/mailer"
	"paybridge.app/app/internal/modules/payments"
	"paybridge.app/app/internal/storage"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := apphttp.Deps{
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AdminCredentials: middleware.AdminCredentials{
			Username:     cfg.Admin.Username,
			PasswordHash: cfg.Admin.PasswordHash,
		},
	}

	sim := payments.NewSimulator(cfg.Simulation.Delay)
	sim.SetLogger(logger)
	var receipts *payments.ReceiptNotifier

	if db := openDB(logger, cfg); db != nil {
		if gw := selectGateway(logger, cfg); gw != nil {
			receipts = payments.NewReceiptNotifier(mailer.FromConfig(cfg), cfg.Email.From, cfg.Email.FromName)
			receipts.SetLogger(logger)
			wirePayments(ctx, logger, cfg, db, gw, sim, receipts, &deps)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           apphttp.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr, "payments", deps.Store != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	sim.Shutdown()
	if receipts != nil {
		receipts.Close()
	}
}

func openDB(logger *slog.Logger, cfg *config.Config) *gorm.DB {
	if cfg.DB.DSN == "" {
		logger.Warn("DB_DSN not set; payment routes disabled")
		return nil
	}
	db, err := gorm.Open(mysql.Open(cfg.DB.DSN), &gorm.Config{})
	if err != nil {
		logger.Error("database unavailable; payment routes disabled", "err", err)
		return nil
	}
	return db
}

func selectGateway(logger *slog.Logger, cfg *config.Config) payments.Gateway {
	switch {
	case cfg.Gateway.Configured():
		c := payments.NewZenoPayClient(payments.ZenoPayConfig{
			BaseURL:     cfg.Gateway.BaseURL,
			APIKey:      cfg.Gateway.APIKey,
			CallbackURL: cfg.Gateway.CallbackURL,
			Timeout:     cfg.Gateway.Timeout,
		})
		c.SetLogger(logger)
		return c
	case cfg.Simulation.Active():
		logger.Warn("gateway credentials missing; using sandbox gateway for the test phone only")
		return payments.SandboxGateway{TestPhone: cfg.Simulation.TestPhone}
	default:
		logger.Warn("GATEWAY_API_KEY not set; payment routes disabled")
		return nil
	}
}

func wirePayments(ctx context.Context, logger *slog.Logger, cfg *config.Config, db *gorm.DB, gw payments.Gateway,
	sim *payments.Simulator, receipts *payments.ReceiptNotifier, deps *apphttp.Deps) {
	store := payments.NewGormStore(db)

	var verifier payments.Verifier = payments.NoopVerifier{}
	if cfg.Callback.SigningSecret != "" {
		verifier = payments.NewHMACVerifier(cfg.Callback.SigningSecret)
	} else {
		logger.Warn("CALLBACK_SIGNING_SECRET not set; callback signatures are not verified")
	}

	callbacks := payments.NewCallbackService(store, verifier)
	callbacks.SetLogger(logger)
	callbacks.SetNotifier(receipts)

	svc := payments.NewService(store, gw)
	svc.SetLogger(logger)
	if cfg.Simulation.Active() {
		svc.EnableSimulation(sim, cfg.Simulation.TestPhone, callbacks)
		logger.Info("simulated completion enabled", "delay", cfg.Simulation.Delay)
	}

	adm := payments.NewAdminService(store)
	adm.SetLogger(logger)
	adm.SetNotifier(receipts)

	deps.Store = store
	deps.Payments = svc
	deps.Callbacks = callbacks
	deps.Admin = adm

	st, err := storage.FromConfig(ctx, cfg)
	if err != nil {
		logger.Error("export storage unavailable", "err", err)
		return
	}
	deps.Exporter = payments.NewExporter(store, st.Storage)
	logger.Info("export storage ready", "driver", st.Driver)
}
