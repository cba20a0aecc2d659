package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"protexwear-api/internal/api"
	"protexwear-api/internal/config"
	"protexwear-api/internal/db"
	"protexwear-api/internal/logger"
	"protexwear-api/internal/metrics"
	"protexwear-api/internal/middleware"
	"protexwear-api/internal/order"
	"protexwear-api/internal/payment"
	"protexwear-api/internal/payment/webhook"
	"protexwear-api/internal/product"
	"protexwear-api/internal/shipping"

	"go.uber.org/zap"
)

const (
	serviceName     = "protexwear-api"
	shutdownTimeout = 10 * time.Second
)

var (
	initDBFunc      = db.NewDatabase
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.IsProduction() && (cfg.StripeSecretKey == "" || cfg.JWTSecret == "") {
		return errors.New("STRIPE_SECRET_KEY and JWT_SECRET are required in production")
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database, err := initDBFunc(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := newIdempotencyStore(cfg, database)
	defer closeStore()

	router := newServer(ctx, cfg, database, store)

	addr := ":" + cfg.AppPort
	logger.L().Info("server listening", zap.String("addr", addr))
	return startServerFunc(ctx, addr, router)
}

// newIdempotencyStore prefers Redis when configured and falls back to the
// payment_webhooks table.
func newIdempotencyStore(cfg *config.Config, database *sql.DB) (payment.IdempotencyStore, func()) {
	if cfg.RedisAddr == "" {
		return payment.NewRepository(database), func() {}
	}

	client := payment.NewRedisClient(cfg.RedisAddr)
	logger.L().Info("webhook dedupe backed by redis", zap.String("addr", cfg.RedisAddr))
	return payment.NewRedisStore(client, serviceName), func() {
		if err := client.Close(); err != nil {
			logger.L().Warn("failed to close redis client", zap.Error(err))
		}
	}
}

func newServer(ctx context.Context, cfg *config.Config, database *sql.DB, store payment.IdempotencyStore) http.Handler {
	productRepo := product.NewRepository(database)
	productSvc := product.NewService(productRepo)

	engine := shipping.NewEngine()
	gateway := payment.NewStripeGateway(
		cfg.StripeSecretKey,
		cfg.StripeAPIBase,
		cfg.CheckoutSuccessURL,
		cfg.CheckoutCancelURL,
	)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, productSvc, engine, gateway)

	webhookMetrics := &metrics.Webhook{}
	webhookHandler := webhook.NewWebhookHandler(orderSvc, gateway, store, cfg.StripeWebhookSecret, webhookMetrics)

	limiter := middleware.NewRateLimiter(cfg.InternalSecretKey)
	go limiter.Run(ctx)

	h := api.NewHandler(orderSvc, engine, webhookHandler, webhookMetrics)
	return api.NewRouter(h, middleware.NewAuthenticator(cfg.JWTSecret), limiter)
}

func startServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
