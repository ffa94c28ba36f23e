package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"robokassa"
	"robokassa/config"
	"robokassa/internal/db"
	"robokassa/internal/logger"
	"robokassa/internal/middleware"
	"robokassa/payment"
	"robokassa/payment/webhook"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.L().Fatal("failed to load config", zap.Error(err))
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo payment.Repository
	if cfg.DB.Enabled() {
		database, err := db.NewDatabase(&cfg.DB)
		if err != nil {
			log.Fatal("failed to open database", zap.Error(err))
		}
		defer database.Close()
		repo = payment.NewRepository(database)
	} else {
		log.Warn("DB_HOST not set, result callbacks are not deduplicated")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, limiter, err := newServer(cfg, repo, reg)
	if err != nil {
		log.Fatal("failed to build server", zap.Error(err))
	}
	go limiter.Cleanup(ctx, time.Minute)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Robokassa notification receiver running", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newServer(cfg *config.Config, repo payment.Repository, reg *prometheus.Registry) (*http.Server, *middleware.Limiter, error) {
	client, err := robokassa.NewFromConfig(cfg, reg)
	if err != nil {
		return nil, nil, err
	}

	h := webhook.NewWebhookHandler(client.Verifier(), newSettler(client, cfg.Robokassa.IsTest), repo, webhook.Config{
		Prefix:          cfg.Robokassa.Prefix,
		SuccessRedirect: cfg.Callback.SuccessRedirect,
		FailRedirect:    cfg.Callback.FailRedirect,
	})
	limiter := middleware.NewLimiter(cfg.Callback.RateLimit, cfg.Callback.Burst)

	return &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           setupRouter(h, limiter, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}, limiter, nil
}

func setupRouter(h *webhook.Handler, limiter *middleware.Limiter, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mux.Handle("/robokassa/result", limiter.Middleware(http.HandlerFunc(h.ResultHandler)))
	mux.Handle("/robokassa/success", limiter.Middleware(http.HandlerFunc(h.SuccessHandler)))
	mux.Handle("/robokassa/fail", limiter.Middleware(http.HandlerFunc(h.FailHandler)))

	return logger.RequestIDMiddleware(logger.LoggingMiddleware(mux))
}
