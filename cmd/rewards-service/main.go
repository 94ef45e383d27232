package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"redeemr/rewards-service/internal/auth"
	"redeemr/rewards-service/internal/bootstrap"
	"redeemr/rewards-service/internal/config"
	"redeemr/rewards-service/internal/httpapi"
	"redeemr/rewards-service/internal/jobs"
	"redeemr/rewards-service/internal/logging"
	"redeemr/rewards-service/internal/notify"
	"redeemr/rewards-service/internal/service"
	"redeemr/rewards-service/internal/telemetry"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "rewards-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "json").WithError(err).Fatal("config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	shutdownTelemetry := telemetry.Setup(serviceName, cfg.OTLPEndpoint, cfg.OTLPInsecure, logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := bootstrap.OpenStore(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		logger.WithError(err).Fatal("open store")
	}
	defer st.Close()

	svc := service.New(st, service.Options{
		Hasher:        auth.NewHasher(cfg.BcryptCost),
		Issuer:        auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Notifier:      notify.NewProvider(cfg.ResetNotifier, cfg.ResetNotifierToken, logger),
		ResetTokenTTL: cfg.ResetTokenTTL,
		Logger:        logger,
	})

	scheduler, err := jobs.NewScheduler(st, cfg.PurgeSchedule, logger.WithField("component", "jobs"))
	if err != nil {
		logger.WithError(err).Fatal("invalid PURGE_SCHEDULE")
	}
	scheduler.Start()

	handler := httpapi.NewHandler(svc, logger.WithField("component", "http"), httpapi.Config{
		RateLimit: httpapi.RateLimitConfig{
			IPPerMinute:       cfg.RateLimitPerMinute,
			IPBurst:           cfg.RateLimitBurst,
			AccountPerMinute:  cfg.AccountRateLimitPerMinute,
			AccountBurst:      cfg.AccountRateLimitBurst,
			TrustForwardedFor: cfg.TrustProxyHeaders,
		},
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(handler.Routes(), serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("rewards-service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("shutdown error")
	}
	scheduler.Stop(ctx)
}
