package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/kenneth/uid2-client-go/internal/adminapi"
	"github.com/kenneth/uid2-client-go/internal/audit"
	"github.com/kenneth/uid2-client-go/internal/config"
	"github.com/kenneth/uid2-client-go/internal/keystore"
	"github.com/kenneth/uid2-client-go/internal/metrics"
	"github.com/kenneth/uid2-client-go/internal/middleware"
	"github.com/kenneth/uid2-client-go/internal/telemetry"
	"github.com/kenneth/uid2-client-go/uid2"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("invalid log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.WithFields(logrus.Fields{
		"version": version,
		"commit":  commit,
		"scope":   cfg.Scope,
	}).Info("starting uid2 admin server")

	scope := uid2.ScopeUID2
	if cfg.Scope == "EUID" {
		scope = uid2.ScopeEUID
	}

	store := keystore.NewMemoryKeyStore(cfg.KeySource.MaxStale)
	keystore.StartFileRefresher(store, cfg.KeySource.Path, cfg.KeySource.RefreshInterval, logger)

	recorder := metrics.NewRecorder()
	recorder.StartSystemMetricsCollector(30 * time.Second)

	var auditLogger audit.Logger
	if cfg.Audit.Enabled {
		auditLogger = audit.NewLogger(cfg.Audit.MaxEvents, nil)
		logger.WithField("max_events", cfg.Audit.MaxEvents).Info("audit logging enabled")
	}

	if cfg.Tracing.Enabled {
		tp, err := telemetry.InitProvider(context.Background(), telemetry.ProviderConfig{
			ServiceName:    cfg.Tracing.ServiceName,
			ServiceVersion: cfg.Tracing.ServiceVersion,
			Exporter:       cfg.Tracing.Exporter,
			JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
			OtlpEndpoint:   cfg.Tracing.OtlpEndpoint,
			SamplingRatio:  cfg.Tracing.SamplingRatio,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to initialize tracing")
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.WithError(err).Warn("tracer provider shutdown failed")
			}
		}()
		logger.WithField("exporter", cfg.Tracing.Exporter).Info("tracing enabled")
	}

	decryptorOpts := []uid2.Option{
		uid2.WithLogger(logger),
		uid2.WithMetrics(recorder),
		uid2.WithTracing(cfg.Tracing.Enabled),
	}
	if auditLogger != nil {
		decryptorOpts = append(decryptorOpts, uid2.WithAuditLogger(auditLogger))
	}
	decryptor := uid2.NewDecryptor(scope, store, decryptorOpts...)

	reloader, err := config.NewConfigReloader(configPath, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to start config reloader")
	}
	reloader.SetOnReloadCallback(func(old, updated *config.Config) error {
		if level, err := logrus.ParseLevel(updated.LogLevel); err == nil {
			logger.SetLevel(level)
		}
		return nil
	})
	go reloader.Start()
	defer reloader.Stop()

	handler := adminapi.NewHandler(decryptor, logger)

	router := mux.NewRouter()
	router.Handle("/metrics", recorder.Handler()).Methods(http.MethodGet)
	handler.RegisterRoutes(router)

	var httpHandler http.Handler = router
	httpHandler = middleware.LoggingMiddleware(logger)(httpHandler)
	httpHandler = middleware.SecurityHeadersMiddleware()(httpHandler)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpHandler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	go func() {
		var err error
		if cfg.TLS.Enabled {
			logger.WithFields(logrus.Fields{
				"addr":      cfg.ListenAddr,
				"cert_file": cfg.TLS.CertFile,
				"key_file":  cfg.TLS.KeyFile,
			}).Info("starting https server")
			err = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			logger.WithField("addr", cfg.ListenAddr).Info("starting http server")
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	} else {
		logger.Info("server stopped gracefully")
	}
}
