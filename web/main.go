package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devilmonastery/processo/internal/client"
	"github.com/devilmonastery/processo/internal/pkg/logger"
	"github.com/devilmonastery/processo/web/internal/config"
	"github.com/devilmonastery/processo/web/internal/handlers"
	"github.com/devilmonastery/processo/web/internal/middleware"
	"github.com/devilmonastery/processo/web/internal/proxy"
	"github.com/devilmonastery/processo/web/internal/render"
	"github.com/devilmonastery/processo/web/internal/session"
)

const shutdownTimeout = 10 * time.Second

// setupWebLogging configures the global logger for the web service
func setupWebLogging(logLevel, logFormat string) error {
	cfg := logger.Config{
		Level:       logger.ParseLevel(logLevel),
		LogToStderr: true,
		Format:      logFormat,
	}

	globalLogger, err := logger.SetupLogger(cfg)
	if err != nil {
		return err
	}

	// Set as default logger so all slog.Info/Warn/Error calls use our configured logger
	slog.SetDefault(globalLogger)

	return nil
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging (must be done before any logging calls)
	if err = setupWebLogging(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to setup logging: %v\n", err)
		os.Exit(1)
	}

	log := slog.Default().With("component", "web")
	log.Info("starting processo web service",
		slog.String("environment", cfg.Environment),
		slog.String("api", cfg.API.BaseURL))

	if err := run(cfg, log); err != nil {
		log.Error("web service failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.WebServerConfig, log *slog.Logger) error {
	templates, err := render.LoadTemplates(cfg.Templates.Path)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	render.LogTemplateNames(log, templates)

	secret, source, err := sessionSecret(cfg.Session.Secret)
	if err != nil {
		return err
	}
	log.Info("using session secret", slog.String("source", source))
	sessionMgr := session.NewManager(secret, cfg.IsProduction())

	verifier := session.NewVerifier(cfg.Session.VerifyKey, cfg.Session.Issuer, cfg.Session.Audience)
	if verifier == nil {
		log.Warn("session.verify_key not set, token signatures are not checked locally")
	}

	apiClient, err := client.NewClient(cfg.API.BaseURL, nil,
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(log.With(slog.String("component", "api_client"))))
	if err != nil {
		return err
	}

	h := handlers.New(apiClient, sessionMgr, templates, cfg.Analytics.MeasurementID, log)
	p := proxy.NewHandler(apiClient, sessionMgr, verifier, log)
	gate := middleware.NewGate(middleware.DefaultRules(), sessionMgr, log)

	router := createRouter(h, p, gate, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.MetricsPort()),
		Handler:           metricsMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("metrics listening", slog.String("address", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()
	go func() {
		log.Info("http listening", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutting down", slog.String("signal", sig.String()))
	case err := <-errCh:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("error during shutdown", slog.String("error", err.Error()))
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		log.Error("error during metrics shutdown", slog.String("error", err.Error()))
	}
	log.Info("web service stopped")
	return nil
}

// sessionSecret decodes the configured secret (base64, falling back to the
// raw string). Without one a random key is generated and flash messages do
// not survive a restart.
func sessionSecret(configured string) ([]byte, string, error) {
	if configured != "" {
		if decoded, err := base64.StdEncoding.DecodeString(configured); err == nil && len(decoded) >= 16 {
			return decoded, "config (base64)", nil
		}
		return []byte(configured), "config", nil
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return secret, "random (temporary)", nil
}

func metricsMux() http.Handler {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())
	return m
}

// createRouter sets up the HTTP router with all routes and middleware
func createRouter(h *handlers.Handler, p *proxy.Handler, gate *middleware.Gate, log *slog.Logger) http.Handler {
	router := mux.NewRouter()
	router.Use(
		middleware.TagRoute,
		middleware.AttachViewer(h.FetchViewer),
	)

	staticDir := http.Dir("web/static")
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		http.FileServer(staticDir).ServeHTTP(w, r)
	})))

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	p.Register(router, proxy.Routes())
	h.Register(router)

	// Recovery, logging and the gate wrap the whole router so requests
	// that match no route (404/405) are gated and logged too.
	return middleware.Recovery(log)(middleware.Logging(log)(gate.Handler(router)))
}
