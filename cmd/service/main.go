package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/agridesk/farm-advisory-gateway/internal/auth"
	"github.com/agridesk/farm-advisory-gateway/internal/config"
	"github.com/agridesk/farm-advisory-gateway/internal/genai"
	httphandler "github.com/agridesk/farm-advisory-gateway/internal/http"
	"github.com/agridesk/farm-advisory-gateway/internal/lifecycle"
	"github.com/agridesk/farm-advisory-gateway/internal/observability"
	"github.com/agridesk/farm-advisory-gateway/internal/service"
	"github.com/agridesk/farm-advisory-gateway/internal/weather"
)

func main() {
	_ = godotenv.Load()

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	weatherClient, err := weather.NewOpenWeatherClient(
		cfg.WeatherAPIKey,
		cfg.WeatherAPIURL,
		cfg.WeatherAPITimeout,
	)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	generator, err := genai.NewGeminiClient(
		cfg.GeminiAPIKey,
		cfg.GeminiAPIURL,
		cfg.GeminiModel,
		cfg.GeminiTemperature,
		cfg.GeminiMaxOutputTokens,
		cfg.GeminiTimeout,
	)
	if err != nil {
		logger.Fatal("gemini client", zap.Error(err))
	}

	advisoryService := service.NewAdvisoryService(weatherClient, generator, cfg.ParamMaxLength)
	handler := httphandler.NewHandler(advisoryService, logger)
	guard := auth.NewGuard(cfg.AdvisoryToken)
	if cfg.AdvisoryToken == "" {
		logger.Warn("no bearer token configured; advisory requests will fail with SERVER_MISCONFIGURED")
	}

	if len(cfg.TrackedCrops) > 0 {
		observability.SetTrackedCrops(cfg.TrackedCrops)
	}

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.HandleFunc("/mcp", handler.GetMCP).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())

	adviceRouter := router.PathPrefix("/get-farmer-advice").Subrouter()
	adviceRouter.Use(httphandler.AuthMiddleware(guard))
	adviceRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	adviceRouter.HandleFunc("", handler.GetFarmerAdvice).Methods("GET")

	if cfg.TestingMode {
		logger.Warn("Testing mode enabled; /test-auth endpoint exposed")
		testAuthRouter := router.PathPrefix("/test-auth").Subrouter()
		testAuthRouter.Use(httphandler.AuthMiddleware(guard))
		testAuthRouter.HandleFunc("", handler.GetTestAuth).Methods("GET")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
