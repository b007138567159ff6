package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"samilabs.app/pulse/common/id"
	"samilabs.app/pulse/common/logger"
	"samilabs.app/pulse/common/otel"
	"samilabs.app/pulse/core/config"
	"samilabs.app/pulse/internal/http/middleware"
	httprouter "samilabs.app/pulse/internal/http/router"
	"samilabs.app/pulse/internal/service"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "pulse starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	aggregator, err := service.NewAggregator(cfg, nil)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build aggregation pipeline", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "aggregation pipeline ready",
		"adapters", cfg.Aggregation.AdapterOrder,
		"min_yield", cfg.Aggregation.MinYield)

	invoker, err := service.NewInvoker(cfg.AnalysisLLM)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create analysis invoker", "error", err)
		os.Exit(1)
	}
	if !cfg.AnalysisLLM.Enabled() {
		slog.WarnContext(ctx, "analysis llm not configured, questions will be answered with a failure turn")
	}

	services := service.NewServices(service.ServicesConfig{
		Aggregator: aggregator,
		Invoker:    invoker,
		WindowSize: cfg.Aggregation.WindowSize,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	writeTimeout := 2 * time.Minute
	if d := cfg.Aggregation.OverallDeadline; d > 0 {
		writeTimeout = d + 30*time.Second
	}

	router := setupRouter(cfg, services)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services)

	return router
}

const banner = `
██████╗ ██╗   ██╗██╗     ███████╗███████╗
██╔══██╗██║   ██║██║     ██╔════╝██╔════╝
██████╔╝██║   ██║██║     ███████╗█████╗  
██╔═══╝ ██║   ██║██║     ╚════██║██╔══╝  
██║     ╚██████╔╝███████╗███████║███████╗
╚═╝      ╚═════╝ ╚══════╝╚══════╝╚══════╝
`
