package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"offer-classifier/internal/app"
	"offer-classifier/internal/config"
	"offer-classifier/internal/handler"
	"offer-classifier/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to the YAML config")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := app.NewLogger(cfg.Log.Development)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Offer Classifier...")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.New(context.Background(), cfg, reg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	// Keep the lemmatizer loaded while the server runs
	if _, err := a.Pool.Acquire(); err != nil {
		logger.Fatal("Failed to load lemmatizer", zap.Error(err))
	}
	defer a.Pool.Release()

	// Scheduled relabel and retrain
	var scheduler *service.Scheduler
	if cfg.Labeling.Schedule != "" {
		scheduler = service.NewScheduler(a.Refresher, cfg.Labeling.Timeout, logger)
		if err := scheduler.Schedule(cfg.Labeling.Schedule); err != nil {
			logger.Fatal("Failed to schedule refresh", zap.Error(err))
		}
		scheduler.Start()
	}

	apiHandler := handler.NewHandler(a.Labels, a.Labeling, a.Refresher, a.Predictor, a.Artifacts, a.Builder, logger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	if cfg.Log.Development {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		c.Next()
		logger.Debug("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()))
	})

	apiHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Offer Classifier is running",
		zap.String("address", serverAddr),
		zap.Strings("models", a.Registry.Names()),
		zap.String("database", cfg.Database.Type),
		zap.String("artifacts", cfg.Artifacts.Backend))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Labeling.Wait()

	logger.Info("Server exited")
}
