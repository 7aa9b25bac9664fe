package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/servicepack/restock-backend/internal/api"
	"github.com/servicepack/restock-backend/internal/api/handlers"
	"github.com/servicepack/restock-backend/internal/cache"
	"github.com/servicepack/restock-backend/internal/config"
	"github.com/servicepack/restock-backend/internal/recommend"
	"github.com/servicepack/restock-backend/internal/repository/postgres"
	"github.com/servicepack/restock-backend/internal/service"
	"github.com/servicepack/restock-backend/internal/storage"
	"github.com/servicepack/restock-backend/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.InitSchema(context.Background()); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize database schema")
	}

	store := postgres.NewStore(db)
	svc := service.NewRestockService(store, cfg.App.RecentWindow, cfg.App.TotalWindow)

	reports, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		// Caching is an accelerator; the server still works without it.
		logger.Log.Warn().Err(err).Msg("Report cache unavailable, continuing without it")
		reports = nil
	}

	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		minioClient, err := storage.NewMinioClient(cfg.Archive)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Upload archive unavailable, continuing without it")
		} else {
			archive = minioClient
		}
	}

	handler := handlers.NewRestockHandler(svc, reports, archive, recommend.Coefficients{
		Recent: cfg.App.CoefRecent,
		Total:  cfg.App.CoefTotal,
	})
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
