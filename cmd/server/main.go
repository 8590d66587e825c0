package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/restroom-map/internal/api"
	"github.com/jengzang/restroom-map/internal/config"
	"github.com/jengzang/restroom-map/internal/handler"
	"github.com/jengzang/restroom-map/internal/logger"
	"github.com/jengzang/restroom-map/internal/mapview"
	"github.com/jengzang/restroom-map/internal/middleware"
	"github.com/jengzang/restroom-map/internal/models"
	"github.com/jengzang/restroom-map/internal/service"
	"github.com/jengzang/restroom-map/internal/session"
	"github.com/jengzang/restroom-map/internal/spatial"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, cleanup, err := logger.New(cfg.LogLevel, cfg.LogTimeFormat)
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer cleanup()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	db, repo, err := openStore(context.Background(), cfg.SeedPath, cfg.DBPath, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if n, err := repo.Count(context.Background()); err == nil {
		log.Info("Point store ready", zap.Int64("rows", n))
	}

	bucketing := spatial.ParseBucketing(cfg.GridBucketing)
	clusterer := spatial.NewGridClusterer(cfg.GridSize, bucketing)

	registry := session.NewRegistry(repo, mapview.Options{
		CellSize:      cfg.GridSize,
		Bucketing:     bucketing,
		ZoomThreshold: cfg.ZoomThreshold,
		Workers:       cfg.Workers,
	}, session.Limits{
		MaxSessions: cfg.MaxSessions,
		IdleTimeout: cfg.SessionIdleTimeout,
	}, log)
	defer registry.Close()

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer limiter.Stop()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(api.Handlers{
		Points:   handler.NewPointHandler(service.NewPointService(repo, log)),
		Clusters: handler.NewClusterHandler(service.NewClusterService(repo, clusterer, cfg.ZoomThreshold, log)),
		Sessions: handler.NewSessionHandler(registry,
			models.LatLng{Lat: cfg.DefaultCenterLat, Lng: cfg.DefaultCenterLng},
			cfg.ZoomThreshold,
		),
	}, limiter, log)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
