package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"waras/api"
	"waras/internal/blob"
	"waras/internal/config"
	"waras/internal/extraction"
	"waras/internal/sales"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := config.ValidateForProduction(cfg); err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(fmt.Errorf("error building logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("starting waras", zap.String("config", config.String(cfg)))
	if !cfg.ExtractionEnabled() {
		logger.Warn("OPENROUTER_API_KEY is not set; transcript extraction is disabled")
	}

	ctx := context.Background()
	blobs, err := blob.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open history storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	defer blobs.Close()

	extractor := extraction.NewClient(cfg, logger.Named("extraction"))
	defer extractor.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	salesStorage := sales.NewBlobStorage(blobs, cfg.HistoryKey, logger.Named("storage"))
	salesService := sales.NewService(
		salesStorage,
		extractor,
		sales.NewBuilder(cfg.AllowEmptyBatch),
		sales.NewMetrics(reg),
		logger.Named("sales"),
	)

	if cfg.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	api.InitRoutes(r, salesService, logger, reg)

	if err := r.Run(cfg.HTTPAddr); err != nil {
		panic(fmt.Errorf("error trying to start server: %v", err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Environment == config.EnvProduction {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level
	return zcfg.Build()
}
