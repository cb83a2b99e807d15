package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"waras/internal/sales"
)

// InitRoutes registers the sales endpoints on the given Gin engine, with
// zap request logging and panic recovery. gatherer backs /metrics; nil
// uses the default prometheus registry.
func InitRoutes(e *gin.Engine, salesService *sales.Service, logger *zap.Logger, gatherer prometheus.Gatherer) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	e.Use(recovery(logger), requestLogger(logger))

	salesHandler := NewSalesHandler(salesService, logger)

	e.POST("/transcripts", salesHandler.handleProcessTranscript)
	e.POST("/transcripts/extract", salesHandler.handleExtract)

	e.POST("/sales", salesHandler.handleCreateSale)
	e.GET("/sales", salesHandler.handleGetSales)
	e.GET("/sales/:id", salesHandler.handleGetSale)
	e.DELETE("/sales", salesHandler.handleClearSales)

	e.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
