package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/finbridge/lps-adaptor/internal/handlers"
	"github.com/finbridge/lps-adaptor/internal/service"
	"github.com/finbridge/lps-adaptor/internal/telemetry"
)

func NewRouter(workflow *service.Workflow) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "lps-adaptor"})
	})

	// Scheme callback routes
	cb := handlers.NewCallbackHandler(workflow)
	r.PUT("/parties/:idType/:idValue", cb.PutParties)
	r.PUT("/transactionRequests/:id", cb.PutTransactionRequests)
	r.PUT("/transactionRequests/:id/error", cb.PutTransactionRequestsError)
	r.POST("/quotes", cb.PostQuotes)
	r.PUT("/quotes/:id", cb.PutQuotes)
	r.PUT("/quotes/:id/error", cb.PutQuotesError)
	r.GET("/authorizations/:id", cb.GetAuthorizations)
	r.POST("/transfers", cb.PostTransfers)
	r.PUT("/transfers/:id", cb.PutTransfers)
	r.PUT("/transfers/:id/error", cb.PutTransfersError)

	return r
}
