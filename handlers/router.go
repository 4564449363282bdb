package handlers

import (
	"net/http"

	"turn2law-backend/config"
	"turn2law-backend/metrics"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the HTTP routes. m may be nil, in which case /metrics is not served.
// datasetHandler may be nil when no dataset storage is configured.
func NewRouter(lawyerHandler *LawyerHandler, datasetHandler *DatasetHandler, rl config.RateLimitConfig, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())
	if m != nil {
		r.Use(m.Middleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		lawyers := api.Group("/lawyers")
		lawyers.POST("/recommend", RateLimit(rl, m), lawyerHandler.Recommend)
		lawyers.GET("/list", lawyerHandler.List)

		if datasetHandler != nil {
			api.POST("/datasets", datasetHandler.Upload)
			api.GET("/datasets/*key", datasetHandler.Download)
		}
	}

	return r
}
