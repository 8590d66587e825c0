package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/restroom-map/internal/handler"
	"github.com/jengzang/restroom-map/internal/middleware"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by SetupRouter
type Handlers struct {
	Points   *handler.PointHandler
	Clusters *handler.ClusterHandler
	Sessions *handler.SessionHandler
}

// SetupRouter builds the gin engine with every API route mounted
func SetupRouter(h Handlers, limiter *middleware.RateLimiter, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(log))

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Restroom map API is running",
		})
	})

	api := r.Group("/api/v1")
	{
		points := api.Group("/points")
		{
			points.GET("", h.Points.GetPoints)
			points.GET("/:id", h.Points.GetPointByID)
			points.POST("", middleware.RateLimit(limiter), h.Points.CreatePoint)
		}

		api.GET("/clusters", h.Clusters.GetClusters)

		sessions := api.Group("/sessions")
		{
			sessions.POST("", middleware.RateLimit(limiter), h.Sessions.CreateSession)
			sessions.DELETE("/:id", h.Sessions.DeleteSession)
			sessions.POST("/:id/events", h.Sessions.PostEvent)
			sessions.GET("/:id/markers", h.Sessions.GetMarkers)
		}
	}

	return r
}
