package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pixeltrack/api/middleware"
)

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(pixelHandlers *PixelHandlers, analyticsHandlers *AnalyticsHandlers, jwtSecret []byte, frontendOrigin string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORSMiddleware(frontendOrigin))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/pixels", pixelHandlers.RegisterPixel)
		api.POST("/pixels/token", pixelHandlers.IssueToken)

		protected := api.Group("/")
		protected.Use(middleware.AuthRequired(jwtSecret))
		{
			protected.GET("/pixels/:pixelId", pixelHandlers.GetConfiguration)
			protected.PATCH("/pixels/:pixelId", pixelHandlers.UpdateConfiguration)
			protected.POST("/track", analyticsHandlers.TrackEvent)

			statsGroup := protected.Group("/stats")
			{
				statsGroup.GET("/summary", analyticsHandlers.GetSummary)
				statsGroup.GET("/event-counts", analyticsHandlers.GetEventCountsOverTime)
				statsGroup.GET("/revenue", analyticsHandlers.GetRevenue)
				statsGroup.GET("/top-contents", analyticsHandlers.GetTopContentIDs)
				statsGroup.GET("/top-routes", analyticsHandlers.GetTopFlightRoutes)
			}
		}
	}

	return r
}
