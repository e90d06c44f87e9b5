package api

import (
	"Birdfeed/internal/api/middleware"
	"Birdfeed/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		feedGroup := apiGroup.Group("/feed")
		{
			feedGroup.GET("/selected", group.FeedHandler.GetSelected)
			feedGroup.GET("/generation/:name", group.FeedHandler.GetGeneration)
		}

		adminGroup := apiGroup.Group("/admin")
		{
			adminGroup.POST("/ingest/run", group.AdminHandler.RunIngest)
			adminGroup.GET("/ingest/status", group.AdminHandler.IngestStatus)
			adminGroup.POST("/entities/reconcile", group.AdminHandler.ReconcileEntities)
			adminGroup.POST("/links/repair", group.AdminHandler.RepairLinks)
			adminGroup.GET("/ratelimits", group.AdminHandler.ListRateLimits)
			adminGroup.POST("/tweet", group.AdminHandler.PublishTweet)
		}
	}

	return r
}
