package app

import (
	"visa_interview_backend/docs"
	"visa_interview_backend/internal/config"
	"visa_interview_backend/internal/middleware"

	"visa_interview_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		interviews := authGroup.Group("/interviews")
		{
			interviews.POST("", c.interview.StartSession)
			interviews.GET("/:id", c.interview.GetSession)
			interviews.POST("/:id/begin", c.interview.Begin)
			interviews.POST("/:id/pause", c.interview.Pause)
			interviews.POST("/:id/resume", c.interview.Resume)
			interviews.POST("/:id/advance", c.interview.Advance)
			interviews.POST("/:id/complete", c.interview.Complete)
			interviews.POST("/:id/abandon", c.interview.Abandon)

			// WebSocket 实时通道，token 可通过 query 传递
			interviews.GET("/:id/stream", c.interview.Stream)
		}

		reports := authGroup.Group("/reports")
		{
			reports.GET("", c.interview.ListReports)
			reports.GET("/:id", c.interview.GetReport)
			reports.POST("/:id/recording", c.interview.UploadRecording)
		}

		analytics := authGroup.Group("/analytics")
		{
			analytics.GET("/dashboard", c.analytics.GetDashboard)
			analytics.GET("/history", c.analytics.GetHistory)
			analytics.GET("/achievements", c.analytics.GetAchievements)
		}
	}
}
