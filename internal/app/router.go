package app

import (
	"habit_tracker_backend/docs"
	"habit_tracker_backend/internal/config"
	"habit_tracker_backend/internal/middleware"
	"habit_tracker_backend/internal/util"
	"habit_tracker_backend/pkg/monitoring"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由
	a.registerPublicRoutes(router, c)

	// 2. 需要身份的路由，身份来源由 identity.provider 决定
	authGroup := router.Group("/api")
	authGroup.Use(middleware.IdentityMiddleware(s.identity))
	{
		a.registerHabitRoutes(authGroup, c, cfg)
	}

	// 3. 前端静态文件
	if cfg.Server.StaticDir != "" {
		router.NoRoute(serveFrontend(cfg.Server.StaticDir))
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.POST("/logout", c.auth.Logout)
		public.POST("/analytics/insights/preview", c.analytics.Preview)
	}
}

func (a *App) registerHabitRoutes(rg *gin.RouterGroup, c *controllers, cfg *config.Config) {
	rg.GET("/me", c.auth.Me)

	// 习惯记录
	rg.POST("/habits", c.habit.LogHabit)
	rg.GET("/habits/summary", c.habit.GetSummary)

	// 洞察
	rg.GET("/analytics/insights", c.analytics.GetInsights)

	// 上传
	maxUpload := cfg.Upload.MaxSizeMB << 20
	rg.POST("/upload", middleware.MaxBodySize(maxUpload), c.upload.Upload)
	rg.POST("/upload/manual", c.upload.AddManualEntry)
	rg.GET("/uploads", c.upload.ListUploads)

	// 邮件提醒
	rg.POST("/email/reminder", c.email.SendReminder)
	rg.POST("/email/test-reminder", c.email.SendTestReminder)
}

// serveFrontend 静态文件存在则直接返回，其余 GET 请求回退到 index.html
func serveFrontend(dir string) gin.HandlerFunc {
	index := filepath.Join(dir, "index.html")
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet || strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			util.NotFound(ctx)
			return
		}

		name := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+ctx.Request.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			ctx.File(name)
			return
		}
		ctx.File(index)
	}
}
