package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fitpulse/backend/config"
	"fitpulse/backend/internal/api/handler"
	"fitpulse/backend/internal/api/middleware"
	"fitpulse/backend/pkg/jwt"
	"fitpulse/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证；登录/注册加限流防撞库）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Register)
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块（管理端）
			users := authorized.Group("/users", middleware.RoleAuth("admin"))
			{
				users.GET("", h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)
				users.PUT("/:id/tier", h.User.SetMembershipTier)
				users.PUT("/:id/role", h.User.SetRole)
				users.DELETE("/:id", h.User.DeleteUser)
			}

			// 模板模块（管理端）
			templates := authorized.Group("/templates", middleware.RoleAuth("admin"))
			{
				templates.GET("", h.Template.ListTemplates)
				templates.GET("/:id", h.Template.GetTemplate)
				templates.POST("", h.Template.CreateTemplate)
				templates.PUT("/:id", h.Template.UpdateTemplate)
				templates.DELETE("/:id", h.Template.DeleteTemplate)
				templates.POST("/:id/entries", h.Template.AddEntry)
			}
			entries := authorized.Group("/template-entries", middleware.RoleAuth("admin"))
			{
				entries.PUT("/:id", h.Template.UpdateEntry)
				entries.DELETE("/:id", h.Template.DeleteEntry)
			}

			// 生效区间 + 生成器（管理端）
			periods := authorized.Group("/periods", middleware.RoleAuth("admin"))
			{
				periods.GET("", h.Period.ListPeriods)
				periods.GET("/:id", h.Period.GetPeriod)
				periods.POST("", h.Period.CreatePeriod)
				periods.DELETE("/:id", h.Period.DeletePeriod)
				periods.POST("/:id/generate", h.Period.Regenerate)
				periods.POST("/cleanup-orphaned", h.Period.CleanupOrphaned)
			}

			// 课程实例模块（管理端）
			instances := authorized.Group("/instances", middleware.RoleAuth("admin"))
			{
				instances.GET("", h.Instance.ListInstances)
				instances.GET("/:id", h.Instance.GetInstance)
				instances.POST("", h.Instance.CreateInstance)
				instances.PUT("/:id", h.Instance.UpdateInstance)
				instances.PUT("/:id/cancel", h.Instance.CancelInstance)
			}

			// 客户端课表 + 预约
			authorized.GET("/schedule", h.Schedule.ListBookable)
			bookings := authorized.Group("/bookings")
			{
				bookings.POST("", h.Booking.CreateBooking)
				bookings.GET("/my", h.Booking.ListMyBookings)
				bookings.DELETE("/:id", h.Booking.CancelBooking)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/schedule", middleware.RoleAuth("admin"), h.Export.ExportSchedule)
				export.GET("/calendar", h.Export.ExportCalendar)
			}

			// 变更事件流（SSE）
			authorized.GET("/events/stream", h.Events.Stream)
		}
	}

	return r
}
