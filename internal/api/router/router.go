package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"village-sports/backend/config"
	"village-sports/backend/internal/api/handler"
	"village-sports/backend/internal/api/middleware"
	"village-sports/backend/pkg/jwt"
	"village-sports/backend/pkg/metrics"
	"village-sports/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// revoked 为 nil 时不检查 Token 黑名单；rdb 为 nil 时限流退化为进程内实现
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	revoked middleware.RevocationChecker,
	actors middleware.ActorLoader,
	rdb *redis.Client,
	m *metrics.Metrics,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	if m != nil {
		r.Use(m.Middleware())
	}

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if m != nil {
		r.GET("/metrics", m.Handler())
	}

	// 写接口限流
	limit := middleware.RateLimit(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", limit, h.Auth.Login)
			auth.POST("/refresh", limit, h.Auth.RefreshToken)
		}
		v1.POST("/users/register", limit, h.User.Register)

		// 日历订阅供第三方日历客户端拉取，无需认证
		v1.GET("/events/calendar.ics", h.Event.Calendar)

		// 需要认证的路由，角色与状态检查统一在 Service 层经由 policy 完成
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, revoked, actors))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("/me", h.User.GetCurrentUser)
				users.GET("", h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)
				users.PUT("/:id/status", h.User.UpdateStatus)
				users.DELETE("/:id", h.User.DeleteUser)
			}

			// 物资模块
			materials := authorized.Group("/materials")
			{
				materials.GET("", h.Material.ListMaterials)
				materials.POST("/donate", limit, h.Material.Donate)
				materials.GET("/:id", h.Material.GetMaterial)
				materials.GET("/:id/records", h.Material.ListRecords)
				materials.POST("/:id/borrow", limit, h.Material.Borrow)
				materials.POST("/:id/return", h.Material.Return)
				materials.PUT("/:id/status", h.Material.UpdateStatus)
				materials.DELETE("/:id", h.Material.DeleteMaterial)
			}

			// 赛事模块
			events := authorized.Group("/events")
			{
				events.GET("", h.Event.ListEvents)
				events.GET("/recommended", h.Event.ListRecommended)
				events.POST("", limit, h.Event.CreateEvent)
				events.GET("/:id", h.Event.GetEvent)
				events.PUT("/:id", h.Event.UpdateEvent)
				events.PUT("/:id/status", h.Event.AdvanceStatus)
				events.DELETE("/:id", h.Event.DeleteEvent)
				events.POST("/:id/register", limit, h.Event.Register)
				events.GET("/:id/registrations", h.Event.ListRegistrations)
				events.GET("/:id/registrations/export", h.Event.ExportRegistrations)
				events.POST("/:id/recount", h.Event.RecountParticipants)
			}

			// 社区互动模块
			interactions := authorized.Group("/interactions")
			{
				interactions.GET("", h.Interaction.ListInteractions)
				interactions.POST("", limit, h.Interaction.CreateInteraction)
				interactions.PUT("/:id", h.Interaction.EditInteraction)
				interactions.DELETE("/:id", h.Interaction.DeleteInteraction)
				interactions.POST("/:id/reply", h.Interaction.Reply)
			}

			// 统计模块
			stats := authorized.Group("/stats")
			{
				stats.GET("/participation", h.Stats.Participation)
				stats.GET("/overview", h.Stats.Overview)
			}
		}
	}

	return r
}
