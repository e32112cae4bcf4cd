package router

import (
	"net/http"
	"time"

	"streaksync/internal/config"
	"streaksync/internal/handlers"
	"streaksync/internal/middleware"
	"streaksync/internal/realtime"
	"streaksync/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	Hub        *realtime.Hub
	Profiles   *services.ProfileService
	Goals      *services.GoalService
	Feed       *services.FeedService
	Challenges *services.ChallengeService
	LLM        *services.LLMService
}

// New builds the engine with the global middleware chain and all routes.
func New(d Deps) *gin.Engine {
	cfg := d.Config
	middleware.RegisterMetrics()

	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("streaksync_session", store))
	r.Use(middleware.LoadUser(d.Profiles, cfg.JWTSecret))

	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config

	// Handlers
	authHandler := handlers.NewAuthHandler(d.Profiles,
		handlers.NewGoogleOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.SiteURL),
		cfg.SiteURL, cfg.JWTSecret, cfg.JWTExpiry)
	userHandler := handlers.NewUserHandler(d.Profiles)
	goalHandler := handlers.NewGoalHandler(d.Goals, d.Challenges)
	postHandler := handlers.NewPostHandler(d.Feed)
	challengeHandler := handlers.NewChallengeHandler(d.Challenges)
	aiHandler := handlers.NewAIHandler(d.LLM, d.Goals)
	realtimeHandler := handlers.NewRealtimeHandler(d.Hub, d.Goals, d.Feed, d.Challenges, d.Profiles, cfg.JWTSecret, cfg.CORSOrigins)

	// 公共路由 (Public Routes)
	r.GET("/health", health(d.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/auth/google/login", authHandler.GoogleLogin)       // 发起 Google 登录
	r.GET("/auth/google/callback", authHandler.GoogleCallback) // Google 回调
	r.POST("/auth/logout", authHandler.Logout)                 // 退出登录
	r.GET("/ws", realtimeHandler.Serve)                        // 实时订阅

	// 受保护路由 (Protected Routes)
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	{
		api.POST("/auth/token", authHandler.Token)

		api.GET("/me", userHandler.Me)
		api.GET("/me/stats", userHandler.Stats)
		api.GET("/me/report", userHandler.Report)
		api.GET("/me/xp", userHandler.XPLogs)
		api.GET("/users/search", userHandler.Search)
		api.GET("/users/by-category", userHandler.ByCategory)

		api.GET("/goals", goalHandler.List)
		api.POST("/goals", goalHandler.Create)
		api.PATCH("/goals/:id", goalHandler.Update)
		api.DELETE("/goals/:id", goalHandler.Delete)
		api.POST("/goals/:id/checkin", goalHandler.CheckIn) // 每日打卡
		api.POST("/goals/:id/share", goalHandler.Share)     // 分享为挑战

		api.GET("/feed", postHandler.Feed)
		api.POST("/posts", postHandler.Create)
		api.DELETE("/posts/:id", postHandler.Delete)
		api.POST("/posts/:id/like", postHandler.ToggleLike) // 点赞/取消点赞
		api.GET("/posts/:id/comments", postHandler.Comments)
		api.POST("/posts/:id/comments", postHandler.CreateComment)
		api.DELETE("/posts/:id/comments/:cid", postHandler.DeleteComment)

		api.GET("/challenges", challengeHandler.List)
		api.POST("/challenges", challengeHandler.Create)
		api.POST("/challenges/duel", challengeHandler.Duel)
		api.POST("/challenges/:id/join", challengeHandler.Join)
		api.POST("/challenges/:id/leave", challengeHandler.Leave)
		api.POST("/challenges/:id/complete", challengeHandler.Complete)
		api.DELETE("/challenges/:id", challengeHandler.Delete)

		api.POST("/ai/motivation", aiHandler.Motivation)
		api.POST("/ai/goal-details", aiHandler.GoalDetails)
		api.POST("/ai/community-name", aiHandler.CommunityName)
	}
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
