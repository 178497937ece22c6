package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackit/stackit/config"
	"github.com/stackit/stackit/controllers"
	"github.com/stackit/stackit/middleware"
	"github.com/stackit/stackit/models"
	"github.com/stackit/stackit/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())

	// Access log to its own rolling file via zap
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Static("/static", "./static")
	r.GET("/", func(c *gin.Context) {
		c.File("./static/index.html")
	})

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	questionController := controllers.NewQuestionController(db)
	answerController := controllers.NewAnswerController(db)
	voteController := controllers.NewVoteController(db)
	userController := controllers.NewUserController(db)
	notificationController := controllers.NewNotificationController(db)

	authGroup := r.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/signup", authController.Signup)
	authGroup.POST("/login", authController.Login)

	questionGroup := r.Group("/question")
	questionGroup.GET("/getQuestions", questionController.List)
	questionGroup.GET("/getQuestions/trending", questionController.Trending)
	questionGroup.GET("/getQuestions/unanswered", questionController.Unanswered)
	questionGroup.GET("/getQuestions/tag/:tag", questionController.ByTag)
	questionGroup.GET("/search", questionController.Search)
	questionGroup.GET("/getQuestions/:id", middleware.AuthRequired(), questionController.GetByID)
	questionGroup.GET("/my-questions/:userId", middleware.AuthRequired(), questionController.ByUser)
	questionGroup.GET("/admin/getQuestions", middleware.AuthRequired(), middleware.RequireRoles(models.RoleAdmin), questionController.AdminList)
	questionGroup.POST("/askQuestion", middleware.AuthRequired(), middleware.RequireRoles(models.RoleUser, models.RoleAdmin), questionController.Ask)
	questionGroup.PUT("/:id", middleware.AuthRequired(), questionController.Update)
	questionGroup.DELETE("/:id", middleware.AuthRequired(), questionController.Delete)

	answerGroup := r.Group("/ans")
	answerGroup.POST("/create", middleware.AuthRequired(), middleware.RequireRoles(models.RoleUser, models.RoleAdmin), answerController.Create)
	answerGroup.DELETE("/:id", middleware.AuthRequired(), answerController.Delete)
	answerGroup.GET("/admin/all", middleware.AuthRequired(), middleware.RequireRoles(models.RoleAdmin), answerController.AdminAll)

	r.POST("/vote/:answerId", middleware.AuthRequired(), voteController.Vote)

	userGroup := r.Group("/user")
	userGroup.GET("/me", middleware.AuthRequired(), userController.Me)
	userGroup.GET("/profile/:username", userController.Profile)
	userGroup.GET("/stats/:username", userController.Stats)

	r.GET("/notification", middleware.AuthRequired(), notificationController.List)

	r.NoRoute(func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		for _, prefix := range []string{"/auth/", "/question/", "/ans/", "/vote/", "/user/", "/notification"} {
			if strings.HasPrefix(path, prefix) {
				utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
				return
			}
		}
		if strings.HasPrefix(path, "/static/") {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "static asset not found"})
			return
		}
		// Client-side routes (e.g. /questions/4, /profile/alice) fall back to the SPA entry
		ctx.Status(http.StatusOK)
		ctx.File("./static/index.html")
	})

	return r
}
