package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/navia-app/navia/config"
	"github.com/navia-app/navia/controllers"
	"github.com/navia-app/navia/middleware"
	"github.com/navia-app/navia/services"
	"github.com/navia-app/navia/utils"
)

// Deps is everything the HTTP layer needs. main builds one per process.
type Deps struct {
	Config         config.AppConfig
	Users          *services.UserService
	Practice       *services.PracticeService
	Leaderboard    *services.LeaderboardService
	Social         *services.SocialService
	Applications   *services.ApplicationService
	Questionnaires *services.QuestionnaireService
	Problems       *services.ProblemService
	OAuth          *services.OAuthProviders
	JWT            *utils.JWTManager
	Blacklist      *utils.TokenBlacklist
	States         *utils.StateStore
}

// NewDeps builds the services on top of db. rc may be nil.
func NewDeps(cfg config.AppConfig, db *gorm.DB, rc *redis.Client) *Deps {
	practice := services.NewPracticeService(db, cfg.Location())
	return &Deps{
		Config:         cfg,
		Users:          services.NewUserService(db),
		Practice:       practice,
		Leaderboard:    services.NewLeaderboardService(db, practice, utils.NewCache(rc), cfg.Practice.LeaderboardTTL),
		Social:         services.NewSocialService(db),
		Applications:   services.NewApplicationService(db),
		Questionnaires: services.NewQuestionnaireService(db),
		Problems:       services.NewProblemService(db),
		OAuth:          services.NewOAuthProviders(cfg.OAuth),
		JWT:            utils.NewJWTManager(cfg.App.JWTSecret, cfg.App.TokenTTL),
		Blacklist:      utils.NewTokenBlacklist(rc),
		States:         utils.NewStateStore(rc),
	}
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d *Deps) *gin.Engine {
	cfg := d.Config
	switch strings.ToLower(cfg.App.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// request log goes to its own rolling file, not the console
	if cfg.App.GinLogPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.App.GinLogPath, cfg.Log)
		if err == nil {
			r.Use(ginzap.Ginzap(gl, time.RFC3339, true))
			r.Use(ginzap.RecoveryWithZap(gl, true))
		} else {
			utils.Sugar.Warnf("gin logger disabled: %v", err)
			r.Use(gin.Recovery())
		}
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.App.AllowedOrigins) == 0 || (len(cfg.App.AllowedOrigins) == 1 && cfg.App.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.App.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(d.Users, d.JWT, d.Blacklist, d.States, d.OAuth)
	userController := controllers.NewUserController(d.Users, d.Social, authController)
	practiceController := controllers.NewPracticeController(d.Practice, d.Users, d.Leaderboard, cfg.Practice.HistoryLimit)
	leaderboardController := controllers.NewLeaderboardController(d.Leaderboard)
	friendshipController := controllers.NewFriendshipController(d.Social)
	applicationController := controllers.NewApplicationController(d.Applications)
	questionnaireController := controllers.NewQuestionnaireController(d.Questionnaires)
	problemController := controllers.NewProblemController(d.Problems)

	authRequired := middleware.AuthRequired(d.JWT, d.Blacklist)
	limiter := middleware.RateLimitMiddleware(cfg.App.RateLimitPerMinute)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(limiter)
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", authRequired, authController.Logout)
	authGroup.GET("/me", authRequired, authController.Me)
	authGroup.PATCH("/profile", authRequired, authController.UpdateProfile)

	protected := api.Group("")
	protected.Use(authRequired, limiter)

	protected.GET("/users/search", friendshipController.Search)
	protected.GET("/users/:id", userController.GetPublic)
	protected.DELETE("/users/me", userController.DeleteMe)

	practice := protected.Group("/daily-practice/:user_id")
	practice.POST("/goal", practiceController.UpdateGoal)
	practice.POST("/answers", practiceController.AddAnswers)
	practice.POST("/score", practiceController.AddScore)
	practice.GET("/goal", practiceController.GetGoal)
	practice.GET("/today", practiceController.Today)
	practice.GET("/streak", practiceController.Streak)
	practice.GET("/history", practiceController.History)
	practice.GET("/export", practiceController.Export)
	practice.GET("/:date", practiceController.ByDate)

	protected.GET("/leaderboards/streaks", leaderboardController.Streaks)
	protected.GET("/leaderboards/points", leaderboardController.Points)

	protected.POST("/friendship", friendshipController.Follow)
	protected.DELETE("/friendship/:following_id", friendshipController.Unfollow)
	protected.GET("/friendship/:user_id/followers", friendshipController.Followers)
	protected.GET("/friendship/:user_id/following", friendshipController.Following)
	protected.GET("/friendship/:user_id/following/:other_id", friendshipController.IsFollowing)

	protected.POST("/jobs", applicationController.Create)
	protected.GET("/jobs", applicationController.List)
	protected.GET("/jobs/export", applicationController.Export)
	protected.GET("/jobs/:id", applicationController.Get)
	protected.PATCH("/jobs/:id", applicationController.Update)
	protected.DELETE("/jobs/:id", applicationController.Delete)

	protected.PUT("/questionnaire", questionnaireController.Save)
	protected.DELETE("/questionnaire", questionnaireController.Delete)
	protected.GET("/questionnaire/:user_id", questionnaireController.Get)

	protected.GET("/blind75/random", problemController.Random)
	protected.POST("/blind75/wrong", problemController.RecordWrong)
	protected.GET("/blind75/wrong", problemController.ListWrong)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	})

	return r
}
