package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/mediadesk/config"
	"github.com/cppla/mediadesk/controllers"
	"github.com/cppla/mediadesk/middleware"
	"github.com/cppla/mediadesk/models"
	"github.com/cppla/mediadesk/permissions"
	"github.com/cppla/mediadesk/repository"
	"github.com/cppla/mediadesk/services"
	"github.com/cppla/mediadesk/storage"
	"github.com/cppla/mediadesk/utils"
)

// Dependencies carries every client built at boot into the handlers.
type Dependencies struct {
	Config      config.AppConfig
	Stores      repository.Stores
	Assets      storage.AssetStore
	Verifier    utils.IdentityVerifier
	Revocations utils.Revocations
	URLs        storage.URLBuilder

	// AccessLog receives gin request and panic logs. Nil falls back to utils.Logger.
	AccessLog *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.App.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	accessLog := deps.AccessLog
	if accessLog == nil {
		accessLog = utils.Logger
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
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

	activity := services.NewActivityRecorder(deps.Stores.Activity)
	metrics := services.NewMetricsAggregator(deps.Assets, deps.Stores)
	authorizer := middleware.NewAuthorizer(deps.Verifier, deps.Stores.Roster, deps.Revocations)
	limiter := middleware.NewRateLimiter(cfg.App.RateLimitPerMinute)

	authController := controllers.NewAuthController(authorizer, deps.Revocations)
	adminController := controllers.NewAdminController(deps.Stores.Roster, activity)
	mediaController := controllers.NewMediaController(deps.Assets, deps.Stores.Media, activity, cfg.Media.MaxBodyMB)
	folderController := controllers.NewFolderController(deps.Assets, activity)
	ugcController := controllers.NewUgcController(deps.Assets, deps.Stores.Ugc, deps.Stores.Properties, activity, deps.URLs)
	dashboardController := controllers.NewDashboardController(metrics, activity)
	configController := controllers.NewConfigController(cfg.Media)

	api := r.Group("/api")
	rateLimit := middleware.RateLimitMiddleware(limiter)

	// Public routes are limited per client IP.
	public := api.Group("")
	public.Use(rateLimit)
	public.POST("/auth/verify", authController.Verify)
	public.GET("/config/uploads", configController.GetUploadLimits)

	// Authenticated routes are limited per uid.
	protected := api.Group("")
	protected.Use(middleware.Authenticate(authorizer), rateLimit)

	protected.GET("/auth/me", authController.Me)
	protected.POST("/auth/logout", authController.Logout)

	protected.GET("/admins/list", middleware.Require(permissions.ViewAdmins), adminController.List)
	protected.POST("/admins/update", middleware.Require(permissions.ManageAdmins), adminController.Update)
	protected.POST("/admins/create", middleware.Require(permissions.ManageAdmins), adminController.Create)
	protected.GET("/activity/log", middleware.Require(permissions.ViewAdmins), dashboardController.GetActivityLog)
	protected.GET("/dashboard", middleware.RequireRole(models.RoleAdmin), dashboardController.GetMetrics)

	protected.GET("/folders/list", middleware.Require(permissions.ViewMedia), folderController.List)
	protected.POST("/folders/create", middleware.Require(permissions.CreateFolder), folderController.Create)

	protected.GET("/media/list", middleware.Require(permissions.ViewMedia), mediaController.List)
	protected.POST("/media/upload", middleware.Require(permissions.Upload), mediaController.Upload)
	protected.POST("/media/delete", middleware.Require(permissions.Delete), mediaController.Delete)

	protected.GET("/ugc/list", ugcController.List)
	protected.GET("/ugc/properties", ugcController.Properties)
	protected.POST("/ugc/sign", middleware.Require(permissions.UgcUpload), ugcController.Sign)
	protected.POST("/ugc/confirm", middleware.Require(permissions.UgcUpload), ugcController.Confirm)
	protected.POST("/ugc/upload", middleware.Require(permissions.UgcUpload), ugcController.Upload)
	protected.POST("/ugc/update", middleware.Require(permissions.UgcUpdate), ugcController.Update)
	protected.POST("/ugc/delete", middleware.Require(permissions.UgcDelete), ugcController.Delete)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, "API route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, "Not found")
	})

	return r
}
