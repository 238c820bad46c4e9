package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/config"
	"github.com/inkpress/inkpress/controllers"
	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/repositories"
	"github.com/inkpress/inkpress/services"
	"github.com/inkpress/inkpress/utils"
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
	r.Use(utils.AccessLog(utils.Logger))
	r.Use(utils.RecoveryLog(utils.Logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
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

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	postStore := repositories.NewPostRepository(db)
	categoryStore := repositories.NewCategoryRepository(db)
	userStore := repositories.NewUserRepository(db)

	postService := services.NewPostService(postStore, categoryStore)
	categoryService := services.NewCategoryService(categoryStore)

	authController := controllers.NewAuthController(userStore)
	postController := controllers.NewPostController(postService)
	categoryController := controllers.NewCategoryController(categoryService)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)
	api.GET("/categories", categoryController.ListCategories)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/comments", postController.CreateComment)
	protected.PUT("/posts/:id/comments/:commentId", postController.UpdateComment)
	protected.DELETE("/posts/:id/comments/:commentId", postController.DeleteComment)
	protected.POST("/posts/:id/comments/:commentId/replies", postController.CreateReply)
	protected.PUT("/posts/:id/comments/:commentId/replies/:replyId", postController.UpdateReply)
	protected.DELETE("/posts/:id/comments/:commentId/replies/:replyId", postController.DeleteReply)
	protected.POST("/categories", categoryController.CreateCategory)
	protected.DELETE("/categories/:id", categoryController.DeleteCategory)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
