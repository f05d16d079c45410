package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repwise/repwise-app/internal/repository"
	"repwise/repwise-app/internal/service"
	"repwise/repwise-app/internal/storage"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	syncRepo repository.ServerSyncRepository,
	fileStorage storage.FileStorage,
) {
	authHandler := NewAuthHandler(authService)
	syncHandler := NewSyncHandler(syncRepo)
	mediaHandler := NewMediaHandler(fileStorage)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userID})
		})

		// --- Sync Routes ---
		syncGroup := protected.Group("/sync")
		{
			syncGroup.POST("/pull", syncHandler.Pull)
			syncGroup.POST("/push", syncHandler.Push)
		}

		// --- Media Routes ---
		mediaGroup := protected.Group("/media")
		{
			mediaGroup.POST("/covers", mediaHandler.RequestCoverUpload)
			mediaGroup.GET("/exercises/:exerciseId", mediaHandler.GetExerciseMediaURL)
		}
	}
}
