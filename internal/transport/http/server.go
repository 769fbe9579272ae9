package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "lexichat/internal/app"
	"lexichat/internal/bootstrap"
	"lexichat/internal/cache"
	"lexichat/internal/repository"
	"lexichat/internal/transport/http/handler"
	"lexichat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	chatRepo := repository.NewChatRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	chatService := appsvc.NewChatSessionService(
		userRepo,
		chatRepo,
		messageRepo,
		app.Completion,
		historyCache,
		app.EventPublisher,
	)

	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	chatGroup.POST("", chatHandler.SendMessage)
	chatGroup.POST("/new", chatHandler.CreateChat)
	chatGroup.POST("/:chatId", chatHandler.SendMessage)
	chatGroup.GET("", chatHandler.ListChats)
	chatGroup.GET("/:chatId", chatHandler.GetChat)
	chatGroup.DELETE("", chatHandler.DeleteAllChats)
	chatGroup.DELETE("/:chatId", chatHandler.DeleteChat)
	chatGroup.DELETE("/:chatId/:messageId", chatHandler.DeleteMessage)

	return router
}
