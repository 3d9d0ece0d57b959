package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/escrow-backend/internal/config"
	"github.com/ignatzorin/escrow-backend/internal/http/handlers"
	"github.com/ignatzorin/escrow-backend/internal/http/middleware"
	"github.com/ignatzorin/escrow-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	orderHandler *handlers.OrderHandler,
	escrowHandler *handlers.EscrowHandler,
	voteHandler *handlers.VoteHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Публичные маршруты
	api.GET("/orders", orderHandler.List)
	api.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.Get)
	api.GET("/users", userHandler.List)
	api.GET("/users/:id", middleware.UUIDValidator("id"), userHandler.Profile)
	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/users/me/balance", userHandler.Balance)
		protected.POST("/users/me/deposit", userHandler.Deposit)
		protected.GET("/users/me/transactions", userHandler.Transactions)
		protected.GET("/users/me/orders", userHandler.MyOrders)

		protected.POST("/orders", orderHandler.Create)

		orderScoped := protected.Group("/orders/:id")
		orderScoped.Use(middleware.UUIDValidator("id"))
		{
			orderScoped.POST("/join", orderHandler.Join)
			orderScoped.POST("/contractor", orderHandler.AssignContractor)
			orderScoped.POST("/cancel", orderHandler.Cancel)
			orderScoped.POST("/vote", voteHandler.Vote)

			milestoneScoped := orderScoped.Group("/milestones/:milestoneId")
			milestoneScoped.Use(middleware.UUIDValidator("milestoneId"))
			{
				milestoneScoped.POST("/complete", escrowHandler.CompleteMilestone)
				milestoneScoped.POST("/sign", escrowHandler.SignAct)
			}
		}
	}

	return r
}
