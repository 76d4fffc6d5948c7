package routes

import (
	"gcoin-shop/internal/handlers"
	"gcoin-shop/internal/middlewares"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-openapi/runtime/middleware"
	"time"
)

type Handlers struct {
	Auth  *handlers.AuthHandler
	Shop  *handlers.ShopHandler
	Admin *handlers.AdminHandler
}

func InitRoutes(h Handlers, authMiddleware *middlewares.AuthMiddleware, allowOrigins []string) *gin.Engine {
	router := gin.Default()

	_ = router.SetTrustedProxies(nil)

	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:8080"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.StaticFile("/swagger.yaml", "./swagger.yaml")

	opts := middleware.SwaggerUIOpts{SpecURL: "/swagger.yaml"}
	sh := middleware.SwaggerUI(opts, nil)

	router.GET("/swagger/*any", func(c *gin.Context) {
		sh.ServeHTTP(c.Writer, c.Request)
	})

	api := router.Group("/api")

	// public
	api.POST("/auth", h.Auth.Auth)
	api.POST("/refresh", h.Auth.Refresh)
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	protected := api.Group("", authMiddleware.Handle())
	{
		protected.GET("/info", h.Shop.GetInfo)
		protected.GET("/balance", h.Shop.GetBalance)
		protected.POST("/link", h.Shop.Link)
		protected.POST("/claim", h.Shop.Claim)
		protected.GET("/market", h.Shop.ListItems)
		protected.POST("/buy/:id", h.Shop.Buy)
	}

	admin := protected.Group("", authMiddleware.RequireAdmin())
	{
		admin.POST("/market", h.Admin.AddItem)
		admin.DELETE("/market/:name", h.Admin.RemoveItem)
		admin.DELETE("/items/:id", h.Admin.RemoveItemByID)
		admin.POST("/accounts/:id/adjust", h.Admin.AdjustBalance)
	}

	return router
}
