package main

import (
	"fmt"
	"log"
	"net/http"

	"matchmind/backend/internal/auth"
	"matchmind/backend/internal/cards"
	"matchmind/backend/internal/config"
	"matchmind/backend/internal/database"
	"matchmind/backend/internal/game"
	"matchmind/backend/internal/gateway"
	"matchmind/backend/internal/handler"
	"matchmind/backend/internal/hub"

	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "matchmind/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Matchmind API
// @version         1.0
// @description     This is the API for the Matchmind memory-match service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	// Realtime wiring: hub -> engine -> gateway
	broadcastHub := hub.NewHub()
	provider := cards.NewPexelsProvider(config.AppConfig.PexelsAPIKey)
	engine := game.NewEngine(game.NewGormStore(database.DB), provider, broadcastHub, config.AppConfig.CardCategory)
	gw := gateway.NewGateway(engine, broadcastHub)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Realtime endpoint; the gateway verifies the handshake token itself.
	router.GET("/ws", gw.HandleWS)

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
		}

		// Game routes (protected)
		gameRoutes := apiV1.Group("/games")
		gameRoutes.Use(auth.AuthMiddleware())
		{
			gameRoutes.GET("", handler.GetMyGames)
			gameRoutes.GET("/:id/messages", handler.GetGameMessages)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("/me", handler.GetMyProfile)
			userRoutes.PATCH("/me/username", handler.UpdateMyUsername)
		}

		// Stat routes (protected)
		statRoutes := apiV1.Group("/stats")
		statRoutes.Use(auth.AuthMiddleware())
		{
			statRoutes.GET("/me", handler.GetMyStats)
		}
	}

	addr := ":" + config.AppConfig.Port
	fmt.Println("Server is running on " + addr)
	fmt.Println("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(addr))
}
