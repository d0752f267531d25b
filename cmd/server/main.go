package main

import (
	"log"
	"strconv"

	"time"

	"debatehub/config"
	"debatehub/controllers"
	"debatehub/db"
	"debatehub/internal/ratelimit"
	"debatehub/middlewares"
	"debatehub/routes"
	"debatehub/services"
	"debatehub/utils"
	"debatehub/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load the configuration from the specified YAML file
	cfg, err := config.LoadConfig("./config/config.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	utils.SetJWTSecret(cfg.JWT.Secret)
	controllers.InitAuthController(cfg)
	services.InitScoringService(cfg)

	// Connect to MongoDB using the URI from the configuration
	if err := db.ConnectMongoDB(cfg.Database.URI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB")

	// Chat flood control is optional; without Redis the server runs unlimited.
	if cfg.Redis.Addr != "" {
		limiter, err := ratelimit.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, 10, 10*time.Second)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		websocket.SetMessageLimiter(limiter)
		log.Println("Connected to Redis, chat rate limiting enabled")
	}

	// Set up the Gin router and configure routes
	router := setupRouter(cfg)
	port := strconv.Itoa(cfg.Server.Port)
	log.Printf("Server starting on port %s", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	// Set trusted proxies (adjust as needed)
	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	allowOrigins := cfg.CORS.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	router.OPTIONS("/*path", func(c *gin.Context) { c.Status(204) })

	// Public routes for authentication
	router.POST("/api/auth/signup", routes.SignUpRouteHandler)
	router.POST("/api/auth/login", routes.LoginRouteHandler)
	router.POST("/api/auth/logout", routes.LogoutRouteHandler)

	// Protected routes (JWT auth)
	auth := router.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.GET("/api/auth/user", routes.CurrentUserRouteHandler)

		auth.POST("/api/debates/create", routes.CreateDebateRouteHandler)
		auth.POST("/api/debates/join/:roomId", routes.JoinDebateRouteHandler)
		auth.POST("/api/debates/observe/:roomId", routes.ObserveDebateRouteHandler)
		auth.GET("/api/debates/room/:roomId", routes.GetRoomRouteHandler)
		auth.POST("/api/debates/end/:roomId", routes.EndDebateRouteHandler)
		auth.GET("/api/debates/details/:roomId", routes.GetDebateDetailsRouteHandler)
		auth.POST("/api/debates/analyze/:roomId", routes.AnalyzeDebateRouteHandler)
		auth.GET("/api/debates/history", routes.GetHistoryRouteHandler)
	}

	// WebSocket endpoint authenticates via token query param or cookie
	router.GET("/ws", websocket.DebateRoomHandler)

	return router
}
