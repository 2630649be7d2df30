package main

import (
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"echecs/database"
	"echecs/handlers"
	"echecs/ledger"
	"echecs/middlewares"
	"echecs/relay"
	"echecs/store"
	"echecs/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

func main() {
	logger, err := utils.InitLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	// Initialize PostgreSQL and Redis concurrently.
	var db *gorm.DB
	var rdb *redis.Client
	done := make(chan bool)

	go func() {
		config, err := database.LoadConfig("config.json")
		if err != nil {
			logger.Fatal("failed to load config file", zap.Error(err))
		}
		db, err = database.InitPostgreSQL(config, logger)
		if err != nil {
			logger.Fatal("failed to initialize PostgreSQL", zap.Error(err))
		}
		done <- true
	}()

	go func() {
		rdb, err = database.InitRedis(logger)
		if err != nil {
			logger.Fatal("failed to initialize Redis", zap.Error(err))
		}
		done <- true
	}()

	<-done
	<-done

	// One store handle, passed by reference to every component.
	st := store.NewGorm(db)
	svc := ledger.NewService(st, logger)
	hub := relay.NewHub(st, logger)

	go utils.CronCleaner(hub, logger)

	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestLogger(logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	api.POST("/auth/register", func(c *gin.Context) {
		handlers.Register(c, st, logger)
	})
	api.POST("/auth/login", func(c *gin.Context) {
		handlers.Login(c, st, svc, logger)
	})

	api.POST("/users", func(c *gin.Context) {
		handlers.CreateUser(c, st, logger)
	})
	api.GET("/users/:id", func(c *gin.Context) {
		handlers.GetUser(c, st, logger)
	})
	api.PATCH("/users/:id", func(c *gin.Context) {
		handlers.UpdateUser(c, st, logger)
	})

	api.POST("/games", func(c *gin.Context) {
		handlers.CreateGame(c, svc, logger)
	})
	api.GET("/games/:id", func(c *gin.Context) {
		handlers.GetGame(c, st, logger)
	})
	api.GET("/games/user/:userId", func(c *gin.Context) {
		handlers.UserGames(c, st, logger)
	})
	api.POST("/games/:id/join", func(c *gin.Context) {
		handlers.JoinGame(c, svc, logger)
	})
	api.POST("/games/:id/end", func(c *gin.Context) {
		handlers.EndGame(c, svc, hub, logger)
	})

	tokens := api.Group("/tokens", middlewares.AuthMiddleware(logger))
	tokens.POST("/transactions", func(c *gin.Context) {
		handlers.CreateTransaction(c, svc, logger)
	})
	tokens.GET("/transactions", func(c *gin.Context) {
		handlers.ListTransactions(c, svc, logger)
	})
	tokens.GET("/balance", func(c *gin.Context) {
		handlers.Balance(c, svc, logger)
	})

	router.GET("/ws", func(c *gin.Context) {
		relay.HandleConnections(c.Request.Context(), c.Writer, c.Request, hub, rdb, logger, upgrader)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func allowedOrigins() []string {
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		return []string{origins}
	}
	return []string{"http://localhost:5173"}
}
