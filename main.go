package main

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/zagwe-games/bingo-rooms/config"
	"github.com/zagwe-games/bingo-rooms/controllers"
	"github.com/zagwe-games/bingo-rooms/game"
	"github.com/zagwe-games/bingo-rooms/routes"
	"github.com/zagwe-games/bingo-rooms/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Default stake rooms opened at boot, same tiers the Telegram bot advertises
var defaultStakes = []int64{10, 20, 50, 100}

func main() {
	config.LoadEnv()
	db := config.SetupDatabase()

	hub := services.NewHub()
	registry := game.NewRegistry(game.Config{}, game.Deps{
		Ledger: services.NewWalletLedger(db),
		Store:  services.NewGormDrawStore(db),
		Bus:    hub,
		Rounds: services.NewRoundStore(db),
	})
	for _, stake := range defaultStakes {
		s := stake
		registry.Create(strconv.FormatInt(s, 10), game.Settings{Stake: &s})
	}

	router := setupRouter(hub, registry)

	port := config.Getenv("PORT", "4000")
	log.Printf("🚀 Bingo rooms server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("[FATAL] Failed to start server: %v", err)
	}
}

// setupRouter initializes Gin routes and middleware
func setupRouter(hub *services.Hub, registry *game.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.Getenv("FRONTEND_ORIGIN", "http://localhost:3000")},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, controllers.NewAdmin(registry))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	r.GET("/ws", services.WebSocketHandler(hub, registry))

	return r
}
