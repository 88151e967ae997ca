package routes

import (
	"github.com/zagwe-games/bingo-rooms/controllers"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, admin *controllers.Admin) {
	api := r.Group("/api")

	// ----------------------
	// User routes
	// ----------------------
	api.POST("/users", controllers.RegisterUser)
	api.GET("/users/:telegram_id", controllers.GetUser)
	api.PATCH("/users/:telegram_id/phone", controllers.UpdatePhone)

	// ----------------------
	// Wallet routes
	// ----------------------
	api.GET("/balance/:telegram_id", controllers.GetBalance)
	api.POST("/deposit/verify", controllers.VerifyDeposit)
	api.POST("/withdraw", controllers.Withdraw)
	api.GET("/transactions/:telegram_id", controllers.GetTransactions)

	// ----------------------
	// Admin room control plane
	// ----------------------
	adm := api.Group("/admin")
	adm.GET("/rooms", admin.ListRooms)
	adm.POST("/rooms", admin.CreateRoom)
	adm.POST("/rooms/:id/lock", admin.LockRoom)
	adm.POST("/rooms/:id/unlock", admin.UnlockRoom)
	adm.POST("/rooms/:id/end", admin.EndRoom)
	adm.POST("/rooms/:id/stake", admin.SetRoomStake)
	adm.POST("/rooms/:id/settings", admin.SetRoomSettings)
}
