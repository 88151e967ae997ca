package services

import (
	"net/http"
	"strconv"

	"github.com/zagwe-games/bingo-rooms/config"
	"github.com/zagwe-games/bingo-rooms/game"
	"github.com/zagwe-games/bingo-rooms/models"
	"github.com/zagwe-games/bingo-rooms/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades a connection and attaches it to the event layer.
// Identity comes from the telegram_id query param; session issuance itself is
// an external collaborator.
func WebSocketHandler(hub *Hub, registry *game.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramIDStr := c.Query("telegram_id")
		if telegramIDStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing telegram_id"})
			return
		}
		telegramID, err := strconv.ParseInt(telegramIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
			return
		}

		var user models.User
		if err := config.DB.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("[WS] upgrade error: %v", err)
			return
		}

		client := NewClient(game.User{ID: user.TelegramID, Name: user.Name}, conn, hub, registry)
		hub.Register(client)
		logger.Infof("[WS] new client: telegramID=%d name=%s", user.TelegramID, user.Name)

		go client.WritePump()
		go client.ReadPump()
	}
}
