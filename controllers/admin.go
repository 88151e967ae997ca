package controllers

import (
	"net/http"

	"github.com/zagwe-games/bingo-rooms/game"

	"github.com/gin-gonic/gin"
)

// Admin is the room control plane. Every mutation goes through the registry so
// it shares the per-room serialization with the transport layer.
type Admin struct {
	Registry *game.Registry
}

func NewAdmin(registry *game.Registry) *Admin {
	return &Admin{Registry: registry}
}

// ListRooms returns a per-room summary for the dashboard
func (a *Admin) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "rooms": a.Registry.List()})
}

type createRoomRequest struct {
	GameID     string  `json:"gameId" binding:"required"`
	Stake      *int64  `json:"stake"`
	MaxPlayers *int    `json:"maxPlayers"`
	Type       *string `json:"type"`
}

// CreateRoom creates (or reconfigures) a room
func (a *Admin) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	a.Registry.Create(req.GameID, game.Settings{
		Stake:      req.Stake,
		MaxPlayers: req.MaxPlayers,
		Type:       req.Type,
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// LockRoom blocks new joins and selections; a running round is unaffected
func (a *Admin) LockRoom(c *gin.Context) {
	room := a.Registry.Get(c.Param("id"))
	if !room.SetLocked(true) {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Already locked", "game_state": "locked"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "game_state": "locked"})
}

func (a *Admin) UnlockRoom(c *gin.Context) {
	room := a.Registry.Get(c.Param("id"))
	if !room.SetLocked(false) {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Already open", "game_state": "open"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "game_state": "open"})
}

// EndRoom force-ends the running round for the frozen participants and resets
func (a *Admin) EndRoom(c *gin.Context) {
	room, ok := a.Registry.Lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Room not found"})
		return
	}
	room.ForceEnd()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type setStakeRequest struct {
	Stake int64 `json:"stake"`
}

func (a *Admin) SetRoomStake(c *gin.Context) {
	var req setStakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	a.Registry.Get(c.Param("id")).SetStake(req.Stake)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type setSettingsRequest struct {
	MaxPlayers *int    `json:"maxPlayers"`
	Type       *string `json:"type"`
	Stake      *int64  `json:"stake"`
}

func (a *Admin) SetRoomSettings(c *gin.Context) {
	var req setSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	room := a.Registry.Get(c.Param("id"))
	room.SetSettings(game.Settings{
		MaxPlayers: req.MaxPlayers,
		Type:       req.Type,
		Stake:      req.Stake,
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": room.Summary()})
}
