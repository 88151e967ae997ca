package models

import (
	"time"

	"gorm.io/datatypes"
)

// Round archives a settled round for reporting. Written once at settlement,
// never read on the hot path.
type Round struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	RoomID           string         `gorm:"index;size:64" json:"room_id"`
	Stake            int64          `json:"stake"`
	WinnerID         int64          `json:"winner_id"`
	Pool             int64          `json:"pool"`
	WinnerReward     int64          `json:"winner_reward"`
	Commission       int64          `json:"commission"`
	ParticipantsJSON datatypes.JSON `json:"participants"`
	NumbersJSON      datatypes.JSON `json:"numbers"`
	EndedAt          time.Time      `json:"ended_at"`
	CreatedAt        time.Time      `json:"created_at"`
}
