package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/zagwe-games/bingo-rooms/game"
	"github.com/zagwe-games/bingo-rooms/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormDrawStore is the durable per-round draw log. The (room_id, number)
// unique index turns a double-draw into a duplicate-key insert the engine can
// recover from.
type GormDrawStore struct {
	db *gorm.DB
}

func NewGormDrawStore(db *gorm.DB) *GormDrawStore {
	return &GormDrawStore{db: db}
}

func (s *GormDrawStore) Append(roomID string, number int) error {
	err := s.db.Create(&models.DrawnNumber{RoomID: roomID, Number: number}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return game.ErrDuplicateNumber
	}
	return err
}

func (s *GormDrawStore) List(roomID string) ([]int, error) {
	var rows []models.DrawnNumber
	if err := s.db.Where("room_id = ?", roomID).Order("drawn_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Number)
	}
	return out, nil
}

func (s *GormDrawStore) Clear(roomID string) error {
	return s.db.Where("room_id = ?", roomID).Delete(&models.DrawnNumber{}).Error
}

// RoundStore archives settled rounds.
type RoundStore struct {
	db *gorm.DB
}

func NewRoundStore(db *gorm.DB) *RoundStore {
	return &RoundStore{db: db}
}

func (s *RoundStore) SaveRound(roomID string, result game.Payout, participants []int64, numbers []int) error {
	pj, _ := json.Marshal(participants)
	nj, _ := json.Marshal(numbers)
	return s.db.Create(&models.Round{
		RoomID:           roomID,
		Stake:            result.Pool / int64(max(len(participants), 1)),
		WinnerID:         result.WinnerID,
		Pool:             result.Pool,
		WinnerReward:     result.WinnerReward,
		Commission:       result.Commission,
		ParticipantsJSON: datatypes.JSON(pj),
		NumbersJSON:      datatypes.JSON(nj),
		EndedAt:          time.Now(),
	}).Error
}
