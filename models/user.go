package models

import "time"

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TelegramID int64     `gorm:"uniqueIndex" json:"telegram_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Balance    int64     `json:"balance"` // whole birr, no fractional cents in play
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
