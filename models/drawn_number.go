package models

import "time"

// DrawnNumber is the durable per-round draw log. The composite unique index is
// load-bearing: a concurrent double-draw surfaces as a duplicate-key insert,
// which the draw engine resolves by recomputing its candidate set.
type DrawnNumber struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	RoomID  string    `gorm:"uniqueIndex:idx_room_number;size:64" json:"room_id"`
	Number  int       `gorm:"uniqueIndex:idx_room_number" json:"number"`
	DrawnAt time.Time `gorm:"autoCreateTime" json:"drawn_at"`
}
