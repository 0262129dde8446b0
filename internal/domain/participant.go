package domain

import "time"

// Participant is the persistent record of one client's membership in a room.
type Participant struct {
	ID        uint      `gorm:"primaryKey"`
	ClientID  string    `gorm:"uniqueIndex:idx_client_id;size:36;not null"`
	RoomID    uint      `gorm:"index;not null"`
	Room      Room      `gorm:"foreignKey:RoomID"`
	Nickname  string    `gorm:"size:64;not null"`
	IsHost    bool      `gorm:"not null;default:false"`
	JoinedAt  time.Time `gorm:"autoCreateTime"`
	LeftAt    *time.Time
	LastState *string `gorm:"type:text"` // final canvas state as JSON, written by the archive task
}

// TableName keeps the table name stable regardless of struct naming.
func (Participant) TableName() string {
	return "room_participants"
}
