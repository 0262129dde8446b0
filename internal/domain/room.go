package domain

import "time"

// RoomStatus is the persisted lifecycle state of a room. The transition
// OPEN -> CLOSED is one-way.
type RoomStatus string

const (
	RoomStatusOpen   RoomStatus = "OPEN"
	RoomStatusClosed RoomStatus = "CLOSED"
)

// Room is the persistent record of a room. Liveness is decided by the
// State Store, this row only keeps the history.
type Room struct {
	ID        uint       `gorm:"primaryKey"`
	RoomCode  string     `gorm:"uniqueIndex:idx_room_code;size:6;not null"`
	Status    RoomStatus `gorm:"type:varchar(10);index;not null;default:OPEN"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	ClosedAt  *time.Time
}

// IsOpen reports whether the record has not been closed yet.
func (r *Room) IsOpen() bool {
	return r.Status == RoomStatusOpen
}

// Defaults applied when a room is created.
const (
	DefaultRoomTTL         = time.Hour
	DefaultMaxParticipants = 10
)
