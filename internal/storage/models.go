package storage

import (
	"time"

	"github.com/google/uuid"
)

// Player is a registered player.
type Player struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlayerGroup is a named set of sessions used to filter statistics.
type PlayerGroup struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session is a table of five players.
type Session struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GroupID   *uuid.UUID `gorm:"type:uuid;index"`
	IsActive  bool       `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Players   []SessionPlayer
}

// SessionPlayer seats a player in a session.
type SessionPlayer struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_session_seat;uniqueIndex:idx_session_player"`
	PlayerID  uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_session_player"`
	Seat      int       `gorm:"uniqueIndex:idx_session_seat"`
}

// Hand stores one round of a session.
type Hand struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID    uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_session_position"`
	Position     int        `gorm:"uniqueIndex:idx_session_position"`
	Contract     string
	TakerID      uuid.UUID  `gorm:"type:uuid;index"`
	PartnerID    *uuid.UUID `gorm:"type:uuid;index"`
	Oudlers      *int
	Points       *float64
	Poignee      string
	PoigneeOwner string
	PetitAuBout  string
	Chelem       string
	Status       string `gorm:"index"`
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ScoreEntry stores a score delta. HandID is nil for star penalties.
type ScoreEntry struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID uuid.UUID  `gorm:"type:uuid;index"`
	HandID    *uuid.UUID `gorm:"type:uuid;index"`
	PlayerID  uuid.UUID  `gorm:"type:uuid;index"`
	Score     int
	CreatedAt time.Time
}

// StarEvent stores a star given to a player.
type StarEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID uuid.UUID `gorm:"type:uuid;index"`
	PlayerID  uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time
}

// PlayerBadge stores an unlocked badge.
type PlayerBadge struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PlayerID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_player_badge"`
	BadgeType  string    `gorm:"uniqueIndex:idx_player_badge"`
	UnlockedAt time.Time
}

// EloHistory stores a rating change caused by a hand.
type EloHistory struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	PlayerID     uuid.UUID `gorm:"type:uuid;index"`
	HandID       uuid.UUID `gorm:"type:uuid;index"`
	RatingBefore int
	RatingAfter  int
	RatingChange int
	CreatedAt    time.Time
}

func (EloHistory) TableName() string {
	return "elo_history"
}
