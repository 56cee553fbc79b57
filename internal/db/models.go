package db

import (
	"time"

	"gorm.io/datatypes"
)

type Session struct {
	ID            uint       `gorm:"primaryKey"`
	Code          string     `gorm:"size:12;uniqueIndex;not null"`
	Status        string     `gorm:"size:32;not null"`
	Mode          string     `gorm:"size:32;not null"`
	Variant       string     `gorm:"size:32;not null"`
	Round         int        `gorm:"not null;default:1"`
	MaxRounds     int        `gorm:"not null;default:3"`
	QuestionIndex int        `gorm:"not null;default:0"`
	DrawnNumbers  IntSlice   `gorm:"type:jsonb;not null"`
	CurrentNumber *int
	LineClaimedBy string     `gorm:"size:64"`
	CardClaimedBy string     `gorm:"size:64"`
	LineClaimedAt *time.Time
	CardClaimedAt *time.Time
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
	Teams         []Team     `gorm:"constraint:OnDelete:CASCADE"`
	Players       []Player   `gorm:"constraint:OnDelete:CASCADE"`
	Questions     []Question `gorm:"constraint:OnDelete:CASCADE"`
	Events        []Event    `gorm:"constraint:OnDelete:CASCADE"`
}

type Team struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID uint      `gorm:"index;not null;uniqueIndex:idx_teams_session_name"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_teams_session_name"`
	Color     string    `gorm:"size:16;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Player struct {
	ID         uint      `gorm:"primaryKey"`
	SessionID  uint      `gorm:"index;not null;uniqueIndex:idx_players_session_nickname"`
	Nickname   string    `gorm:"size:64;not null;uniqueIndex:idx_players_session_nickname"`
	TeamID     *uint     `gorm:"index;constraint:OnDelete:SET NULL"`
	Avatar     string    `gorm:"size:32"`
	Status     string    `gorm:"size:16;not null;default:active"`
	Wins       int       `gorm:"not null;default:0"`
	Points     int       `gorm:"not null;default:0"`
	BoardCells IntSlice  `gorm:"type:jsonb;not null"`
	Marks      []byte    `gorm:"type:bytea;not null"`
	LastSeenAt time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
	Answers    []Answer  `gorm:"constraint:OnDelete:CASCADE"`
}

// Question rows with a nil SessionID form the shared sample pool.
type Question struct {
	ID           uint        `gorm:"primaryKey"`
	SessionID    *uint       `gorm:"index"`
	Prompt       string      `gorm:"size:500;not null"`
	Choices      StringSlice `gorm:"type:jsonb;not null"`
	CorrectIndex int         `gorm:"not null"`
	TimeLimitSec int         `gorm:"not null"`
	Points       int         `gorm:"not null"`
	Category     string      `gorm:"size:64"`
	Difficulty   string      `gorm:"size:16"`
	MediaURL     string      `gorm:"size:255"`
	Open         bool        `gorm:"not null;default:false"`
	OpenedAt     *time.Time
	CreatedAt    time.Time   `gorm:"not null"`
	UpdatedAt    time.Time   `gorm:"not null"`
	Answers      []Answer    `gorm:"constraint:OnDelete:CASCADE"`
}

type Answer struct {
	ID         uint      `gorm:"primaryKey"`
	PlayerID   uint      `gorm:"index;not null;uniqueIndex:idx_answers_player_question"`
	QuestionID uint      `gorm:"index;not null;uniqueIndex:idx_answers_player_question"`
	Choice     int       `gorm:"not null"`
	Correct    bool      `gorm:"not null"`
	Points     int       `gorm:"not null"`
	LatencyMs  int64     `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	SessionID uint           `gorm:"not null;uniqueIndex:idx_events_session_seq,priority:1"`
	Seq       int64          `gorm:"not null;uniqueIndex:idx_events_session_seq,priority:2"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
