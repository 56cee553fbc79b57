package engine

import (
	"fmt"
	"time"
)

const (
	StatusWaiting   = "waiting"
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

const (
	ModeBingo  = "bingo"
	ModeTrivia = "trivia"
	ModeHybrid = "hybrid"
)

const (
	// VariantClassic counts rows, columns and both diagonals as lines.
	VariantClassic = "classic"
	// VariantStraight counts rows and columns only.
	VariantStraight = "straight"
)

const (
	PlayerActive       = "active"
	PlayerDisconnected = "disconnected"
)

// Session is the live, authoritative state of one game. All access goes
// through the Store's per-session lock.
type Session struct {
	Code          string
	DBID          uint
	Status        string
	Mode          string
	Variant       string
	Round         int
	MaxRounds     int
	QuestionIndex int
	Drawn         []int
	Current       int // 0 when nothing is displayed
	LineClaim     Claim
	CardClaim     Claim
	PrevWinner    string // line winner of the previous round
	Players       []Player
	Teams         []Team
	Questions     []QuestionState
	Events        []EventRecord
	NextEventSeq  int64
	NextPlayerID  int // never reused, even after a rollback
	NextTeamID    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Claim records the first validated prize claim of the current round.
// A zero Claim means the prize is still open.
type Claim struct {
	Nickname string
	At       time.Time
}

func (c Claim) Taken() bool { return c.Nickname != "" }

type Player struct {
	ID       int
	DBID     uint
	Nickname string
	TeamID   int
	Avatar   string
	Status   string
	Wins     int
	Points   int
	Board    Board
	Marks    Bitset
	LastSeen time.Time
}

type Team struct {
	ID    int
	DBID  uint
	Name  string
	Color string
}

var validStatus = map[string]bool{
	StatusWaiting:   true,
	StatusActive:    true,
	StatusPaused:    true,
	StatusCompleted: true,
}

var validMode = map[string]bool{
	ModeBingo:  true,
	ModeTrivia: true,
	ModeHybrid: true,
}

// statusTransitions is the session state machine: waiting -> active <-> paused,
// and completed reachable from any live status. Completed is terminal.
var statusTransitions = map[string][]string{
	StatusWaiting: {StatusActive, StatusCompleted},
	StatusActive:  {StatusPaused, StatusCompleted},
	StatusPaused:  {StatusActive, StatusCompleted},
}

func canTransition(from, to string) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// requireStatus guards a mutation on the session being in one of the given
// statuses, reporting the current status otherwise.
func requireStatus(session *Session, statuses ...string) error {
	for _, status := range statuses {
		if session.Status == status {
			return nil
		}
	}
	return fmt.Errorf("%w: status is %q", ErrInvalidTransition, session.Status)
}

func (s *Session) findPlayer(nickname string) *Player {
	key := normalizeNickname(nickname)
	for i := range s.Players {
		if normalizeNickname(s.Players[i].Nickname) == key {
			return &s.Players[i]
		}
	}
	return nil
}

func (s *Session) findTeam(id int) *Team {
	for i := range s.Teams {
		if s.Teams[i].ID == id {
			return &s.Teams[i]
		}
	}
	return nil
}

func (s *Session) openQuestionState() *QuestionState {
	for i := range s.Questions {
		if s.Questions[i].Open {
			return &s.Questions[i]
		}
	}
	return nil
}

// resetRound clears per-round state when the round counter advances:
// claims reopen, board marks are wiped, drawn numbers start over.
func (s *Session) resetRound() {
	if s.LineClaim.Taken() {
		s.PrevWinner = s.LineClaim.Nickname
	}
	s.LineClaim = Claim{}
	s.CardClaim = Claim{}
	s.Drawn = nil
	s.Current = 0
	for i := range s.Players {
		s.Players[i].Marks = NewBitset(BoardCells)
	}
}
