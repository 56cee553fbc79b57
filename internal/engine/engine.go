package engine

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bingo-night/internal/config"
	"bingo-night/internal/db"

	"gorm.io/gorm"
)

// Engine coordinates every session. Live state lives in the Store under
// per-session locks; the database handle, when present, receives
// write-through copies and is the durable record across restarts.
type Engine struct {
	store *Store
	db    *gorm.DB
	cfg   config.Config
}

func New(conn *gorm.DB, cfg config.Config) *Engine {
	return &Engine{
		store: NewStore(),
		db:    conn,
		cfg:   cfg,
	}
}

// NormalizeCode uppercases a human-typed session code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func normalizeNickname(nickname string) string {
	return strings.ToLower(strings.TrimSpace(nickname))
}

// SessionConfig carries the host's choices at creation time.
type SessionConfig struct {
	Code      string
	MaxRounds int
	Mode      string
	Variant   string
}

// CreateSession registers a new session in the waiting state. Codes are
// case-insensitive and must be unique among live and stored sessions.
func (e *Engine) CreateSession(sc SessionConfig) (map[string]any, error) {
	code := NormalizeCode(sc.Code)
	if code == "" {
		return nil, fmt.Errorf("session code is required")
	}
	mode := sc.Mode
	if mode == "" {
		mode = ModeHybrid
	}
	if !validMode[mode] {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	variant := sc.Variant
	if variant == "" {
		variant = VariantClassic
	}
	if variant != VariantClassic && variant != VariantStraight {
		return nil, fmt.Errorf("unknown variant %q", variant)
	}
	maxRounds := sc.MaxRounds
	if maxRounds <= 0 {
		maxRounds = e.cfg.MaxRoundsDefault
	}

	// Pre-seed trivia questions from the shared pool before taking any lock.
	questions := e.loadSampleQuestions(mode)

	now := time.Now().UTC()
	_, err := e.store.Create(code, func() *Session {
		s := &Session{
			Code:      code,
			Status:    StatusWaiting,
			Mode:      mode,
			Variant:   variant,
			Round:     1,
			MaxRounds: maxRounds,
			Questions: questions,
			CreatedAt: now,
			UpdatedAt: now,
		}
		appendEvent(s, EventSessionCreated, EventPayload{Code: code, Mode: mode})
		return s
	})
	if err != nil {
		return nil, err
	}
	if err := e.persistSession(code); err != nil {
		// The stored row is the durable uniqueness record; drop the live
		// session again if the mirror write lost.
		_, _ = e.store.Remove(code)
		return nil, err
	}
	log.Printf("session created code=%s mode=%s variant=%s max_rounds=%d", code, mode, variant, maxRounds)
	return e.State(code)
}

// JoinRequest carries a player's join parameters.
type JoinRequest struct {
	Nickname string
	Avatar   string
	TeamID   int
}

// Join adds a player to a joinable session. Nicknames are unique per
// session, case-insensitively; a duplicate is rejected, never merged.
func (e *Engine) Join(code string, req JoinRequest) (Player, error) {
	code = NormalizeCode(code)
	var (
		player Player
		event  EventRecord
	)
	err := e.store.Mutate(code, func(session *Session) error {
		if session.Status != StatusWaiting && session.Status != StatusActive {
			return fmt.Errorf("%w: status is %q", ErrNotJoinable, session.Status)
		}
		if session.findPlayer(req.Nickname) != nil {
			return fmt.Errorf("%w: %q", ErrNicknameTaken, req.Nickname)
		}
		if req.TeamID != 0 && session.findTeam(req.TeamID) == nil {
			return fmt.Errorf("%w: team %d", ErrNotFound, req.TeamID)
		}
		session.NextPlayerID++
		id := session.NextPlayerID
		session.Players = append(session.Players, Player{
			ID:       id,
			Nickname: req.Nickname,
			TeamID:   req.TeamID,
			Avatar:   req.Avatar,
			Status:   PlayerActive,
			Board:    NewBoard(session.Mode),
			Marks:    NewBitset(BoardCells),
			LastSeen: time.Now().UTC(),
		})
		player = session.Players[len(session.Players)-1]
		event = appendEvent(session, EventPlayerJoined, EventPayload{Nickname: req.Nickname})
		return nil
	})
	if err != nil {
		return Player{}, err
	}
	log.Printf("player joined code=%s nickname=%s", code, player.Nickname)
	if err := e.persistPlayer(code, player.Nickname); err != nil {
		_ = e.store.Mutate(code, func(session *Session) error {
			for i := range session.Players {
				if session.Players[i].ID == player.ID {
					session.Players = append(session.Players[:i], session.Players[i+1:]...)
					break
				}
			}
			return nil
		})
		return Player{}, err
	}
	e.persistEvent(code, event)
	return player, nil
}

// MarkCell stores a player's mark on one board cell. Marks are taken at
// face value here; whether they are backed by real draws is decided at
// claim time.
func (e *Engine) MarkCell(code, nickname string, cell int, marked bool) error {
	code = NormalizeCode(code)
	var event EventRecord
	err := e.store.Mutate(code, func(session *Session) error {
		if err := requireStatus(session, StatusActive); err != nil {
			return err
		}
		player := session.findPlayer(nickname)
		if player == nil {
			return fmt.Errorf("%w: player %q", ErrNotFound, nickname)
		}
		if cell < 0 || cell >= BoardCells {
			return fmt.Errorf("cell %d out of range", cell)
		}
		player.Marks.Set(cell, marked)
		player.LastSeen = time.Now().UTC()
		event = appendEvent(session, EventCellMarked, EventPayload{
			Nickname: player.Nickname,
			Cell:     cell,
			Marked:   &marked,
		})
		return nil
	})
	if err != nil {
		return err
	}
	e.persistPlayerState(code, nickname)
	e.persistEvent(code, event)
	return nil
}

// Heartbeat bumps a player's presence timestamp. Players polling from any
// device keep themselves visible; staleness is derived at snapshot time.
func (e *Engine) Heartbeat(code, nickname string) error {
	code = NormalizeCode(code)
	err := e.store.Mutate(code, func(session *Session) error {
		player := session.findPlayer(nickname)
		if player == nil {
			return fmt.Errorf("%w: player %q", ErrNotFound, nickname)
		}
		player.LastSeen = time.Now().UTC()
		player.Status = PlayerActive
		return nil
	})
	if err != nil {
		return err
	}
	e.persistPlayerState(code, nickname)
	return nil
}

// CreateTeam adds a team with a per-session unique name.
func (e *Engine) CreateTeam(code, name, color string) (Team, error) {
	code = NormalizeCode(code)
	name = strings.TrimSpace(name)
	if name == "" {
		return Team{}, fmt.Errorf("team name is required")
	}
	var (
		team  Team
		event EventRecord
	)
	err := e.store.Mutate(code, func(session *Session) error {
		if err := requireStatus(session, StatusWaiting, StatusActive, StatusPaused); err != nil {
			return err
		}
		for _, existing := range session.Teams {
			if strings.EqualFold(existing.Name, name) {
				return fmt.Errorf("%w: team %q", ErrNicknameTaken, name)
			}
		}
		session.NextTeamID++
		id := session.NextTeamID
		session.Teams = append(session.Teams, Team{ID: id, Name: name, Color: color})
		team = session.Teams[len(session.Teams)-1]
		event = appendEvent(session, EventTeamCreated, EventPayload{Team: name})
		return nil
	})
	if err != nil {
		return Team{}, err
	}
	e.persistTeam(code, team.ID)
	e.persistEvent(code, event)
	return team, nil
}

// DeleteTeam removes a team and clears player references to it. Players
// themselves are untouched.
func (e *Engine) DeleteTeam(code string, teamID int) error {
	code = NormalizeCode(code)
	var (
		event EventRecord
		dbID  uint
	)
	err := e.store.Mutate(code, func(session *Session) error {
		team := session.findTeam(teamID)
		if team == nil {
			return fmt.Errorf("%w: team %d", ErrNotFound, teamID)
		}
		dbID = team.DBID
		name := team.Name
		teams := session.Teams[:0]
		for _, existing := range session.Teams {
			if existing.ID != teamID {
				teams = append(teams, existing)
			}
		}
		session.Teams = teams
		for i := range session.Players {
			if session.Players[i].TeamID == teamID {
				session.Players[i].TeamID = 0
			}
		}
		event = appendEvent(session, EventTeamDeleted, EventPayload{Team: name})
		return nil
	})
	if err != nil {
		return err
	}
	e.deleteTeamRow(code, dbID)
	e.persistEvent(code, event)
	return nil
}

// SetStatus applies a host-requested lifecycle transition, guarded by the
// state machine. Starting requires the configured minimum player count.
func (e *Engine) SetStatus(code, status string) error {
	code = NormalizeCode(code)
	if !validStatus[status] {
		return fmt.Errorf("unknown status %q", status)
	}
	var event EventRecord
	err := e.store.Mutate(code, func(session *Session) error {
		if session.Status == status {
			return nil
		}
		if !canTransition(session.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, session.Status, status)
		}
		if session.Status == StatusWaiting && status == StatusActive && len(session.Players) < e.cfg.MinPlayersToStart {
			return fmt.Errorf("%w: need at least %d player(s) to start", ErrInvalidTransition, e.cfg.MinPlayersToStart)
		}
		session.Status = status
		event = appendEvent(session, EventStatusChanged, EventPayload{Status: status})
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("status changed code=%s status=%s", code, status)
	e.persistSessionState(code)
	e.persistEvent(code, event)
	return nil
}

// AdvanceRound moves to the next round, reopening prizes and wiping marks.
// Advancing past the configured maximum completes the session instead.
func (e *Engine) AdvanceRound(code string) error {
	code = NormalizeCode(code)
	var event EventRecord
	err := e.store.Mutate(code, func(session *Session) error {
		if err := requireStatus(session, StatusActive, StatusPaused); err != nil {
			return err
		}
		if session.Round >= session.MaxRounds {
			if session.LineClaim.Taken() {
				session.PrevWinner = session.LineClaim.Nickname
			}
			session.Status = StatusCompleted
			event = appendEvent(session, EventStatusChanged, EventPayload{Status: StatusCompleted})
			return nil
		}
		session.resetRound()
		session.Round++
		event = appendEvent(session, EventRoundAdvanced, EventPayload{Round: session.Round})
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("round advanced code=%s", code)
	e.persistSessionState(code)
	e.persistAllPlayerState(code)
	e.persistEvent(code, event)
	return nil
}

// ListSessions summarizes every live session for the lobby listing.
func (e *Engine) ListSessions() []SessionSummary {
	return e.store.ListSummaries()
}

// DeleteSession tears a session down: live state is dropped and every
// dependent row (players, questions, answers, events, teams) is removed.
// Completed sessions drop out of the live store across restarts but keep
// their rows, so a store miss still checks the database.
func (e *Engine) DeleteSession(code string) error {
	code = NormalizeCode(code)
	session, err := e.store.Remove(code)
	if errors.Is(err, ErrNotFound) {
		return e.deleteStoredSession(code)
	}
	if err != nil {
		return err
	}
	log.Printf("session deleted code=%s", code)
	return e.deleteSessionRows(session)
}

func (e *Engine) deleteStoredSession(code string) error {
	if e.db == nil {
		return fmt.Errorf("%w: session %q", ErrNotFound, code)
	}
	record, err := db.FindSessionByCode(e.db, code)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: session %q", ErrNotFound, code)
	}
	log.Printf("stored session deleted code=%s", code)
	return db.DeleteSessionCascade(e.db, record.ID)
}

// EventsSince returns the event-log tail past a client's last seen sequence.
func (e *Engine) EventsSince(code string, after int64) ([]EventRecord, error) {
	code = NormalizeCode(code)
	var events []EventRecord
	err := e.store.View(code, func(session *Session) {
		events = eventsSince(session, after)
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
