package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"bingo-night/internal/db"

	"github.com/jackc/pgconn"
)

// The database is a write-through mirror of the locked in-memory state.
// Memory stays authoritative for live sessions; a failed mirror write is
// logged, except at create/join time where the unique indexes are the
// durable backstop for code and nickname uniqueness.

func (e *Engine) persistSession(code string) error {
	if e.db == nil {
		return nil
	}
	var snapshot *Session
	if err := e.store.View(code, func(session *Session) {
		clone := *session
		snapshot = &clone
	}); err != nil {
		return err
	}
	record := db.Session{
		Code:         snapshot.Code,
		Status:       snapshot.Status,
		Mode:         snapshot.Mode,
		Variant:      snapshot.Variant,
		Round:        snapshot.Round,
		MaxRounds:    snapshot.MaxRounds,
		DrawnNumbers: db.IntSlice{},
	}
	if err := e.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateCode, snapshot.Code)
		}
		return err
	}
	_ = e.store.Mutate(code, func(session *Session) error {
		session.DBID = record.ID
		return nil
	})
	return nil
}

func (e *Engine) persistPlayer(code, nickname string) error {
	if e.db == nil {
		return nil
	}
	var (
		sessionDBID uint
		player      Player
		found       bool
	)
	if err := e.store.View(code, func(session *Session) {
		sessionDBID = session.DBID
		if p := session.findPlayer(nickname); p != nil {
			player = *p
			// The live bitset keeps mutating under the lock; the row
			// write happens outside it and needs its own bytes.
			player.Marks = p.Marks.Clone()
			found = true
		}
	}); err != nil {
		return err
	}
	if !found || sessionDBID == 0 {
		return nil
	}
	record := db.Player{
		SessionID:  sessionDBID,
		Nickname:   player.Nickname,
		Avatar:     player.Avatar,
		Status:     player.Status,
		BoardCells: db.IntSlice(player.Board),
		Marks:      []byte(player.Marks),
		LastSeenAt: player.LastSeen,
	}
	if err := e.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrNicknameTaken, player.Nickname)
		}
		return err
	}
	_ = e.store.Mutate(code, func(session *Session) error {
		if p := session.findPlayer(nickname); p != nil {
			p.DBID = record.ID
		}
		return nil
	})
	return nil
}

// persistSessionState mirrors the mutable session columns after draws,
// claims, round advances and status changes.
func (e *Engine) persistSessionState(code string) {
	if e.db == nil {
		return
	}
	var (
		dbID    uint
		updates map[string]any
	)
	if err := e.store.View(code, func(session *Session) {
		dbID = session.DBID
		var current *int
		if session.Current != 0 {
			n := session.Current
			current = &n
		}
		updates = map[string]any{
			"status":          session.Status,
			"round":           session.Round,
			"question_index":  session.QuestionIndex,
			"drawn_numbers":   db.IntSlice(session.Drawn),
			"current_number":  current,
			"line_claimed_by": session.LineClaim.Nickname,
			"card_claimed_by": session.CardClaim.Nickname,
			"line_claimed_at": nullableTime(session.LineClaim.At),
			"card_claimed_at": nullableTime(session.CardClaim.At),
		}
	}); err != nil {
		return
	}
	if dbID == 0 {
		return
	}
	if err := e.db.Model(&db.Session{}).Where("id = ?", dbID).Updates(updates).Error; err != nil {
		log.Printf("persist session state failed code=%s err=%v", code, err)
	}
}

func (e *Engine) persistPlayerState(code, nickname string) {
	if e.db == nil {
		return
	}
	var (
		dbID    uint
		updates map[string]any
	)
	if err := e.store.View(code, func(session *Session) {
		player := session.findPlayer(nickname)
		if player == nil {
			return
		}
		dbID = player.DBID
		updates = playerStateUpdates(session, player)
	}); err != nil {
		return
	}
	if dbID == 0 {
		return
	}
	if err := e.db.Model(&db.Player{}).Where("id = ?", dbID).Updates(updates).Error; err != nil {
		log.Printf("persist player state failed code=%s nickname=%s err=%v", code, nickname, err)
	}
}

// playerStateUpdates builds the column updates for a player row. It runs
// under the session lock and must copy anything later mutations can touch
// in place, the marks bitset in particular.
func playerStateUpdates(session *Session, player *Player) map[string]any {
	var teamDBID *uint
	if team := session.findTeam(player.TeamID); team != nil && team.DBID != 0 {
		id := team.DBID
		teamDBID = &id
	}
	return map[string]any{
		"status":       player.Status,
		"wins":         player.Wins,
		"points":       player.Points,
		"marks":        []byte(player.Marks.Clone()),
		"team_id":      teamDBID,
		"last_seen_at": player.LastSeen,
	}
}

func (e *Engine) persistAllPlayerState(code string) {
	if e.db == nil {
		return
	}
	var nicknames []string
	if err := e.store.View(code, func(session *Session) {
		for _, player := range session.Players {
			nicknames = append(nicknames, player.Nickname)
		}
	}); err != nil {
		return
	}
	for _, nickname := range nicknames {
		e.persistPlayerState(code, nickname)
	}
}

func (e *Engine) persistQuestion(code string, index int) {
	if e.db == nil {
		return
	}
	var (
		sessionDBID uint
		state       QuestionState
		found       bool
	)
	if err := e.store.View(code, func(session *Session) {
		sessionDBID = session.DBID
		if index >= 0 && index < len(session.Questions) {
			state = session.Questions[index]
			found = true
		}
	}); err != nil {
		return
	}
	if !found || sessionDBID == 0 {
		return
	}
	if state.DBID == 0 {
		record := db.Question{
			SessionID:    &sessionDBID,
			Prompt:       state.Prompt,
			Choices:      db.StringSlice(state.Choices),
			CorrectIndex: state.CorrectIndex,
			TimeLimitSec: state.TimeLimitSec,
			Points:       state.Points,
			Category:     state.Category,
			Difficulty:   state.Difficulty,
			MediaURL:     state.MediaURL,
			Open:         state.Open,
			OpenedAt:     nullableTime(state.OpenedAt),
		}
		if err := e.db.Create(&record).Error; err != nil {
			log.Printf("persist question failed code=%s index=%d err=%v", code, index, err)
			return
		}
		_ = e.store.Mutate(code, func(session *Session) error {
			if index < len(session.Questions) {
				session.Questions[index].DBID = record.ID
			}
			return nil
		})
		return
	}
	updates := map[string]any{
		"open":      state.Open,
		"opened_at": nullableTime(state.OpenedAt),
	}
	if err := e.db.Model(&db.Question{}).Where("id = ?", state.DBID).Updates(updates).Error; err != nil {
		log.Printf("persist question failed code=%s index=%d err=%v", code, index, err)
	}
}

func (e *Engine) persistAnswer(code, nickname string, index int) {
	if e.db == nil {
		return
	}
	var (
		playerDBID   uint
		questionDBID uint
		record       AnswerRecord
		found        bool
	)
	if err := e.store.View(code, func(session *Session) {
		player := session.findPlayer(nickname)
		if player == nil || index < 0 || index >= len(session.Questions) {
			return
		}
		question := session.Questions[index]
		answer, ok := question.Answers[player.ID]
		if !ok {
			return
		}
		playerDBID = player.DBID
		questionDBID = question.DBID
		record = answer
		found = true
	}); err != nil {
		return
	}
	if !found || playerDBID == 0 || questionDBID == 0 {
		return
	}
	row := db.Answer{
		PlayerID:   playerDBID,
		QuestionID: questionDBID,
		Choice:     record.Choice,
		Correct:    record.Correct,
		Points:     record.Points,
		LatencyMs:  record.LatencyMs,
		CreatedAt:  record.At,
	}
	if err := e.db.Create(&row).Error; err != nil {
		// The unique index is the durable backstop for the one-answer rule;
		// the session lock already enforced it in memory.
		if !isUniqueViolation(err) {
			log.Printf("persist answer failed code=%s nickname=%s err=%v", code, nickname, err)
		}
	}
}

func (e *Engine) persistTeam(code string, teamID int) {
	if e.db == nil {
		return
	}
	var (
		sessionDBID uint
		team        Team
		found       bool
	)
	if err := e.store.View(code, func(session *Session) {
		sessionDBID = session.DBID
		if t := session.findTeam(teamID); t != nil {
			team = *t
			found = true
		}
	}); err != nil {
		return
	}
	if !found || sessionDBID == 0 {
		return
	}
	record := db.Team{
		SessionID: sessionDBID,
		Name:      team.Name,
		Color:     team.Color,
	}
	if err := e.db.Create(&record).Error; err != nil {
		log.Printf("persist team failed code=%s team=%s err=%v", code, team.Name, err)
		return
	}
	_ = e.store.Mutate(code, func(session *Session) error {
		if t := session.findTeam(teamID); t != nil {
			t.DBID = record.ID
		}
		return nil
	})
}

func (e *Engine) deleteTeamRow(code string, dbID uint) {
	if e.db == nil || dbID == 0 {
		return
	}
	if err := e.db.Model(&db.Player{}).Where("team_id = ?", dbID).Update("team_id", nil).Error; err != nil {
		log.Printf("clear team refs failed code=%s err=%v", code, err)
	}
	if err := e.db.Delete(&db.Team{}, dbID).Error; err != nil {
		log.Printf("delete team failed code=%s err=%v", code, err)
	}
}

func (e *Engine) persistEvent(code string, record EventRecord) {
	if e.db == nil || record.Type == "" {
		return
	}
	var sessionDBID uint
	if err := e.store.View(code, func(session *Session) {
		sessionDBID = session.DBID
	}); err != nil {
		return
	}
	if sessionDBID == 0 {
		return
	}
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		log.Printf("encode event failed code=%s type=%s err=%v", code, record.Type, err)
		return
	}
	row := db.Event{
		SessionID: sessionDBID,
		Seq:       record.Seq,
		Type:      record.Type,
		Payload:   payload,
		CreatedAt: record.At,
	}
	if err := e.db.Create(&row).Error; err != nil {
		log.Printf("persist event failed code=%s type=%s err=%v", code, record.Type, err)
	}
}

func (e *Engine) deleteSessionRows(session *Session) error {
	if e.db == nil || session == nil || session.DBID == 0 {
		return nil
	}
	return db.DeleteSessionCascade(e.db, session.DBID)
}

// loadSampleQuestions seeds trivia questions from the shared pool for modes
// that ask questions. Missing database or empty pool just means the host
// adds questions by hand.
func (e *Engine) loadSampleQuestions(mode string) []QuestionState {
	if e.db == nil || mode == ModeBingo {
		return nil
	}
	rows, err := db.SamplePool(e.db, 0)
	if err != nil {
		log.Printf("load sample questions failed err=%v", err)
		return nil
	}
	questions := make([]QuestionState, 0, len(rows))
	for i, row := range rows {
		limit := row.TimeLimitSec
		if limit <= 0 {
			limit = e.cfg.QuestionSeconds
		}
		points := row.Points
		if points <= 0 {
			points = defaultQuestionPoints
		}
		questions = append(questions, QuestionState{
			Index:        i,
			Prompt:       row.Prompt,
			Choices:      append([]string(nil), row.Choices...),
			CorrectIndex: row.CorrectIndex,
			TimeLimitSec: limit,
			Points:       points,
			Category:     row.Category,
			Difficulty:   row.Difficulty,
			MediaURL:     row.MediaURL,
			Answers:      make(map[int]AnswerRecord),
		})
	}
	return questions
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t
	return &u
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
