package engine

import (
	"encoding/json"
	"log"

	"bingo-night/internal/db"
)

// RestoreActive loads every non-completed session back into the live store
// after a restart. Sessions resume in the status they were stored with;
// the event ledger tail is rebuilt so polling clients keep a consistent
// sequence.
func (e *Engine) RestoreActive() error {
	if e.db == nil {
		return nil
	}
	var records []db.Session
	if err := e.db.Where("status <> ?", StatusCompleted).Find(&records).Error; err != nil {
		return err
	}
	restored := 0
	for i := range records {
		if err := e.restoreSession(&records[i]); err != nil {
			log.Printf("restore session failed code=%s err=%v", records[i].Code, err)
			continue
		}
		restored++
	}
	if restored > 0 {
		log.Printf("restored %d session(s)", restored)
	}
	return nil
}

func (e *Engine) restoreSession(record *db.Session) error {
	var players []db.Player
	if err := e.db.Where("session_id = ?", record.ID).Order("id asc").Find(&players).Error; err != nil {
		return err
	}
	var teams []db.Team
	if err := e.db.Where("session_id = ?", record.ID).Order("id asc").Find(&teams).Error; err != nil {
		return err
	}
	questions, err := db.SessionQuestions(e.db, record.ID)
	if err != nil {
		return err
	}
	events, err := db.EventsSince(e.db, record.ID, 0, 0)
	if err != nil {
		return err
	}

	session := &Session{
		Code:          NormalizeCode(record.Code),
		DBID:          record.ID,
		Status:        record.Status,
		Mode:          record.Mode,
		Variant:       record.Variant,
		Round:         record.Round,
		MaxRounds:     record.MaxRounds,
		QuestionIndex: record.QuestionIndex,
		Drawn:         append([]int(nil), record.DrawnNumbers...),
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
	if record.CurrentNumber != nil {
		session.Current = *record.CurrentNumber
	}
	if record.LineClaimedBy != "" && record.LineClaimedAt != nil {
		session.LineClaim = Claim{Nickname: record.LineClaimedBy, At: *record.LineClaimedAt}
	}
	if record.CardClaimedBy != "" && record.CardClaimedAt != nil {
		session.CardClaim = Claim{Nickname: record.CardClaimedBy, At: *record.CardClaimedAt}
	}

	teamIDs := make(map[uint]int, len(teams))
	for i, team := range teams {
		id := i + 1
		session.NextTeamID = id
		teamIDs[team.ID] = id
		session.Teams = append(session.Teams, Team{
			ID:    id,
			DBID:  team.ID,
			Name:  team.Name,
			Color: team.Color,
		})
	}

	playerIDs := make(map[uint]int, len(players))
	for i, player := range players {
		id := i + 1
		session.NextPlayerID = id
		playerIDs[player.ID] = id
		marks := Bitset(append([]byte(nil), player.Marks...))
		if len(marks) == 0 {
			marks = NewBitset(BoardCells)
		}
		teamID := 0
		if player.TeamID != nil {
			teamID = teamIDs[*player.TeamID]
		}
		session.Players = append(session.Players, Player{
			ID:       id,
			DBID:     player.ID,
			Nickname: player.Nickname,
			TeamID:   teamID,
			Avatar:   player.Avatar,
			Status:   player.Status,
			Wins:     player.Wins,
			Points:   player.Points,
			Board:    Board(append([]int(nil), player.BoardCells...)),
			Marks:    marks,
			LastSeen: player.LastSeenAt,
		})
	}

	for i, question := range questions {
		state := QuestionState{
			Index:        i,
			DBID:         question.ID,
			Prompt:       question.Prompt,
			Choices:      append([]string(nil), question.Choices...),
			CorrectIndex: question.CorrectIndex,
			TimeLimitSec: question.TimeLimitSec,
			Points:       question.Points,
			Category:     question.Category,
			Difficulty:   question.Difficulty,
			MediaURL:     question.MediaURL,
			Open:         question.Open,
			Closed:       !question.Open && question.OpenedAt != nil,
			Answers:      make(map[int]AnswerRecord),
		}
		if question.OpenedAt != nil {
			state.OpenedAt = *question.OpenedAt
		}
		var answers []db.Answer
		if err := e.db.Where("question_id = ?", question.ID).Find(&answers).Error; err != nil {
			return err
		}
		for _, answer := range answers {
			playerID, ok := playerIDs[answer.PlayerID]
			if !ok {
				continue
			}
			state.Answers[playerID] = AnswerRecord{
				PlayerID:  playerID,
				DBID:      answer.ID,
				Choice:    answer.Choice,
				Correct:   answer.Correct,
				Points:    answer.Points,
				LatencyMs: answer.LatencyMs,
				At:        answer.CreatedAt,
			}
		}
		session.Questions = append(session.Questions, state)
	}

	for _, event := range events {
		var payload EventPayload
		if err := unmarshalPayload(event.Payload, &payload); err != nil {
			continue
		}
		session.Events = append(session.Events, EventRecord{
			Seq:     event.Seq,
			Type:    event.Type,
			Payload: payload,
			At:      event.CreatedAt,
		})
		if event.Seq > session.NextEventSeq {
			session.NextEventSeq = event.Seq
		}
	}

	return e.store.Restore(session)
}

func unmarshalPayload(raw []byte, payload *EventPayload) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, payload)
}
