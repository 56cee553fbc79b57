package engine

import (
	"time"
)

// State returns a full client-facing snapshot of one session: the session
// row, the player list, and the recent event tail. Read-only and always
// permitted; built entirely under the session lock so it never shows a
// half-applied mutation.
func (e *Engine) State(code string) (map[string]any, error) {
	code = NormalizeCode(code)
	var snapshot map[string]any
	err := e.store.View(code, func(session *Session) {
		snapshot = buildSnapshot(session, e.cfg.RecentEventCount, e.cfg.PresenceHorizonSeconds)
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func buildSnapshot(session *Session, eventCount, presenceHorizonSec int) map[string]any {
	now := time.Now().UTC()
	horizon := time.Duration(presenceHorizonSec) * time.Second

	players := make([]map[string]any, 0, len(session.Players))
	for _, player := range session.Players {
		status := player.Status
		if horizon > 0 && now.Sub(player.LastSeen) > horizon {
			status = PlayerDisconnected
		}
		marks := make([]bool, BoardCells)
		for i := range marks {
			marks[i] = player.Marks.Get(i)
		}
		entry := map[string]any{
			"nickname": player.Nickname,
			"avatar":   player.Avatar,
			"status":   status,
			"wins":     player.Wins,
			"points":   player.Points,
			"board":    append([]int(nil), player.Board...),
			"marks":    marks,
		}
		if player.TeamID != 0 {
			entry["team_id"] = player.TeamID
		}
		players = append(players, entry)
	}

	teams := make([]map[string]any, 0, len(session.Teams))
	for _, team := range session.Teams {
		teams = append(teams, map[string]any{
			"id":    team.ID,
			"name":  team.Name,
			"color": team.Color,
		})
	}

	var currentNumber any
	currentLetter := ""
	if session.Current != 0 {
		currentNumber = session.Current
		currentLetter = Letter(session.Current)
	}

	var question map[string]any
	if open := session.openQuestionState(); open != nil {
		deadline := open.deadline()
		// The correct index never leaves the server while the window is open.
		question = map[string]any{
			"index":          open.Index,
			"prompt":         open.Prompt,
			"choices":        append([]string(nil), open.Choices...),
			"time_limit_sec": open.TimeLimitSec,
			"points":         open.Points,
			"category":       open.Category,
			"difficulty":     open.Difficulty,
			"media_url":      open.MediaURL,
			"opened_at":      open.OpenedAt.Format(time.RFC3339),
			"deadline":       deadline.Format(time.RFC3339),
			"answer_count":   len(open.Answers),
		}
	}

	events := make([]map[string]any, 0, eventCount)
	for _, record := range recentEvents(session, eventCount) {
		events = append(events, eventPayloadMap(record))
	}

	return map[string]any{
		"code":           session.Code,
		"status":         session.Status,
		"mode":           session.Mode,
		"variant":        session.Variant,
		"round":          session.Round,
		"max_rounds":     session.MaxRounds,
		"question_index": session.QuestionIndex,
		"question_count": len(session.Questions),
		"drawn_numbers":  append([]int(nil), session.Drawn...),
		"current_number": currentNumber,
		"current_letter": currentLetter,
		"claims": map[string]any{
			PrizeLine:     claimMap(session.LineClaim),
			PrizeFullCard: claimMap(session.CardClaim),
		},
		"previous_round_winner": session.PrevWinner,
		"players":               players,
		"teams":                 teams,
		"question":              question,
		"recent_events":         events,
		"last_event_seq":        session.NextEventSeq,
		"can_join":              session.Status == StatusWaiting || session.Status == StatusActive,
		"created_at":            session.CreatedAt.Format(time.RFC3339),
		"updated_at":            session.UpdatedAt.Format(time.RFC3339),
	}
}

func claimMap(claim Claim) map[string]any {
	if !claim.Taken() {
		return map[string]any{"claimed": false}
	}
	return map[string]any{
		"claimed":    true,
		"claimed_by": claim.Nickname,
		"claimed_at": claim.At.Format(time.RFC3339),
	}
}

func eventPayloadMap(record EventRecord) map[string]any {
	return map[string]any{
		"seq":     record.Seq,
		"type":    record.Type,
		"payload": record.Payload,
		"at":      record.At.Format(time.RFC3339),
	}
}
