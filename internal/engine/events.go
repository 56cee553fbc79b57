package engine

import "time"

const (
	EventSessionCreated  = "session_created"
	EventPlayerJoined    = "player_joined"
	EventNumberDrawn     = "number_drawn"
	EventCellMarked      = "cell_marked"
	EventQuestionOpened  = "question_opened"
	EventQuestionClosed  = "question_closed"
	EventAnswerSubmitted = "answer_submitted"
	EventPrizeClaimed    = "prize_claimed"
	EventRoundAdvanced   = "round_advanced"
	EventStatusChanged   = "status_changed"
	EventTeamCreated     = "team_created"
	EventTeamDeleted     = "team_deleted"
)

type EventPayload struct {
	Code          string `json:"code,omitempty"`
	Nickname      string `json:"nickname,omitempty"`
	Number        int    `json:"number,omitempty"`
	Letter        string `json:"letter,omitempty"`
	Cell          int    `json:"cell,omitempty"`
	Marked        *bool  `json:"marked,omitempty"`
	Round         int    `json:"round,omitempty"`
	QuestionIndex int    `json:"question_index,omitempty"`
	Choice        int    `json:"choice,omitempty"`
	Correct       *bool  `json:"correct,omitempty"`
	Points        int    `json:"points,omitempty"`
	Kind          string `json:"kind,omitempty"`
	Status        string `json:"status,omitempty"`
	Mode          string `json:"mode,omitempty"`
	Team          string `json:"team,omitempty"`
	Count         int    `json:"count,omitempty"`
}

// EventRecord is one entry of the append-only per-session ledger. Seq is
// assigned under the session lock and strictly increases; polling clients
// diff against the highest Seq they have seen.
type EventRecord struct {
	Seq     int64
	Type    string
	Payload EventPayload
	At      time.Time
}

func appendEvent(session *Session, eventType string, payload EventPayload) EventRecord {
	session.NextEventSeq++
	record := EventRecord{
		Seq:     session.NextEventSeq,
		Type:    eventType,
		Payload: payload,
		At:      time.Now().UTC(),
	}
	session.Events = append(session.Events, record)
	return record
}

// recentEvents returns the tail of the ledger for snapshots.
func recentEvents(session *Session, limit int) []EventRecord {
	if limit <= 0 || len(session.Events) <= limit {
		return append([]EventRecord(nil), session.Events...)
	}
	return append([]EventRecord(nil), session.Events[len(session.Events)-limit:]...)
}

// eventsSince returns all events with Seq greater than after, in order.
func eventsSince(session *Session, after int64) []EventRecord {
	for i, record := range session.Events {
		if record.Seq > after {
			return append([]EventRecord(nil), session.Events[i:]...)
		}
	}
	return nil
}
