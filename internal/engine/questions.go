package engine

import (
	"fmt"
	"log"
	"math"
	"time"
)

// scoreFloorFraction is the fraction of a question's base points still
// awarded at the deadline. Points decay linearly from the full base value
// at the moment the window opens down to this floor.
const scoreFloorFraction = 0.25

// defaultQuestionPoints applies when a question arrives without a base value.
const defaultQuestionPoints = 100

// QuestionState is one trivia question attached to a session, plus its
// answer window and the answers recorded so far, keyed by player ID.
type QuestionState struct {
	Index        int
	DBID         uint
	Prompt       string
	Choices      []string
	CorrectIndex int
	TimeLimitSec int
	Points       int
	Category     string
	Difficulty   string
	MediaURL     string
	Open         bool
	Closed       bool
	OpenedAt     time.Time
	Answers      map[int]AnswerRecord
}

type AnswerRecord struct {
	PlayerID  int
	DBID      uint
	Choice    int
	Correct   bool
	Points    int
	LatencyMs int64
	At        time.Time
}

func (q *QuestionState) deadline() time.Time {
	return q.OpenedAt.Add(time.Duration(q.TimeLimitSec) * time.Second)
}

// scoreAnswer computes awarded points for a correct answer submitted
// elapsed into a window of length limit. Linear decay, full base points
// at zero elapsed, scoreFloorFraction of them at the deadline.
func scoreAnswer(base int, elapsed, limit time.Duration) int {
	if limit <= 0 {
		return base
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > limit {
		elapsed = limit
	}
	remaining := 1 - float64(elapsed)/float64(limit)
	scale := scoreFloorFraction + (1-scoreFloorFraction)*remaining
	return int(math.Round(float64(base) * scale))
}

// NewQuestion describes a question being added to a session.
type NewQuestion struct {
	Prompt       string
	Choices      []string
	CorrectIndex int
	TimeLimitSec int
	Points       int
	Category     string
	Difficulty   string
	MediaURL     string
}

// AddQuestion appends a host-supplied question to the session's list and
// returns its index.
func (e *Engine) AddQuestion(code string, question NewQuestion) (int, error) {
	code = NormalizeCode(code)
	if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.Choices) {
		return 0, fmt.Errorf("correct index %d out of bounds for %d choices", question.CorrectIndex, len(question.Choices))
	}
	if question.TimeLimitSec <= 0 {
		question.TimeLimitSec = e.cfg.QuestionSeconds
	}
	if question.Points <= 0 {
		question.Points = defaultQuestionPoints
	}
	var index int
	err := e.store.Mutate(code, func(session *Session) error {
		if err := requireStatus(session, StatusWaiting, StatusActive, StatusPaused); err != nil {
			return err
		}
		index = len(session.Questions)
		session.Questions = append(session.Questions, QuestionState{
			Index:        index,
			Prompt:       question.Prompt,
			Choices:      append([]string(nil), question.Choices...),
			CorrectIndex: question.CorrectIndex,
			TimeLimitSec: question.TimeLimitSec,
			Points:       question.Points,
			Category:     question.Category,
			Difficulty:   question.Difficulty,
			MediaURL:     question.MediaURL,
			Answers:      make(map[int]AnswerRecord),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	e.persistQuestion(code, index)
	return index, nil
}

// OpenQuestion opens the answer window for the question at index. Only one
// question may be open per session; the window deadline is derived from the
// server clock observed here.
func (e *Engine) OpenQuestion(code string, index int) error {
	code = NormalizeCode(code)
	var event EventRecord
	err := e.store.Mutate(code, func(session *Session) error {
		if err := requireStatus(session, StatusActive); err != nil {
			return err
		}
		if open := session.openQuestionState(); open != nil {
			return fmt.Errorf("%w: question %d", ErrQuestionOpen, open.Index)
		}
		if index < 0 || index >= len(session.Questions) {
			return fmt.Errorf("%w: question %d", ErrNotFound, index)
		}
		question := &session.Questions[index]
		if question.Closed {
			return fmt.Errorf("%w: question %d", ErrWindowClosed, index)
		}
		question.Open = true
		question.OpenedAt = time.Now().UTC()
		session.QuestionIndex = index
		event = appendEvent(session, EventQuestionOpened, EventPayload{
			QuestionIndex: index,
			Round:         session.Round,
		})
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("question opened code=%s index=%d", code, index)
	e.persistSessionState(code)
	e.persistQuestion(code, index)
	e.persistEvent(code, event)
	return nil
}

// SubmitAnswer records a player's answer to the open question at index.
// Correctness and elapsed time are computed from server-observed timestamps;
// anything the client claims about timing is ignored.
func (e *Engine) SubmitAnswer(code, nickname string, index, choice int) (AnswerRecord, error) {
	code = NormalizeCode(code)
	var (
		record     AnswerRecord
		event      EventRecord
		closeEvent EventRecord
	)
	err := e.store.Mutate(code, func(session *Session) error {
		if err := requireStatus(session, StatusActive); err != nil {
			return err
		}
		player := session.findPlayer(nickname)
		if player == nil {
			return fmt.Errorf("%w: player %q", ErrNotFound, nickname)
		}
		if index < 0 || index >= len(session.Questions) {
			return fmt.Errorf("%w: question %d", ErrNotFound, index)
		}
		question := &session.Questions[index]
		if !question.Open || question.Closed {
			return fmt.Errorf("%w: question %d", ErrWindowClosed, index)
		}
		now := time.Now().UTC()
		if now.After(question.deadline()) {
			// The deadline closes the window the same as a host close:
			// the state change, the ledger entry and the row update all
			// happen even though the submit itself is rejected.
			question.Open = false
			question.Closed = true
			closeEvent = appendEvent(session, EventQuestionClosed, EventPayload{
				QuestionIndex: index,
				Count:         len(question.Answers),
			})
			return fmt.Errorf("%w: question %d", ErrWindowClosed, index)
		}
		if _, exists := question.Answers[player.ID]; exists {
			return fmt.Errorf("%w: player %q question %d", ErrAlreadyAnswered, player.Nickname, index)
		}
		if choice < 0 || choice >= len(question.Choices) {
			return fmt.Errorf("choice %d out of bounds for %d choices", choice, len(question.Choices))
		}
		elapsed := now.Sub(question.OpenedAt)
		correct := choice == question.CorrectIndex
		points := 0
		if correct {
			points = scoreAnswer(question.Points, elapsed, time.Duration(question.TimeLimitSec)*time.Second)
		}
		record = AnswerRecord{
			PlayerID:  player.ID,
			Choice:    choice,
			Correct:   correct,
			Points:    points,
			LatencyMs: elapsed.Milliseconds(),
			At:        now,
		}
		question.Answers[player.ID] = record
		player.Points += points
		player.LastSeen = now
		event = appendEvent(session, EventAnswerSubmitted, EventPayload{
			Nickname:      player.Nickname,
			QuestionIndex: index,
			Correct:       &correct,
			Points:        points,
		})
		return nil
	})
	if err != nil {
		if closeEvent.Type != "" {
			log.Printf("question closed code=%s index=%d reason=deadline", code, index)
			e.persistQuestion(code, index)
			e.persistEvent(code, closeEvent)
		}
		return AnswerRecord{}, err
	}
	e.persistAnswer(code, nickname, index)
	e.persistPlayerState(code, nickname)
	e.persistEvent(code, event)
	return record, nil
}

// CloseQuestion shuts the answer window for the question at index. Hosts
// call it directly; it also covers the deadline case, since closing after
// the deadline just stops further answers.
func (e *Engine) CloseQuestion(code string, index int) error {
	code = NormalizeCode(code)
	var event EventRecord
	err := e.store.Mutate(code, func(session *Session) error {
		if err := requireStatus(session, StatusActive, StatusPaused); err != nil {
			return err
		}
		if index < 0 || index >= len(session.Questions) {
			return fmt.Errorf("%w: question %d", ErrNotFound, index)
		}
		question := &session.Questions[index]
		if !question.Open {
			return fmt.Errorf("%w: question %d is not open", ErrInvalidTransition, index)
		}
		question.Open = false
		question.Closed = true
		event = appendEvent(session, EventQuestionClosed, EventPayload{
			QuestionIndex: index,
			Count:         len(question.Answers),
		})
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("question closed code=%s index=%d", code, index)
	e.persistQuestion(code, index)
	e.persistEvent(code, event)
	return nil
}
