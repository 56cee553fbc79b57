package engine

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateCode     = errors.New("session code already in use")
	ErrNotJoinable       = errors.New("session is not joinable")
	ErrNicknameTaken     = errors.New("nickname already taken")
	ErrInvalidTransition = errors.New("action not allowed in current status")
	ErrAlreadyClaimed    = errors.New("prize already claimed")
	ErrAlreadyAnswered   = errors.New("answer already recorded")
	ErrQuestionOpen      = errors.New("a question is already open")
	ErrPoolExhausted     = errors.New("draw pool exhausted")
	ErrWindowClosed      = errors.New("answer window closed")
)
