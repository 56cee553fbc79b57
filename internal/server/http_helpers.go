package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"bingo-night/internal/engine"
)

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeEngineError maps engine error kinds onto HTTP statuses. The error
// text carries the context (current status, claimant) the caller needs to
// render a message without another round trip.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrDuplicateCode),
		errors.Is(err, engine.ErrNicknameTaken),
		errors.Is(err, engine.ErrAlreadyClaimed),
		errors.Is(err, engine.ErrAlreadyAnswered),
		errors.Is(err, engine.ErrQuestionOpen),
		errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrNotJoinable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrPoolExhausted),
		errors.Is(err, engine.ErrWindowClosed):
		writeError(w, http.StatusGone, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
