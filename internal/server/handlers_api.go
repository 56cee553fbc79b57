package server

import (
	"net/http"
	"strconv"
	"strings"

	"bingo-night/internal/engine"
)

type createSessionRequest struct {
	Code      string `json:"code"`
	MaxRounds int    `json:"max_rounds"`
	Mode      string `json:"mode"`
	Variant   string `json:"variant"`
}

type joinRequest struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	TeamID   int    `json:"team_id"`
}

type markRequest struct {
	Nickname string `json:"nickname"`
	Cell     int    `json:"cell"`
	Marked   bool   `json:"marked"`
}

type heartbeatRequest struct {
	Nickname string `json:"nickname"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type openQuestionRequest struct {
	Index int `json:"index"`
}

type closeQuestionRequest struct {
	Index int `json:"index"`
}

type answerRequest struct {
	Nickname string `json:"nickname"`
	Index    int    `json:"index"`
	Choice   int    `json:"choice"`
}

type claimRequest struct {
	Nickname string `json:"nickname"`
	Kind     string `json:"kind"`
}

type teamRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type addQuestionRequest struct {
	Prompt       string   `json:"prompt"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correct_index"`
	TimeLimitSec int      `json:"time_limit_sec"`
	Points       int      `json:"points"`
	Category     string   `json:"category"`
	Difficulty   string   `json:"difficulty"`
	MediaURL     string   `json:"media_url"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	summaries := s.engine.ListSessions()
	sessions := make([]map[string]any, 0, len(summaries))
	for _, summary := range summaries {
		sessions = append(sessions, map[string]any{
			"code":    summary.Code,
			"status":  summary.Status,
			"mode":    summary.Mode,
			"players": summary.Players,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	code, err := validateCode(req.Code)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snapshot, err := s.engine.CreateSession(engine.SessionConfig{
		Code:      code,
		MaxRounds: req.MaxRounds,
		Mode:      req.Mode,
		Variant:   req.Variant,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

func (s *Server) handleSessionSubroutes(w http.ResponseWriter, r *http.Request) {
	code, action, ok := parseSessionPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		switch action {
		case "":
			s.handleGetSession(w, r, code)
		case "events":
			s.handleEvents(w, r, code)
		default:
			http.NotFound(w, r)
		}
	case http.MethodPost:
		switch action {
		case "join":
			s.handleJoin(w, r, code)
		case "draw":
			s.handleDraw(w, r, code)
		case "mark":
			s.handleMark(w, r, code)
		case "heartbeat":
			s.handleHeartbeat(w, r, code)
		case "advance":
			s.handleAdvance(w, r, code)
		case "status":
			s.handleStatus(w, r, code)
		case "claims":
			s.handleClaim(w, r, code)
		case "answers":
			s.handleAnswer(w, r, code)
		case "questions":
			s.handleAddQuestion(w, r, code)
		case "questions/open":
			s.handleOpenQuestion(w, r, code)
		case "questions/close":
			s.handleCloseQuestion(w, r, code)
		case "teams":
			s.handleCreateTeam(w, r, code)
		default:
			http.NotFound(w, r)
		}
	case http.MethodDelete:
		switch {
		case action == "":
			s.handleDeleteSession(w, r, code)
		case strings.HasPrefix(action, "teams/"):
			s.handleDeleteTeam(w, r, code, strings.TrimPrefix(action, "teams/"))
		default:
			http.NotFound(w, r)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, code string) {
	snapshot, err := s.engine.State(code)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, code string) {
	after := int64(0)
	if raw := r.URL.Query().Get("after"); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || value < 0 {
			writeError(w, http.StatusBadRequest, "after must be a non-negative integer")
			return
		}
		after = value
	}
	events, err := s.engine.EventsSince(code, after)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	payload := make([]map[string]any, 0, len(events))
	for _, record := range events {
		payload = append(payload, map[string]any{
			"seq":     record.Seq,
			"type":    record.Type,
			"payload": record.Payload,
			"at":      record.At,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": payload,
	})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request, code string) {
	var req joinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "nickname is required")
		return
	}
	nickname, err := validateNickname(req.Nickname)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	player, err := s.engine.Join(code, engine.JoinRequest{
		Nickname: nickname,
		Avatar:   req.Avatar,
		TeamID:   req.TeamID,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	marks := make([]bool, engine.BoardCells)
	for i := range marks {
		marks[i] = player.Marks.Get(i)
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"nickname": player.Nickname,
		"avatar":   player.Avatar,
		"board":    player.Board,
		"marks":    marks,
	})
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request, code string) {
	number, err := s.engine.DrawNext(code)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"number": number,
		"letter": engine.Letter(number),
	})
}

func (s *Server) handleMark(w http.ResponseWriter, r *http.Request, code string) {
	var req markRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.engine.MarkCell(code, req.Nickname, req.Cell, req.Marked); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request, code string) {
	var req heartbeatRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.engine.Heartbeat(code, req.Nickname); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request, code string) {
	if err := s.engine.AdvanceRound(code); err != nil {
		writeEngineError(w, err)
		return
	}
	snapshot, err := s.engine.State(code)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, code string) {
	var req statusRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.engine.SetStatus(code, req.Status); err != nil {
		writeEngineError(w, err)
		return
	}
	snapshot, err := s.engine.State(code)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request, code string) {
	var req claimRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	claim, err := s.engine.ClaimPrize(code, req.Nickname, req.Kind)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":       req.Kind,
		"claimed_by": claim.Nickname,
		"claimed_at": claim.At,
	})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request, code string) {
	var req answerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	record, err := s.engine.SubmitAnswer(code, req.Nickname, req.Index, req.Choice)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"correct":    record.Correct,
		"points":     record.Points,
		"latency_ms": record.LatencyMs,
	})
}

func (s *Server) handleAddQuestion(w http.ResponseWriter, r *http.Request, code string) {
	var req addQuestionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateQuestion(req.Prompt, req.Choices); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	index, err := s.engine.AddQuestion(code, engine.NewQuestion{
		Prompt:       req.Prompt,
		Choices:      req.Choices,
		CorrectIndex: req.CorrectIndex,
		TimeLimitSec: req.TimeLimitSec,
		Points:       req.Points,
		Category:     req.Category,
		Difficulty:   req.Difficulty,
		MediaURL:     req.MediaURL,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"index": index})
}

func (s *Server) handleOpenQuestion(w http.ResponseWriter, r *http.Request, code string) {
	var req openQuestionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.engine.OpenQuestion(code, req.Index); err != nil {
		writeEngineError(w, err)
		return
	}
	snapshot, err := s.engine.State(code)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleCloseQuestion(w http.ResponseWriter, r *http.Request, code string) {
	var req closeQuestionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.engine.CloseQuestion(code, req.Index); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request, code string) {
	var req teamRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name, err := validateTeamName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	team, err := s.engine.CreateTeam(code, name, req.Color)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    team.ID,
		"name":  team.Name,
		"color": team.Color,
	})
}

func (s *Server) handleDeleteTeam(w http.ResponseWriter, r *http.Request, code, rawID string) {
	teamID, err := strconv.Atoi(rawID)
	if err != nil || teamID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	if err := s.engine.DeleteTeam(code, teamID); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request, code string) {
	if err := s.engine.DeleteSession(code); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
