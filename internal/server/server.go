package server

import (
	"net/http"

	"bingo-night/internal/config"
	"bingo-night/internal/engine"

	"gorm.io/gorm"
)

type Server struct {
	engine *engine.Engine
	cfg    config.Config
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	return &Server{
		engine: engine.New(conn, cfg),
		cfg:    cfg,
	}
}

// Engine exposes the session engine, mainly for boot-time restore.
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/", s.handleSessionSubroutes)
	mux.HandleFunc("POST /api/sessions/", s.handleSessionSubroutes)
	mux.HandleFunc("DELETE /api/sessions/", s.handleSessionSubroutes)
	return mux
}
