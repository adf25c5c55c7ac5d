package server

import (
	"encoding/json"
	"net/http"

	"github.com/zeusync/rigidsim/internal/core/observability/log"
	"github.com/zeusync/rigidsim/internal/simulation"
)

type statsResponse struct {
	Simulation simulation.Stats `json:"simulation"`
	Server     Stats            `json:"server"`
}

// Handler routes the stream endpoint, GET /frame, GET /stats and
// GET /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+s.config.StreamPath, s.handleStream)
	mux.HandleFunc("GET /frame", s.handleFrame)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.source.Latest())
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, statsResponse{
		Simulation: s.source.Stats(),
		Server:     s.GetStats(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", log.Error(err))
	}
}
