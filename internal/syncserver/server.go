package syncserver

import (
	"errors"
	"net/http"
	"strings"

	"todoboard/internal/format"
	"todoboard/internal/replica"

	"github.com/sirupsen/logrus"
)

type ServerConfig struct {
	Addr string
}

// Server exposes one replica to peers: GET /sync runs the sync protocol over a
// websocket, GET /snapshot returns the board as JSON.
type Server struct {
	cfg ServerConfig
	rep *replica.Replica
	log logrus.FieldLogger
}

func NewServer(cfg ServerConfig, rep *replica.Replica, log logrus.FieldLogger) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("syncserver: missing addr")
	}
	if rep == nil {
		return nil, errors.New("syncserver: missing replica")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{cfg: cfg, rep: rep, log: log}, nil
}

func (s *Server) Addr() string {
	return strings.TrimSpace(s.cfg.Addr)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sync", s.handleSync)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

type snapshotVM struct {
	Heads []string `json:"heads"`
	Board any      `json:"board"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.rep.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := format.WriteJSON(w, snapshotVM{Heads: s.rep.Heads(), Board: snap}, false); err != nil {
		s.log.WithError(err).Warn("write snapshot")
	}
}
