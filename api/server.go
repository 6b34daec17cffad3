// Package api exposes a small read-only HTTP surface over a running bridge:
// the latest flattened poses, slot traffic counters and recorded sessions.
// It is a debugging aid, not a delivery path; the consumer boundary stays
// the in-process poll.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/banshee-data/mocap.bridge/internal/bridge"
	"github.com/banshee-data/mocap.bridge/internal/monitoring"
	"github.com/banshee-data/mocap.bridge/internal/recorder"
)

// BridgeState is the daemon-side view the API reads from. The daemon keeps
// a copy of the most recent successful poll, so serving HTTP never touches
// the slot itself.
type BridgeState interface {
	LatestPoses() []bridge.FlatPoseRecord
	SlotStats() bridge.SlotStats
	Truncations() uint64
}

// SessionStore lists recorded sessions. May be nil when recording is off.
type SessionStore interface {
	Sessions() ([]recorder.Session, error)
}

type Server struct {
	state BridgeState
	store SessionStore
}

// NewServer creates an API server over the given daemon state. store may be
// nil; /sessions then reports that recording is disabled.
func NewServer(state BridgeState, store SessionStore) *Server {
	return &Server{state: state, store: store}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/poses", s.listPoses)
	mux.HandleFunc("/stats", s.showStats)
	mux.HandleFunc("/sessions", s.listSessions)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("mocap bridge: see /poses, /stats, /sessions\n"))
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("api: failed to encode response: %v", err)
	}
}

func (s *Server) listPoses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	poses := s.state.LatestPoses()
	s.writeJSON(w, map[string]interface{}{
		"count": len(poses),
		"poses": poses,
	})
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"slot":        s.state.SlotStats(),
		"truncations": s.state.Truncations(),
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "recording disabled", http.StatusNotFound)
		return
	}
	sessions, err := s.store.Sessions()
	if err != nil {
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, sessions)
}
