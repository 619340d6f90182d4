// Package agentmock implements the agent API surface for local development
// and tests: transfer initiation, cancellation, resource listing, and the
// per-transfer event stream speaking the plain-text micro-format.
package agentmock

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultScript is the event sequence emitted for each transfer unless the
// server is configured otherwise.
var DefaultScript = []string{
	"archiving",
	"starting upload",
	"uploading",
	"progress::stats::5242880/10485760",
	"extracting",
	"complete",
}

// Server is an in-process mock agent.
type Server struct {
	// Script is the event sequence per transfer (DefaultScript if nil).
	Script []string
	// Interval is the gap between scripted events (default 250ms).
	Interval time.Duration

	log       *slog.Logger
	mu        sync.Mutex
	transfers map[string]*mockTransfer
}

type mockTransfer struct {
	events chan string
	cancel chan struct{}
	once   sync.Once
}

// NewServer returns a mock agent with the default script.
func NewServer(log *slog.Logger) *Server {
	return &Server{
		log:       log,
		transfers: make(map[string]*mockTransfer),
	}
}

// Handler returns the HTTP surface of the mock agent.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sse/transfers/", s.handleStream)
	mux.HandleFunc("/api/remote/", s.handleRemote)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})
	return mux
}

// handleRemote routes /api/remote/{host}/{port}/{copy|transfers|resources}/...
func (s *Server) handleRemote(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 5 {
		http.NotFound(w, r)
		return
	}
	// parts[0]=api parts[1]=remote parts[2]=host parts[3]=port
	switch parts[4] {
	case "copy":
		s.handleStart(w, r)
	case "transfers":
		if len(parts) < 6 {
			http.NotFound(w, r)
			return
		}
		s.handleCancel(w, r, parts[5])
	case "resources":
		s.handleResources(w, r, strings.Join(parts[5:], "/"))
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var items []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		http.Error(w, "malformed item batch", http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	mt := &mockTransfer{
		events: make(chan string, 16),
		cancel: make(chan struct{}),
	}
	s.mu.Lock()
	s.transfers[id] = mt
	s.mu.Unlock()
	go s.runScript(mt)

	s.log.Info("transfer started", "transfer_id", id, "items", len(items),
		"action", r.URL.Query().Get("action"))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"transferID": id})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	mt, ok := s.transfers[id]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	mt.once.Do(func() { close(mt.cancel) })
	s.log.Info("transfer canceled", "transfer_id", id)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request, path string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	node := map[string]any{
		"name":  path,
		"isDir": true,
		"size":  0,
		"items": []map[string]any{
			{"name": "report.pdf", "isDir": false, "size": 524288},
			{"name": "media", "isDir": true, "size": 0},
		},
	}
	inner, err := json.Marshal(node)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	// The real agent returns a JSON-encoded JSON string; keep the double
	// encoding so clients exercise the same decode path.
	json.NewEncoder(w).Encode(string(inner))
}

// handleStream serves /api/sse/transfers/{id}/poll.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 5 || parts[4] != "poll" {
		http.NotFound(w, r)
		return
	}
	id := parts[3]

	s.mu.Lock()
	mt, ok := s.transfers[id]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case ev, open := <-mt.events:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", ev)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) runScript(mt *mockTransfer) {
	defer close(mt.events)
	for _, ev := range s.script() {
		select {
		case <-mt.cancel:
			mt.events <- "signal::user::Canceled by user"
			return
		case <-time.After(s.interval()):
		}
		mt.events <- ev
	}
}

func (s *Server) script() []string {
	if s.Script != nil {
		return s.Script
	}
	return DefaultScript
}

func (s *Server) interval() time.Duration {
	if s.Interval > 0 {
		return s.Interval
	}
	return 250 * time.Millisecond
}
