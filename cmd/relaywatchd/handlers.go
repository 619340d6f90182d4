package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/relaywatch/relaywatch/internal/agentapi"
	"github.com/relaywatch/relaywatch/internal/push"
	"github.com/relaywatch/relaywatch/internal/tracker"
	"github.com/relaywatch/relaywatch/internal/transfer"
)

type server struct {
	log     *slog.Logger
	ctx     context.Context // lifetime for event-stream subscriptions
	tracker *tracker.Tracker
	agents  *agentapi.Client
	hub     *push.Hub
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/transfers", s.handleTransfers)
	mux.HandleFunc("/api/transfers/", s.handleTransfer)
	mux.HandleFunc("/api/activity", s.handleActivity)
	mux.HandleFunc("/api/resources", s.handleResources)
	mux.Handle("/ws", s.hub)
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *server) handleTransfers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.tracker.List())
	case http.MethodPost:
		s.handleStart(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type startRequest struct {
	Action    string          `json:"action"`
	Agent     transfer.Agent  `json:"agent"`
	Items     []transfer.Item `json:"items"`
	Overwrite bool            `json:"overwrite"`
	Rename    bool            `json:"rename"`
	Compress  bool            `json:"compress"`
}

func (s *server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if req.Action != transfer.ActionCopy && req.Action != transfer.ActionMove {
		http.Error(w, "action must be copy or move", http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		http.Error(w, "items must not be empty", http.StatusBadRequest)
		return
	}

	items := make([]agentapi.Item, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, agentapi.Item{
			Source:      item.Source,
			Destination: item.Destination,
			Overwrite:   req.Overwrite,
			Rename:      req.Rename,
		})
	}

	transferID, err := s.agents.StartTransfer(r.Context(), req.Agent, req.Action, items, req.Compress)
	if err != nil {
		s.log.Error("start transfer", "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	// The subscription must outlive this request; it is bound to the
	// daemon's lifetime, not the caller's.
	rec := s.tracker.Create(s.ctx, transfer.Seed{
		TransferID: transferID,
		Action:     req.Action,
		Agent:      req.Agent,
		Items:      req.Items,
		Pending:    true,
	})
	writeJSON(w, rec)
}

// handleTransfer routes /api/transfers/{id}[/dismiss|/details].
func (s *server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 3 {
		http.NotFound(w, r)
		return
	}
	transferID := parts[2]
	rec, ok := s.tracker.Get(transferID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(parts) == 3 && r.Method == http.MethodGet:
		writeJSON(w, rec)
	case len(parts) == 3 && r.Method == http.MethodDelete:
		s.handleCancel(w, r, rec)
	case len(parts) == 4 && parts[3] == "dismiss" && r.Method == http.MethodPost:
		s.tracker.Remove(transferID)
		w.WriteHeader(http.StatusOK)
	case len(parts) == 4 && parts[3] == "details" && r.Method == http.MethodPost:
		s.handleDetails(w, r, transferID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleCancel forwards the cancel request to the agent. The record is not
// touched here: cancellation completes only when the terminal signal event
// arrives on the transfer's stream.
func (s *server) handleCancel(w http.ResponseWriter, r *http.Request, rec transfer.Record) {
	if !rec.Cancelable {
		http.Error(w, "transfer is not cancelable right now", http.StatusConflict)
		return
	}
	if err := s.agents.CancelTransfer(r.Context(), rec.Agent, rec.TransferID); err != nil {
		s.log.Error("cancel transfer", "transfer_id", rec.TransferID, "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *server) handleDetails(w http.ResponseWriter, r *http.Request, transferID string) {
	var body struct {
		ShowDetails bool `json:"showDetails"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	s.tracker.Update(transferID, tracker.Patch{ShowDetails: &body.ShowDetails})
	rec, _ := s.tracker.Get(transferID)
	writeJSON(w, rec)
}

func (s *server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.tracker.Activity())
}

// handleResources proxies remote directory listings to the agent.
func (s *server) handleResources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	agent := transfer.Agent{
		Host: r.URL.Query().Get("host"),
		Port: r.URL.Query().Get("port"),
	}
	if agent.Host == "" || agent.Port == "" {
		http.Error(w, "host and port are required", http.StatusBadRequest)
		return
	}
	res, err := s.agents.GetResource(r.Context(), agent, r.URL.Query().Get("path"))
	if err != nil {
		s.log.Error("list resources", "agent", agent, "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, res)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
