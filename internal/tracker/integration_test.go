package tracker

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/relaywatch/relaywatch/internal/agentapi"
	"github.com/relaywatch/relaywatch/internal/agentmock"
	"github.com/relaywatch/relaywatch/internal/logging"
	"github.com/relaywatch/relaywatch/internal/sse"
	"github.com/relaywatch/relaywatch/internal/store"
	"github.com/relaywatch/relaywatch/internal/transfer"
)

// endToEnd wires a tracker to a mock agent over real HTTP and SSE.
func endToEnd(t *testing.T, script []string) (*Tracker, *agentapi.Client) {
	t.Helper()
	log := logging.NewWithWriter(io.Discard, "test", "error")

	mock := agentmock.NewServer(log)
	mock.Script = script
	mock.Interval = time.Millisecond
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)

	api := agentapi.NewClient(srv.URL)

	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	tr := New(log, store.NewTransferStore(fs), ClientStreams(sse.NewClient(log)), api.StreamURL)
	tr.SettleDelay = 5 * time.Millisecond
	return tr, api
}

func waitForTerminal(t *testing.T, tr *Tracker, id string) transfer.Record {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec, ok := tr.Get(id)
		if ok && rec.Terminal() {
			return rec
		}
		if time.Now().After(deadline) {
			t.Fatalf("transfer %s never reached a terminal state: %+v", id, rec)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEndToEnd_CopyCompletes(t *testing.T) {
	tr, api := endToEnd(t, nil) // default script ends in complete

	agent := transfer.Agent{Host: "10.0.0.7", Port: "8585"}
	items := []agentapi.Item{{Source: "/files/a", Destination: "/backup/a"}}
	id, err := api.StartTransfer(context.Background(), agent, transfer.ActionCopy, items, true)
	if err != nil {
		t.Fatalf("StartTransfer error: %v", err)
	}

	tr.Create(context.Background(), transfer.Seed{
		TransferID: id,
		Action:     transfer.ActionCopy,
		Agent:      agent,
		Items:      []transfer.Item{{Source: "/files/a", Destination: "/backup/a"}},
		Pending:    true,
	})

	rec := waitForTerminal(t, tr, id)
	if rec.Status != "complete" || rec.Icon != transfer.IconDone {
		t.Errorf("final record = %q/%q, want complete/done", rec.Status, rec.Icon)
	}
	if rec.Canceled || rec.Error {
		t.Errorf("final flags = %+v", rec)
	}

	if act := tr.Activity(); act.Active != 0 || act.Errored != 0 {
		t.Errorf("final activity = %+v, want zero", act)
	}
}

func TestEndToEnd_CancelArrivesAsSignal(t *testing.T) {
	// A long script gives the cancel request time to land mid-transfer.
	script := []string{
		"archiving", "starting upload", "uploading", "uploading", "uploading",
		"uploading", "uploading", "uploading", "uploading", "uploading",
		"uploading", "uploading", "uploading", "uploading", "complete",
	}
	tr, api := endToEnd(t, script)

	agent := transfer.Agent{Host: "10.0.0.7", Port: "8585"}
	id, err := api.StartTransfer(context.Background(), agent, transfer.ActionMove,
		[]agentapi.Item{{Source: "/a", Destination: "/b"}}, false)
	if err != nil {
		t.Fatalf("StartTransfer error: %v", err)
	}
	tr.Create(context.Background(), transfer.Seed{
		TransferID: id,
		Action:     transfer.ActionMove,
		Agent:      agent,
		Items:      []transfer.Item{{Source: "/a", Destination: "/b"}},
		Pending:    true,
	})

	if err := api.CancelTransfer(context.Background(), agent, id); err != nil {
		t.Fatalf("CancelTransfer error: %v", err)
	}

	rec := waitForTerminal(t, tr, id)
	if !rec.Canceled {
		t.Errorf("final record not canceled: %+v", rec)
	}
	if rec.Status != "Canceled by user" {
		t.Errorf("Status = %q, want cancellation reason", rec.Status)
	}
}

func TestEndToEnd_ErrorMessageSurfaces(t *testing.T) {
	tr, api := endToEnd(t, []string{"archiving", "permission denied: /backup"})

	agent := transfer.Agent{Host: "10.0.0.7", Port: "8585"}
	id, err := api.StartTransfer(context.Background(), agent, transfer.ActionCopy,
		[]agentapi.Item{{Source: "/a", Destination: "/b"}}, false)
	if err != nil {
		t.Fatalf("StartTransfer error: %v", err)
	}
	tr.Create(context.Background(), transfer.Seed{
		TransferID: id,
		Action:     transfer.ActionCopy,
		Agent:      agent,
		Items:      []transfer.Item{{Source: "/a", Destination: "/b"}},
		Pending:    true,
	})

	rec := waitForTerminal(t, tr, id)
	if !rec.Error {
		t.Errorf("final record not errored: %+v", rec)
	}
	if rec.Status != "permission denied: /backup" {
		t.Errorf("Status = %q, want raw agent message", rec.Status)
	}
	if rec.Icon != transfer.IconError {
		t.Errorf("Icon = %q, want %q", rec.Icon, transfer.IconError)
	}
}
