// Package tracker owns the authoritative in-memory collection of transfer
// records, drives it from agent event streams, and writes every change
// through to the durable store.
package tracker

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/relaywatch/relaywatch/internal/event"
	"github.com/relaywatch/relaywatch/internal/sse"
	"github.com/relaywatch/relaywatch/internal/store"
	"github.com/relaywatch/relaywatch/internal/transfer"
	"github.com/relaywatch/relaywatch/internal/units"
)

// settleDelay gives an immediately-following UI transition time to settle
// before the aggregate activity signal is recomputed and pushed. This is a
// debounce, not a correctness requirement.
const settleDelay = 100 * time.Millisecond

// Subscription is the handle the tracker keeps per open event stream.
type Subscription interface {
	Close()
}

// Streams opens one event stream per transfer identifier.
type Streams interface {
	Subscribe(ctx context.Context, url string, h sse.Handler) Subscription
}

// ClientStreams adapts an sse.Client to the Streams interface.
func ClientStreams(c *sse.Client) Streams {
	return clientStreams{c}
}

type clientStreams struct {
	c *sse.Client
}

func (s clientStreams) Subscribe(ctx context.Context, url string, h sse.Handler) Subscription {
	return s.c.Subscribe(ctx, url, h)
}

// Notifier receives the recomputed activity signal after terminal
// transitions settle.
type Notifier interface {
	Broadcast(v any)
}

// Tracker is the transfer registry. All mutation is copy-on-write: updates
// build a new record and swap a cloned collection, so concurrent readers see
// either the old or the new collection, never a partial one.
type Tracker struct {
	log       *slog.Logger
	store     *store.TransferStore
	streams   Streams
	streamURL func(transferID string) string

	// Notifier, if set, is invoked with the Activity after each settle.
	Notifier Notifier
	// SettleDelay overrides the default debounce; tests shorten it.
	SettleDelay time.Duration

	mu      sync.Mutex
	records []transfer.Record
	subs    map[string]Subscription
}

// New creates a tracker over the given durable store and stream opener.
// streamURL maps a transfer identifier to its event-stream endpoint.
func New(log *slog.Logger, ts *store.TransferStore, streams Streams, streamURL func(string) string) *Tracker {
	return &Tracker{
		log:         log,
		store:       ts,
		streams:     streams,
		streamURL:   streamURL,
		SettleDelay: settleDelay,
		subs:        make(map[string]Subscription),
	}
}

// Create builds a record from the seed, registers it, persists it, and opens
// its event stream unless the record is already canceled or terminal. The
// subscription is owned by the record and never reopened once closed.
func (t *Tracker) Create(ctx context.Context, seed transfer.Seed) transfer.Record {
	rec := transfer.NewRecord(seed)

	t.mu.Lock()
	t.records = append(slices.Clone(t.records), rec)
	if rec.Pending && !rec.Canceled {
		t.subs[rec.TransferID] = t.streams.Subscribe(ctx, t.streamURL(rec.TransferID), t.handler(rec.TransferID))
	}
	t.mu.Unlock()

	if err := t.store.Add(rec); err != nil {
		t.log.Error("persist transfer", "transfer_id", rec.TransferID, "error", err)
	}
	t.log.Info("transfer registered", "transfer_id", rec.TransferID, "title", rec.Title)
	return rec
}

// Restore reloads persisted transfers after a restart, resubscribing the
// ones that were still pending.
func (t *Tracker) Restore(ctx context.Context) error {
	snapshots, err := t.store.Load()
	if err != nil {
		return err
	}
	for _, snap := range snapshots {
		t.Create(ctx, transfer.Seed{
			TransferID: snap.TransferID,
			Action:     snap.Action,
			Agent:      snap.Agent,
			Items:      snap.Items,
			Status:     snap.Status,
			Icon:       snap.Icon,
			Stats:      snap.Stats,
			Pending:    snap.Pending,
			Canceled:   snap.Canceled,
			Error:      snap.Error,
		})
	}
	return nil
}

// Get returns the record for the identifier, if registered.
func (t *Tracker) Get(transferID string) (transfer.Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, rec := range t.records {
		if rec.TransferID == transferID {
			return rec, true
		}
	}
	return transfer.Record{}, false
}

// List returns a copy of the registry in creation order.
func (t *Tracker) List() []transfer.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.records)
}

// Patch carries the mutable fields of an update; nil fields are left
// untouched.
type Patch struct {
	Agent       *transfer.Agent
	Items       *[]transfer.Item
	Status      *string
	Icon        *string
	Stats       *units.Pair
	Pending     *bool
	Canceled    *bool
	Error       *bool
	Cancelable  *bool
	ShowDetails *bool
}

func (p Patch) apply(rec transfer.Record) transfer.Record {
	if p.Agent != nil {
		rec.Agent = *p.Agent
	}
	if p.Items != nil {
		rec.Items = *p.Items
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.Icon != nil {
		rec.Icon = *p.Icon
	}
	if p.Stats != nil {
		rec.Stats = *p.Stats
	}
	if p.Pending != nil {
		rec.Pending = *p.Pending
	}
	if p.Canceled != nil {
		rec.Canceled = *p.Canceled
	}
	if p.Error != nil {
		rec.Error = *p.Error
	}
	if p.Cancelable != nil {
		rec.Cancelable = *p.Cancelable
	}
	if p.ShowDetails != nil {
		rec.ShowDetails = *p.ShowDetails
	}
	return rec
}

// Update merges the patch into the matching record and persists the result.
// An unknown identifier is a silent no-op; the event path guarantees the
// identifier exists by construction.
func (t *Tracker) Update(transferID string, patch Patch) {
	t.mu.Lock()
	idx := t.indexLocked(transferID)
	if idx < 0 {
		t.mu.Unlock()
		return
	}
	next := patch.apply(t.records[idx])
	records := slices.Clone(t.records)
	records[idx] = next
	t.records = records
	t.mu.Unlock()

	if err := t.store.Update(next); err != nil {
		t.log.Error("persist transfer", "transfer_id", transferID, "error", err)
	}
}

// Remove dismisses a transfer: the record, its durable keys, and any open
// subscription are all dropped.
func (t *Tracker) Remove(transferID string) {
	t.mu.Lock()
	records := make([]transfer.Record, 0, len(t.records))
	for _, rec := range t.records {
		if rec.TransferID != transferID {
			records = append(records, rec)
		}
	}
	t.records = records
	sub := t.subs[transferID]
	delete(t.subs, transferID)
	t.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	if err := t.store.Remove(transferID); err != nil {
		t.log.Error("remove transfer", "transfer_id", transferID, "error", err)
	}
	t.log.Info("transfer removed", "transfer_id", transferID)
}

// Activity recomputes the aggregate signal from the current registry.
func (t *Tracker) Activity() transfer.Activity {
	return transfer.ComputeActivity(t.List())
}

// handler builds the event callback for one transfer's stream. Events are
// delivered sequentially per subscription, so per-transfer ordering holds.
func (t *Tracker) handler(transferID string) sse.Handler {
	return func(ev sse.Event) {
		if !ev.Trusted {
			return
		}
		t.applyEvent(transferID, ev.Data)
	}
}

func (t *Tracker) applyEvent(transferID, raw string) {
	decoded := event.Decode(raw)

	t.mu.Lock()
	idx := t.indexLocked(transferID)
	if idx < 0 {
		t.mu.Unlock()
		return
	}
	next := transfer.Reduce(t.records[idx], decoded)
	records := slices.Clone(t.records)
	records[idx] = next
	t.records = records

	var sub Subscription
	if next.Terminal() {
		sub = t.subs[transferID]
		delete(t.subs, transferID)
	}
	t.mu.Unlock()

	// Registry and durable store are updated before the aggregate signal
	// recompute is scheduled.
	if err := t.store.Update(next); err != nil {
		t.log.Error("persist transfer", "transfer_id", transferID, "error", err)
	}

	t.log.Debug("transfer event applied", "transfer_id", transferID,
		"message", decoded.Message, "status", next.Status, "pending", next.Pending)

	if next.Terminal() {
		if sub != nil {
			sub.Close()
		}
		t.scheduleSettle()
	}
}

func (t *Tracker) scheduleSettle() {
	time.AfterFunc(t.SettleDelay, func() {
		act := t.Activity()
		if t.Notifier != nil {
			t.Notifier.Broadcast(act)
		}
		t.log.Debug("activity recomputed", "active", act.Active, "errored", act.Errored)
	})
}

func (t *Tracker) indexLocked(transferID string) int {
	for i, rec := range t.records {
		if rec.TransferID == transferID {
			return i
		}
	}
	return -1
}
