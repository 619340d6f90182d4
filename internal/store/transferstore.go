package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/relaywatch/relaywatch/internal/transfer"
	"github.com/relaywatch/relaywatch/internal/units"
)

// indexKey holds the JSON list of known transfer identifiers.
const indexKey = "transfers"

func recordKey(id string) string {
	return "transfer-" + id
}

// Snapshot is the durable subset of a transfer record. Cancelability and the
// details toggle are session state and are not persisted.
type Snapshot struct {
	TransferID string          `json:"transferID"`
	Title      string          `json:"title"`
	Status     string          `json:"status"`
	Icon       string          `json:"icon"`
	Action     string          `json:"action"`
	Agent      transfer.Agent  `json:"agent"`
	Items      []transfer.Item `json:"items"`
	Pending    bool            `json:"pending"`
	Canceled   bool            `json:"canceled"`
	Error      bool            `json:"error"`
	Stats      units.Pair      `json:"stats"`
}

// SnapshotOf extracts the persisted subset from a record.
func SnapshotOf(rec transfer.Record) Snapshot {
	return Snapshot{
		TransferID: rec.TransferID,
		Title:      rec.Title,
		Status:     rec.Status,
		Icon:       rec.Icon,
		Action:     rec.Action,
		Agent:      rec.Agent,
		Items:      rec.Items,
		Pending:    rec.Pending,
		Canceled:   rec.Canceled,
		Error:      rec.Error,
		Stats:      rec.Stats,
	}
}

// TransferStore persists transfer snapshots and the identifier index over a
// KV namespace. Writes are write-through with last-write-wins semantics; the
// mutex keeps index read-modify-write cycles atomic when creations race.
type TransferStore struct {
	mu sync.Mutex
	kv KV
}

// NewTransferStore returns a store over the given namespace.
func NewTransferStore(kv KV) *TransferStore {
	return &TransferStore{kv: kv}
}

// Add registers the record's identifier in the index (if absent) and writes
// its snapshot.
func (s *TransferStore) Add(rec transfer.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.ids()
	if err != nil {
		return err
	}
	known := false
	for _, id := range ids {
		if id == rec.TransferID {
			known = true
			break
		}
	}
	if !known {
		ids = append(ids, rec.TransferID)
		if err := s.writeIndex(ids); err != nil {
			return err
		}
	}
	return s.update(rec)
}

// Update writes the record's snapshot. Records without an identifier are
// skipped.
func (s *TransferStore) Update(rec transfer.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(rec)
}

func (s *TransferStore) update(rec transfer.Record) error {
	if rec.TransferID == "" {
		return nil
	}
	value, err := json.Marshal(SnapshotOf(rec))
	if err != nil {
		return fmt.Errorf("marshal transfer %s: %w", rec.TransferID, err)
	}
	return s.kv.Set(recordKey(rec.TransferID), value)
}

// Remove deletes the identifier from the index and drops the snapshot key.
func (s *TransferStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.ids()
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, known := range ids {
		if known != id {
			kept = append(kept, known)
		}
	}
	if err := s.writeIndex(kept); err != nil {
		return err
	}
	return s.kv.Delete(recordKey(id))
}

// IDs returns the known transfer identifiers in insertion order.
func (s *TransferStore) IDs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids()
}

func (s *TransferStore) ids() ([]string, error) {
	value, err := s.kv.Get(indexKey)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(value, &ids); err != nil {
		return nil, fmt.Errorf("decode transfer index: %w", err)
	}
	return ids, nil
}

// Load reads every indexed snapshot. Identifiers whose snapshot key is
// missing are skipped rather than treated as errors; the index may lag by
// one write.
func (s *TransferStore) Load() ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.ids()
	if err != nil {
		return nil, err
	}
	snapshots := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		value, err := s.kv.Get(recordKey(id))
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		var snap Snapshot
		if err := json.Unmarshal(value, &snap); err != nil {
			return nil, fmt.Errorf("decode transfer %s: %w", id, err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

func (s *TransferStore) writeIndex(ids []string) error {
	value, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal transfer index: %w", err)
	}
	return s.kv.Set(indexKey, value)
}
