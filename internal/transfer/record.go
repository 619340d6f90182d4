// Package transfer holds the transfer record model and the event state machine.
package transfer

import (
	"fmt"

	"github.com/relaywatch/relaywatch/internal/units"
)

// Actions a transfer can perform.
const (
	ActionCopy = "copy"
	ActionMove = "move"
)

// Icon names selected by the reducer, matching the UI icon set.
const (
	IconArchive = "folder_zip"
	IconUpload  = "drive_folder_upload"
	IconExtract = "drive_file_move"
	IconDone    = "done"
	IconCancel  = "highlight_off"
	IconError   = "error_outline"
)

// StatusStarting is the status of a freshly created record.
const StatusStarting = "Starting"

// Agent is the remote destination of a transfer.
type Agent struct {
	Host string `json:"host"`
	Port string `json:"port"`
}

func (a Agent) String() string {
	return a.Host + ":" + a.Port
}

// Item is one source/destination path pair within a transfer batch.
type Item struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Record is the view-model for one in-flight or recently finished transfer.
type Record struct {
	TransferID  string     `json:"transferID"`
	Action      string     `json:"action"`
	Agent       Agent      `json:"agent"`
	Items       []Item     `json:"items"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Icon        string     `json:"icon"`
	Stats       units.Pair `json:"stats"`
	Pending     bool       `json:"pending"`
	Canceled    bool       `json:"canceled"`
	Error       bool       `json:"error"`
	Cancelable  bool       `json:"cancelable"`
	ShowDetails bool       `json:"showDetails"`
}

// Seed carries the fields needed to build a record. Status, Icon and Stats
// are optional; zero values fall back to the initial-state defaults. Records
// restored from storage arrive with their persisted terminal flags set.
type Seed struct {
	TransferID string
	Action     string
	Agent      Agent
	Items      []Item
	Status     string
	Icon       string
	Stats      units.Pair
	Pending    bool
	Canceled   bool
	Error      bool
}

// NewRecord builds a record from a seed, deriving the display title from the
// action, item count and destination agent. The title is never re-derived.
func NewRecord(seed Seed) Record {
	status := seed.Status
	if status == "" {
		status = StatusStarting
	}
	icon := seed.Icon
	if icon == "" {
		icon = IconArchive
	}

	var title string
	switch seed.Action {
	case ActionCopy:
		title = "Copying "
	case ActionMove:
		title = "Moving "
	}
	plural := ""
	if len(seed.Items) > 1 {
		plural = "s"
	}
	title += fmt.Sprintf("%d item%s to %s", len(seed.Items), plural, seed.Agent)

	return Record{
		TransferID: seed.TransferID,
		Action:     seed.Action,
		Agent:      seed.Agent,
		Items:      seed.Items,
		Title:      title,
		Status:     status,
		Icon:       icon,
		Stats:      seed.Stats,
		Pending:    seed.Pending,
		Canceled:   seed.Canceled,
		Error:      seed.Error,
		Cancelable: true,
	}
}

// Terminal reports whether the record has reached a final state.
func (r Record) Terminal() bool {
	return !r.Pending
}
