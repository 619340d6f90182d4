package transfer

import (
	"github.com/relaywatch/relaywatch/internal/event"
	"github.com/relaywatch/relaywatch/internal/units"
)

// Agent event messages recognized by the reducer. Anything else is treated
// as a server-reported failure.
const (
	msgArchiving      = "archiving"
	msgStartingUpload = "starting upload"
	msgUploading      = "uploading"
	msgExtracting     = "extracting"
	msgComplete       = "complete"
	msgProgress       = "progress"
	msgSignal         = "signal"

	// progress events whose data field equals this carry a byte pair in extra
	dataStats = "stats"
)

// Reduce computes the next record for one decoded agent event. It is pure:
// the current record is read only to preserve the fields the event does not
// touch (identity, agent, items, title). Unknown messages fail safe into the
// error state with the raw message as status. Reapplying a terminal event
// yields an identical record.
func Reduce(rec Record, ev event.Event) Record {
	next := rec

	switch ev.Message {
	case msgArchiving:
		next.Icon = IconArchive
		next.Cancelable = false
	case msgStartingUpload, msgUploading:
		next.Icon = IconUpload
		next.Cancelable = true
	case msgExtracting:
		next.Icon = IconExtract
		next.Cancelable = false
	case msgProgress:
		next.Icon = IconUpload
		next.Cancelable = true
	case msgComplete:
		next.Status = msgComplete
		next.Icon = IconDone
		next.Pending = false
		next.Canceled = false
		next.Stats = units.Pair{}
		return next
	case msgSignal:
		// The cancellation reason rides in the last populated field.
		next.Status = ev.Extra
		if !ev.HasExtra {
			next.Status = ev.Data
		}
		next.Icon = IconCancel
		next.Pending = false
		next.Canceled = true
		next.Stats = units.Pair{}
		return next
	default:
		// Unknown message: surfaced as a transfer error, never dropped.
		next.Status = ev.Message
		next.Icon = IconError
		next.Pending = false
		next.Canceled = false
		next.Error = true
		return next
	}

	// Non-terminal branches share the bookkeeping below.
	next.Status = ev.Message
	next.Pending = true
	next.Canceled = false
	next.Stats = units.Pair{}

	if ev.Message == msgProgress && ev.Data == dataStats {
		next.Status = msgUploading
		if pair, err := units.ParsePair(ev.Extra); err == nil {
			next.Stats = pair
		}
	}

	return next
}
