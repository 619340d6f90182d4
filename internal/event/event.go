// Package event decodes the agent's plain-text event micro-format.
package event

import "strings"

// Delimiter separates the fields of a raw event payload. Field values must
// not contain it themselves; the format has no escaping.
const Delimiter = "::"

// Event is a decoded agent event. Data and Extra are only meaningful when
// the corresponding Has flag is set.
type Event struct {
	Message  string
	Data     string
	Extra    string
	HasData  bool
	HasExtra bool
}

// Decode parses a raw payload of the form "message[::data[::extra]]".
// A payload without the delimiter yields only the message. Fields past the
// third are ignored.
func Decode(raw string) Event {
	if !strings.Contains(raw, Delimiter) {
		return Event{Message: raw}
	}

	parts := strings.Split(raw, Delimiter)
	ev := Event{
		Message: parts[0],
		Data:    parts[1],
		HasData: true,
	}
	if len(parts) > 2 {
		ev.Extra = parts[2]
		ev.HasExtra = true
	}
	return ev
}
