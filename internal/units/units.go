// Package units renders raw byte counts as display tuples for the UI.
package units

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit labels selected by FormatBytes.
const (
	KB = "KB"
	MB = "MB"
	GB = "GB"
)

const (
	kib = 1024
	mib = 1024 * 1024
	gib = 1024 * 1024 * 1024
)

// Size is a human-readable byte count split into display parts,
// e.g. 5242880 bytes -> {Int: "5", Frac: "00", Unit: "MB"}.
type Size struct {
	Int  string `json:"int"`
	Frac string `json:"frac"`
	Unit string `json:"unit"`
}

// IsZero reports whether s carries no formatted value.
func (s Size) IsZero() bool {
	return s == Size{}
}

// String renders the size as "<int>.<frac> <unit>".
func (s Size) String() string {
	if s.IsZero() {
		return ""
	}
	return s.Int + "." + s.Frac + " " + s.Unit
}

// FormatBytes converts a non-negative byte count into a Size. Unit brackets
// are exclusive on the upper bound: anything below 1 MiB formats as KB,
// below 1 GiB as MB, everything else as GB. The quotient is rounded to two
// fractional digits; the result is display-only precision.
func FormatBytes(b int64) Size {
	var quotient float64
	var unit string
	switch {
	case b < mib:
		quotient = float64(b) / kib
		unit = KB
	case b < gib:
		quotient = float64(b) / mib
		unit = MB
	default:
		quotient = float64(b) / gib
		unit = GB
	}

	fixed := strconv.FormatFloat(quotient, 'f', 2, 64)
	intPart, fracPart, _ := strings.Cut(fixed, ".")
	return Size{Int: intPart, Frac: fracPart, Unit: unit}
}

// Pair holds formatted progress and total sizes for one transfer.
type Pair struct {
	Progress Size `json:"progress"`
	Total    Size `json:"total"`
}

// ParsePair parses a "<progress>/<total>" byte pair, as carried in the
// extra field of progress events, into formatted sizes.
func ParsePair(raw string) (Pair, error) {
	progressRaw, totalRaw, ok := strings.Cut(raw, "/")
	if !ok {
		return Pair{}, fmt.Errorf("malformed byte pair %q", raw)
	}
	progress, err := strconv.ParseInt(progressRaw, 10, 64)
	if err != nil {
		return Pair{}, fmt.Errorf("parse progress bytes: %w", err)
	}
	total, err := strconv.ParseInt(totalRaw, 10, 64)
	if err != nil {
		return Pair{}, fmt.Errorf("parse total bytes: %w", err)
	}
	return Pair{Progress: FormatBytes(progress), Total: FormatBytes(total)}, nil
}
