package units

import (
	"math"
	"strconv"
	"testing"
)

func TestFormatBytes_UnitSelection(t *testing.T) {
	cases := []struct {
		bytes int64
		unit  string
	}{
		{0, KB},
		{512, KB},
		{1024, KB},
		{1024*1024 - 1, KB},
		{1024 * 1024, MB},
		{5 * 1024 * 1024, MB},
		{1024*1024*1024 - 1, MB},
		{1024 * 1024 * 1024, GB},
		{7 * 1024 * 1024 * 1024, GB},
	}
	for _, tc := range cases {
		got := FormatBytes(tc.bytes)
		if got.Unit != tc.unit {
			t.Errorf("FormatBytes(%d).Unit = %s, want %s", tc.bytes, got.Unit, tc.unit)
		}
	}
}

func TestFormatBytes_Parts(t *testing.T) {
	got := FormatBytes(5 * 1024 * 1024)
	want := Size{Int: "5", Frac: "00", Unit: MB}
	if got != want {
		t.Fatalf("FormatBytes(5MiB) = %+v, want %+v", got, want)
	}

	got = FormatBytes(1536)
	want = Size{Int: "1", Frac: "50", Unit: KB}
	if got != want {
		t.Fatalf("FormatBytes(1536) = %+v, want %+v", got, want)
	}
}

func TestFormatBytes_BoundaryIsExclusive(t *testing.T) {
	// Exactly 1 MiB must land in the MB bracket, not KB.
	got := FormatBytes(1024 * 1024)
	if got.Unit != MB {
		t.Fatalf("FormatBytes(1MiB).Unit = %s, want %s", got.Unit, MB)
	}
	if got.Int != "1" || got.Frac != "00" {
		t.Fatalf("FormatBytes(1MiB) = %+v, want 1.00", got)
	}
}

func TestFormatBytes_RejoinedWithinTolerance(t *testing.T) {
	divisors := map[string]float64{KB: 1024, MB: 1024 * 1024, GB: 1024 * 1024 * 1024}
	for _, b := range []int64{1, 999, 123456, 98765432, 5555555555} {
		got := FormatBytes(b)
		rejoined, err := strconv.ParseFloat(got.Int+"."+got.Frac, 64)
		if err != nil {
			t.Fatalf("rejoined value for %d did not parse: %v", b, err)
		}
		exact := float64(b) / divisors[got.Unit]
		if math.Abs(rejoined-exact) > 0.01 {
			t.Errorf("FormatBytes(%d) rejoined %f, exact %f", b, rejoined, exact)
		}
	}
}

func TestParsePair(t *testing.T) {
	pair, err := ParsePair("5242880/10485760")
	if err != nil {
		t.Fatalf("ParsePair error: %v", err)
	}
	if pair.Progress != (Size{Int: "5", Frac: "00", Unit: MB}) {
		t.Errorf("Progress = %+v, want 5.00 MB", pair.Progress)
	}
	if pair.Total != (Size{Int: "10", Frac: "00", Unit: MB}) {
		t.Errorf("Total = %+v, want 10.00 MB", pair.Total)
	}
}

func TestParsePair_Malformed(t *testing.T) {
	if _, err := ParsePair("12345"); err == nil {
		t.Error("expected error for pair without separator")
	}
	if _, err := ParsePair("abc/def"); err == nil {
		t.Error("expected error for non-numeric pair")
	}
}

func TestSizeString(t *testing.T) {
	s := Size{Int: "5", Frac: "00", Unit: MB}
	if got := s.String(); got != "5.00 MB" {
		t.Errorf("String() = %q, want %q", got, "5.00 MB")
	}
	if got := (Size{}).String(); got != "" {
		t.Errorf("zero String() = %q, want empty", got)
	}
}
