package event

import "testing"

func TestDecode_MessageOnly(t *testing.T) {
	ev := Decode("complete")
	if ev.Message != "complete" {
		t.Errorf("Message = %q, want %q", ev.Message, "complete")
	}
	if ev.HasData || ev.HasExtra {
		t.Errorf("expected no data or extra, got %+v", ev)
	}
}

func TestDecode_MessageAndData(t *testing.T) {
	ev := Decode("progress::42")
	if ev.Message != "progress" {
		t.Errorf("Message = %q, want %q", ev.Message, "progress")
	}
	if !ev.HasData || ev.Data != "42" {
		t.Errorf("Data = %q (has=%v), want %q", ev.Data, ev.HasData, "42")
	}
	if ev.HasExtra {
		t.Errorf("expected no extra, got %+v", ev)
	}
}

func TestDecode_AllThreeFields(t *testing.T) {
	ev := Decode("progress::stats::5242880/10485760")
	if ev.Message != "progress" {
		t.Errorf("Message = %q, want %q", ev.Message, "progress")
	}
	if ev.Data != "stats" {
		t.Errorf("Data = %q, want %q", ev.Data, "stats")
	}
	if !ev.HasExtra || ev.Extra != "5242880/10485760" {
		t.Errorf("Extra = %q (has=%v), want byte pair", ev.Extra, ev.HasExtra)
	}
}

func TestDecode_EmptyFields(t *testing.T) {
	ev := Decode("signal::")
	if ev.Message != "signal" {
		t.Errorf("Message = %q, want %q", ev.Message, "signal")
	}
	if !ev.HasData || ev.Data != "" {
		t.Errorf("expected present but empty data, got %+v", ev)
	}
}

func TestDecode_ExcessFieldsIgnored(t *testing.T) {
	ev := Decode("a::b::c::d")
	if ev.Message != "a" || ev.Data != "b" || ev.Extra != "c" {
		t.Errorf("Decode kept wrong fields: %+v", ev)
	}
}
