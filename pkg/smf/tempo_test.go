package smf

import "testing"

func TestTempoMapper_DefaultTempo(t *testing.T) {
	tm := newTempoMapper(480)
	// 480 ticks at 120 BPM (500000 us/qtr) = exactly 1 quarter note = 500000us.
	got := tm.Convert(480)
	if got != 500000 {
		t.Fatalf("Convert(480) = %d, want 500000", got)
	}
}

func TestTempoMapper_UpdateAppliesToSubsequentDeltasOnly(t *testing.T) {
	tm := newTempoMapper(480)

	// First delta under the default tempo.
	first := tm.Convert(240)
	if first != 250000 {
		t.Fatalf("first Convert(240) = %d, want 250000", first)
	}

	setTempo := RawEvent{Event: Event{Kind: KindSetTempo, Payload: []byte{0x03, 0xD0, 0x90}}} // 250000 us/qtr = 240 BPM
	if err := tm.Observe(setTempo); err != nil {
		t.Fatalf("Observe: %v", err)
	}

	// Next delta should use the new tempo, not the old one.
	second := tm.Convert(240)
	if second != 125000 {
		t.Fatalf("second Convert(240) after tempo change = %d, want 125000", second)
	}
}

func TestTempoMapper_RoundsToNearest(t *testing.T) {
	tm := newTempoMapper(3)
	// 1 tick * 500000 / 3 = 166666.67 -> rounds to 166667.
	got := tm.Convert(1)
	if got != 166667 {
		t.Fatalf("Convert(1) = %d, want 166667", got)
	}
}
