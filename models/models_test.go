package models

import "testing"

func TestInstrumentCloneIsDeep(t *testing.T) {
	inst := Instrument{
		Symbol:  "RELIANCE",
		Price:   2500,
		History: []HistoryPoint{{Time: "9:15", Price: 2490}, {Time: "9:30", Price: 2500}},
	}
	clone := inst.Clone()
	clone.History[0].Price = 1
	if inst.History[0].Price != 2490 {
		t.Fatalf("clone shares history backing array")
	}
}

func TestVolumeRatio(t *testing.T) {
	inst := Instrument{Volume: 1200, AvgVolume: 1000}
	if got := inst.VolumeRatio(); got != 1.2 {
		t.Fatalf("volume ratio = %v, want 1.2", got)
	}
	zero := Instrument{Volume: 100}
	if got := zero.VolumeRatio(); got != 0 {
		t.Fatalf("volume ratio with zero baseline = %v, want 0", got)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(12.3456); got != 12.35 {
		t.Fatalf("Round2(12.3456) = %v", got)
	}
	if got := Round2(7); got != 7 {
		t.Fatalf("Round2(7) = %v", got)
	}
}
