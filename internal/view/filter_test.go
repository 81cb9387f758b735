package view

import (
	"testing"

	"niftypulse/models"
)

func inst(symbol string, pct float64) models.Instrument {
	return models.Instrument{Symbol: symbol, Name: symbol, PercentChange: pct}
}

func TestTopGainersOrdering(t *testing.T) {
	set := []models.Instrument{inst("X", 5), inst("Y", -3), inst("Z", 0)}

	got := Project(set, FilterTopGainers, "")
	want := []string{"X", "Z", "Y"}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for n, sym := range want {
		if got[n].Symbol != sym {
			t.Fatalf("position %d: got %s, want %s", n, got[n].Symbol, sym)
		}
	}

	adv, dec := Breadth(set)
	if adv != 1 || dec != 1 {
		t.Fatalf("breadth = (%d, %d), want (1, 1)", adv, dec)
	}
}

func TestProjectDoesNotReorderInput(t *testing.T) {
	set := []models.Instrument{inst("X", 5), inst("Y", -3), inst("Z", 0)}
	Project(set, FilterTopLosers, "")
	if set[0].Symbol != "X" || set[2].Symbol != "Z" {
		t.Fatalf("projection reordered its input: %v", set)
	}
}

func TestLeaderboardTruncation(t *testing.T) {
	set := make([]models.Instrument, 15)
	for n := range set {
		set[n] = inst(string(rune('A'+n)), float64(n))
	}
	got := Project(set, FilterTopGainers, "")
	if len(got) != 10 {
		t.Fatalf("expected 10 results, got %d", len(got))
	}
	if got[0].PercentChange != 14 {
		t.Fatalf("expected highest gainer first, got %v", got[0].PercentChange)
	}
}

func TestSearchMatchesSymbolOrName(t *testing.T) {
	set := []models.Instrument{
		{Symbol: "RELIANCE", Name: "Reliance Industries", PercentChange: 1},
		{Symbol: "TCS", Name: "Tata Consultancy Services", PercentChange: 2},
		{Symbol: "INFY", Name: "Infosys", PercentChange: 3},
	}
	if got := Project(set, FilterAll, "tata"); len(got) != 1 || got[0].Symbol != "TCS" {
		t.Fatalf("name search failed: %v", got)
	}
	if got := Project(set, FilterAll, "inf"); len(got) != 1 || got[0].Symbol != "INFY" {
		t.Fatalf("symbol search failed: %v", got)
	}
	if got := Project(set, FilterAll, "zzz"); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestRSIBands(t *testing.T) {
	set := []models.Instrument{
		{Symbol: "A", RSI: 85},
		{Symbol: "B", RSI: 72},
		{Symbol: "C", RSI: 50},
		{Symbol: "D", RSI: 25},
		{Symbol: "E", RSI: 10},
	}
	over := Project(set, FilterRSIOverbought, "")
	if len(over) != 2 || over[0].Symbol != "A" || over[1].Symbol != "B" {
		t.Fatalf("overbought projection wrong: %v", over)
	}
	under := Project(set, FilterRSIOversold, "")
	if len(under) != 2 || under[0].Symbol != "E" || under[1].Symbol != "D" {
		t.Fatalf("oversold projection wrong: %v", under)
	}
}

func TestDayBreakoutBoundary(t *testing.T) {
	borderline := models.Instrument{
		Symbol:        "EDGE",
		Price:         99,
		High:          100, // price exactly 0.99 x high
		PercentChange: 1.5, // strict > excludes this
		Volume:        2000,
		AvgVolume:     1000,
	}
	if got := Project([]models.Instrument{borderline}, FilterDayBreakout, ""); len(got) != 0 {
		t.Fatalf("percentChange exactly 1.5 must be excluded, got %v", got)
	}

	included := borderline
	included.PercentChange = 1.5001
	if got := Project([]models.Instrument{included}, FilterDayBreakout, ""); len(got) != 1 {
		t.Fatalf("percentChange 1.5001 must be included")
	}
}

func TestWeekBreakoutRequiresElevatedVolume(t *testing.T) {
	near := models.Instrument{Symbol: "W", Price: 100, WeekHigh: 100, Volume: 1300, AvgVolume: 1000, PercentChange: 2}
	flat := near
	flat.Volume = 1100 // under 1.2x baseline
	got := Project([]models.Instrument{near, flat}, FilterWeekBreakout, "")
	if len(got) != 1 || got[0].Volume != 1300 {
		t.Fatalf("week breakout volume gate wrong: %v", got)
	}
}

func TestMomentumBullishBand(t *testing.T) {
	set := []models.Instrument{
		{Symbol: "A", PercentChange: 2, RSI: 60},
		{Symbol: "B", PercentChange: 2, RSI: 80}, // rsi too hot
		{Symbol: "C", PercentChange: 0.5, RSI: 60},
	}
	got := Project(set, FilterMomentumBull, "")
	if len(got) != 1 || got[0].Symbol != "A" {
		t.Fatalf("momentum filter wrong: %v", got)
	}
}

func TestVolumeShockersOrdering(t *testing.T) {
	set := []models.Instrument{
		{Symbol: "A", Volume: 1000, AvgVolume: 1000},
		{Symbol: "B", Volume: 3000, AvgVolume: 1000},
		{Symbol: "C", Volume: 2000, AvgVolume: 1000},
	}
	got := Project(set, FilterVolumeShockers, "")
	if got[0].Symbol != "B" || got[1].Symbol != "C" || got[2].Symbol != "A" {
		t.Fatalf("volume shockers ordering wrong: %v", got)
	}
}

func TestParse(t *testing.T) {
	if Parse("top_gainers") != FilterTopGainers {
		t.Fatalf("lowercase wire value not accepted")
	}
	if Parse("bogus") != FilterAll {
		t.Fatalf("unknown filter must default to ALL")
	}
	if Parse("") != FilterAll {
		t.Fatalf("empty filter must default to ALL")
	}
}

func TestEmptyProjectionDistinctFromNil(t *testing.T) {
	got := Project([]models.Instrument{inst("A", 0.2)}, FilterRSIOverbought, "")
	if got == nil {
		t.Fatalf("empty projection must be a non-nil empty slice")
	}
}
