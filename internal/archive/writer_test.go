package archive

import (
	"context"
	"strings"
	"testing"
	"time"

	appconfig "niftypulse/config"
	"niftypulse/models"
)

func TestNewWriterDisabled(t *testing.T) {
	cfg := &appconfig.Config{}
	w, err := NewWriter(cfg, nil)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if w != nil {
		t.Fatal("disabled archive produced a writer")
	}
	// Nil writer methods are no-ops.
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("nil writer Start: %v", err)
	}
	w.Stop()
}

func TestCreateParquetFile(t *testing.T) {
	instruments := []models.Instrument{
		{Symbol: "RELIANCE", Sector: "Energy", Price: 2900.5, Open: 2880, High: 2910, Low: 2875, WeekHigh: 3024.9, Change: 20.5, PercentChange: 0.71, Volume: 520000, AvgVolume: 800000, RSI: 58.2},
		{Symbol: "TCS", Sector: "IT", Price: 4105, Open: 4120, High: 4130, Low: 4090, WeekHigh: 4592.25, Change: -15, PercentChange: -0.36, Volume: 210000, AvgVolume: 600000, RSI: 44.7},
	}

	data, err := createParquetFile(instruments, time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("createParquetFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("parquet file is empty")
	}
	// Parquet files end with the magic footer.
	if got := string(data[len(data)-4:]); got != "PAR1" {
		t.Errorf("file footer = %q, want PAR1", got)
	}
}

func TestGenerateKeyLayout(t *testing.T) {
	cfg := &appconfig.Config{}
	cfg.Archive.S3.Prefix = "archives/niftypulse"
	w := &Writer{cfg: cfg}

	now := time.Date(2026, 8, 31, 7, 45, 12, 0, time.UTC)
	key := w.generateKey(now)

	if !strings.HasPrefix(key, "archives/niftypulse/date=2026-08-31/hour=07/snapshot_20260831074512_") {
		t.Errorf("key = %q", key)
	}
	if !strings.HasSuffix(key, ".parquet") {
		t.Errorf("key missing parquet suffix: %q", key)
	}
}
