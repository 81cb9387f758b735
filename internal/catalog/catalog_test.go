package catalog

import (
	"os"
	"strings"
	"testing"
)

func writeTempCatalog(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "catalog-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func TestLoad(t *testing.T) {
	path := writeTempCatalog(t, `securities:
  - symbol: RELIANCE
    name: Reliance Industries
    sector: Energy
    base_price: 2500
  - symbol: TCS
    name: Tata Consultancy Services
    sector: IT
    base_price: 4100
`)
	secs, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(secs) != 2 {
		t.Fatalf("expected 2 securities, got %d", len(secs))
	}
	if secs[0].Symbol != "RELIANCE" || secs[0].BasePrice != 2500 {
		t.Fatalf("unexpected first security: %+v", secs[0])
	}
	if got := Symbols(secs); got[1] != "TCS" {
		t.Fatalf("unexpected symbols: %v", got)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"empty", "securities: []\n", "no securities"},
		{
			"duplicate symbol",
			"securities:\n  - {symbol: TCS, name: a, sector: IT, base_price: 1}\n  - {symbol: TCS, name: b, sector: IT, base_price: 2}\n",
			"duplicate",
		},
		{
			"bad price",
			"securities:\n  - {symbol: TCS, name: a, sector: IT, base_price: 0}\n",
			"non-positive base price",
		},
	}
	for _, tc := range cases {
		path := writeTempCatalog(t, tc.content)
		if _, err := Load(path); err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Errorf("%s: err = %v, want containing %q", tc.name, err, tc.wantErr)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
