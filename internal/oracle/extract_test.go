package oracle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"niftypulse/models"
)

type fakeSource struct {
	text string
	err  error
}

func (f fakeSource) Generate(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"A": 1}`, `{"A": 1}`, true},
		{"prose wrapped", `Here are the quotes: {"A": {"price": 5}} hope that helps`, `{"A": {"price": 5}}`, true},
		{"fenced", "Sure!\n```json\n{\"A\": 1}\n```\ntrailing", `{"A": 1}`, true},
		{"fence without tag", "```\n{\"B\": 2}\n```", `{"B": 2}`, true},
		{"no object", "sorry, cannot help with that", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if strings.TrimSpace(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextQuoteProviderParsesBatch(t *testing.T) {
	src := fakeSource{text: `The current figures are:
{"RELIANCE": {"price": 2890.5, "change": 1.2}, "tcs": {"price": 4102, "change": -0.4}, "JUNK": {"price": -1, "change": 0}}`}
	p := NewTextQuoteProvider(src)

	quotes, err := p.FetchBatch(context.Background(), []string{"RELIANCE", "TCS", "JUNK"})
	if err != nil {
		t.Fatalf("FetchBatch: %v", err)
	}
	if got := quotes["RELIANCE"]; got != (models.Quote{Price: 2890.5, PercentChange: 1.2}) {
		t.Errorf("RELIANCE = %+v", got)
	}
	// Symbol keys are normalized to upper case.
	if _, ok := quotes["TCS"]; !ok {
		t.Errorf("lower case key not normalized: %v", quotes)
	}
	// Non-positive prices are discarded.
	if _, ok := quotes["JUNK"]; ok {
		t.Errorf("non-positive price kept: %v", quotes)
	}
}

func TestTextQuoteProviderKeepsPricesContaining429(t *testing.T) {
	// The digits of a throttling status code showing up inside a price
	// must not get the payload classified as rate limited.
	src := fakeSource{text: `{"MARUTI": {"price": 1429.50, "change": 0.8}, "TCS": {"price": 4290, "change": -0.2}}`}
	p := NewTextQuoteProvider(src)

	quotes, err := p.FetchBatch(context.Background(), []string{"MARUTI", "TCS"})
	if err != nil {
		t.Fatalf("FetchBatch: %v", err)
	}
	if got := quotes["MARUTI"]; got != (models.Quote{Price: 1429.5, PercentChange: 0.8}) {
		t.Errorf("MARUTI = %+v", got)
	}
	if got := quotes["TCS"]; got != (models.Quote{Price: 4290, PercentChange: -0.2}) {
		t.Errorf("TCS = %+v", got)
	}
}

func TestTextQuoteProviderRateLimit(t *testing.T) {
	p := NewTextQuoteProvider(fakeSource{err: errors.New("HTTP 429 Too Many Requests")})
	if _, err := p.FetchBatch(context.Background(), []string{"A"}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	p = NewTextQuoteProvider(fakeSource{text: "Quota exceeded for this minute, try again later."})
	if _, err := p.FetchBatch(context.Background(), []string{"A"}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited for throttling text", err)
	}
}

func TestTextQuoteProviderMalformed(t *testing.T) {
	p := NewTextQuoteProvider(fakeSource{text: "no structured data here"})
	if _, err := p.FetchBatch(context.Background(), []string{"A"}); err == nil {
		t.Fatal("expected error for response without JSON")
	}

	p = NewTextQuoteProvider(fakeSource{text: `{"A": {"price": "not a number"}}`})
	if _, err := p.FetchBatch(context.Background(), []string{"A"}); err == nil {
		t.Fatal("expected decode error for malformed payload")
	}
}
