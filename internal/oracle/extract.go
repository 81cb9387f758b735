package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"niftypulse/logger"
	"niftypulse/models"
)

// TextSource produces free-form text for a prompt. It abstracts chat
// style quote backends whose responses wrap JSON in prose or code
// fences.
type TextSource interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	looseJSON  = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON pulls the first JSON object out of free-form text,
// preferring fenced code blocks over a loose brace match.
func ExtractJSON(text string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := looseJSON.FindString(text); m != "" {
		return m, true
	}
	return "", false
}

// TextQuoteProvider adapts a TextSource into a Provider by prompting
// for a JSON quote map and extracting it from the response.
type TextQuoteProvider struct {
	source TextSource
	log    *logger.Log
}

func NewTextQuoteProvider(source TextSource) *TextQuoteProvider {
	return &TextQuoteProvider{source: source, log: logger.GetLogger()}
}

func (p *TextQuoteProvider) FetchBatch(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	prompt := buildPrompt(symbols)
	text, err := p.source.Generate(ctx, prompt)
	if err != nil {
		if isRateLimit(err.Error()) {
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return nil, err
	}

	raw, ok := ExtractJSON(text)
	if !ok {
		if isThrottleNotice(text) {
			return nil, fmt.Errorf("%w: response indicates throttling", ErrRateLimited)
		}
		return nil, fmt.Errorf("no JSON object in response")
	}

	var parsed map[string]models.Quote
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("decode quote payload: %w", err)
	}

	quotes := make(map[string]models.Quote, len(parsed))
	for sym, q := range parsed {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" || q.Price <= 0 {
			continue
		}
		quotes[sym] = q
	}
	p.log.WithComponent("oracle").WithFields(logger.Fields{"requested": len(symbols), "parsed": len(quotes)}).Debug("parsed quote batch")
	return quotes, nil
}

func buildPrompt(symbols []string) string {
	var b strings.Builder
	b.WriteString("Return the latest NSE price and day percent change for these symbols as a single JSON object ")
	b.WriteString(`shaped like {"SYMBOL": {"price": 123.45, "change": -0.67}}. No commentary. Symbols: `)
	b.WriteString(strings.Join(symbols, ", "))
	return b.String()
}

// isRateLimit classifies transport errors. Matching the bare "429" is
// only safe here; quote payloads legitimately carry those digits inside
// prices, so response bodies go through isThrottleNotice instead.
func isRateLimit(s string) bool {
	l := strings.ToLower(s)
	return strings.Contains(l, "429") || isThrottleNotice(l)
}

func isThrottleNotice(s string) bool {
	l := strings.ToLower(s)
	return strings.Contains(l, "rate limit") || strings.Contains(l, "quota exceeded") || strings.Contains(l, "resource_exhausted")
}
