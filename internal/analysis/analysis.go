package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"niftypulse/internal/oracle"
	"niftypulse/internal/session"
	"niftypulse/logger"
	"niftypulse/models"
)

// BriefLine is one instrument in the condensed market brief.
type BriefLine struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
	Volume int64   `json:"volume,omitempty"`
}

// Brief is the condensed market state handed to the analysis provider.
// Only the extremes and the breadth are kept; the full instrument set
// does not fit a prompt.
type Brief struct {
	Gainers       []BriefLine `json:"topGainers"`
	Losers        []BriefLine `json:"topLosers"`
	VolumeLeaders []BriefLine `json:"volumeLeaders"`
	Advances      int         `json:"advances"`
	Declines      int         `json:"declines"`
}

const (
	briefMovers  = 5
	briefVolumes = 3
)

// Condense reduces the instrument set to top movers and volume leaders.
func Condense(instruments []models.Instrument) Brief {
	byChange := models.CloneAll(instruments)
	sort.SliceStable(byChange, func(i, j int) bool {
		return byChange[i].PercentChange > byChange[j].PercentChange
	})
	byVolume := models.CloneAll(instruments)
	sort.SliceStable(byVolume, func(i, j int) bool {
		return byVolume[i].Volume > byVolume[j].Volume
	})

	brief := Brief{}
	for i := 0; i < briefMovers && i < len(byChange); i++ {
		in := byChange[i]
		brief.Gainers = append(brief.Gainers, BriefLine{Symbol: in.Symbol, Price: in.Price, Change: in.PercentChange})
	}
	for i := 0; i < briefMovers && i < len(byChange); i++ {
		in := byChange[len(byChange)-1-i]
		brief.Losers = append(brief.Losers, BriefLine{Symbol: in.Symbol, Price: in.Price, Change: in.PercentChange})
	}
	for i := 0; i < briefVolumes && i < len(byVolume); i++ {
		in := byVolume[i]
		brief.VolumeLeaders = append(brief.VolumeLeaders, BriefLine{Symbol: in.Symbol, Price: in.Price, Change: in.PercentChange, Volume: in.Volume})
	}
	for _, in := range instruments {
		switch {
		case in.PercentChange > 0:
			brief.Advances++
		case in.PercentChange < 0:
			brief.Declines++
		}
	}
	return brief
}

// Provider turns a market brief into a sentiment summary.
type Provider interface {
	Analyze(ctx context.Context, brief Brief) (models.AnalysisResult, error)
}

// Analyzer wraps a Provider with a timeout and the neutral fallback,
// so callers always get a usable result.
type Analyzer struct {
	provider Provider
	timeout  time.Duration
	clock    session.Clock
	log      *logger.Log
}

func NewAnalyzer(provider Provider, timeout time.Duration, clock session.Clock) *Analyzer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if clock == nil {
		clock = session.RealClock{}
	}
	return &Analyzer{provider: provider, timeout: timeout, clock: clock, log: logger.GetLogger()}
}

// Analyze condenses the instruments and asks the provider for a
// summary. Any failure degrades to a neutral result rather than an
// error so the dashboard always has something to show.
func (a *Analyzer) Analyze(ctx context.Context, instruments []models.Instrument) models.AnalysisResult {
	stamp := a.clock.Now().In(session.Location()).Format("15:04:05")

	if a.provider == nil {
		return neutralResult(stamp)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := a.provider.Analyze(ctx, Condense(instruments))
	if err != nil {
		a.log.WithComponent("analysis").WithError(err).Warn("analysis provider failed, using neutral fallback")
		return neutralResult(stamp)
	}

	result.Sentiment = normalizeSentiment(result.Sentiment)
	if strings.TrimSpace(result.Summary) == "" {
		result.Summary = "No summary returned."
	}
	if strings.TrimSpace(result.KeyLevels) == "" {
		result.KeyLevels = "N/A"
	}
	result.Timestamp = stamp
	return result
}

func neutralResult(stamp string) models.AnalysisResult {
	return models.AnalysisResult{
		Sentiment: models.SentimentNeutral,
		Summary:   "Market analysis is temporarily unavailable.",
		KeyLevels: "N/A",
		Timestamp: stamp,
	}
}

func normalizeSentiment(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case models.SentimentBullish:
		return models.SentimentBullish
	case models.SentimentBearish:
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

// TextProvider adapts a free-text source into a Provider using the
// same JSON extraction as the quote path.
type TextProvider struct {
	source oracle.TextSource
}

func NewTextProvider(source oracle.TextSource) *TextProvider {
	return &TextProvider{source: source}
}

func (p *TextProvider) Analyze(ctx context.Context, brief Brief) (models.AnalysisResult, error) {
	payload, err := json.Marshal(brief)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	var b strings.Builder
	b.WriteString("You are a market analyst. Given this condensed NSE intraday snapshot, reply with a single JSON object ")
	b.WriteString(`shaped like {"sentiment": "BULLISH|BEARISH|NEUTRAL", "summary": "...", "keyLevels": "..."}. Snapshot: `)
	b.Write(payload)

	text, err := p.source.Generate(ctx, b.String())
	if err != nil {
		return models.AnalysisResult{}, err
	}
	raw, ok := oracle.ExtractJSON(text)
	if !ok {
		return models.AnalysisResult{}, fmt.Errorf("no JSON object in analysis response")
	}
	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("decode analysis payload: %w", err)
	}
	return result, nil
}
