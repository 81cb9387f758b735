// Package sim holds the market simulation core: the price path
// generator seeding instrument state from the catalog, the tick engine
// advancing it, and the merger reconciling it against oracle quotes.
package sim

import (
	"math"

	"niftypulse/internal/session"
	"niftypulse/models"
)

const (
	historyPoints  = 20
	historySpacing = 15 // minutes between seeded history samples
)

// Params carries the tunable simulation constants.
type Params struct {
	// Volatility is the step coefficient applied to most symbols,
	// HighBetaVolatility the one for symbols listed in HighBeta.
	Volatility         float64
	HighBetaVolatility float64
	HighBeta           map[string]bool
	// HistoryCap bounds the intraday history length; the oldest sample
	// is evicted past it.
	HistoryCap int
}

// DefaultParams mirrors the dashboard's stock constants: 1.5 baseline
// volatility, 5 for high-beta names, 50 chart samples retained.
func DefaultParams() Params {
	return Params{
		Volatility:         1.5,
		HighBetaVolatility: 5,
		HistoryCap:         50,
	}
}

func (p Params) volatilityFor(symbol string) float64 {
	if p.HighBeta[symbol] {
		return p.HighBetaVolatility
	}
	return p.Volatility
}

// Initialize builds the full instrument set from the catalog. Each
// instrument opens with a small overnight gap off its baseline price,
// some intraday drift, a neutral oscillator, and a seeded history of
// 20 samples at 15-minute spacing from 09:15.
func Initialize(securities []models.Security, p Params, rng Rand) []models.Instrument {
	instruments := make([]models.Instrument, 0, len(securities))
	for _, sec := range securities {
		instruments = append(instruments, generate(sec, rng))
	}
	return instruments
}

func generate(sec models.Security, rng Rand) models.Instrument {
	base := sec.BasePrice

	gapPercent := Range(rng, -0.5, 0.5)
	open := base * (1 + gapPercent/100)
	price := open * Range(rng, 0.99, 1.01)

	// The first percent change is taken against the baseline, which
	// plays the role of previous close at session start. Every later
	// tick recomputes it against open.
	change := price - base
	percentChange := (change / base) * 100

	// Week high lands either just under the current price (breakout
	// already in progress) or 2-10% above it (resistance overhead).
	var weekHigh float64
	if Chance(rng, 0.2) {
		weekHigh = price * Range(rng, 0.98, 1.00)
	} else {
		weekHigh = price * Range(rng, 1.02, 1.10)
	}

	return models.Instrument{
		Symbol:        sec.Symbol,
		Name:          sec.Name,
		Sector:        sec.Sector,
		Price:         models.Round2(price),
		Open:          models.Round2(open),
		High:          models.Round2(math.Max(open, price)),
		Low:           models.Round2(math.Min(open, price)),
		WeekHigh:      models.Round2(weekHigh),
		Change:        models.Round2(change),
		PercentChange: models.Round2(percentChange),
		Volume:        int64(Range(rng, 50000, 1000000)),
		AvgVolume:     int64(Range(rng, 500000, 2000000)),
		RSI:           models.Round2(Range(rng, 30, 70)),
		History:       seedHistory(open, models.Round2(price), rng),
	}
}

// seedHistory interpolates from open to the current price with a little
// independent noise per sample. The final sample is pinned to the
// current price so the chart tail always matches the quote.
func seedHistory(open, price float64, rng Rand) []models.HistoryPoint {
	history := make([]models.HistoryPoint, 0, historyPoints)
	step := (price - open) / historyPoints
	running := open

	for i := 0; i < historyPoints; i++ {
		running += step + Range(rng, -open*0.001, open*0.001)
		minuteOfDay := 9*60 + 15 + i*historySpacing
		history = append(history, models.HistoryPoint{
			Time:  session.Label(minuteOfDay/60, minuteOfDay%60),
			Price: models.Round2(running),
		})
	}
	history[len(history)-1].Price = price
	return history
}
