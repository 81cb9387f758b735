package sim

import (
	"math"
	"time"

	"niftypulse/internal/session"
	"niftypulse/models"
)

// historyRollChance is the per-tick probability of opening a fresh
// chart sample instead of coalescing into the current minute's one.
const historyRollChance = 0.2

// Tick advances every instrument by one simulation step. Outside
// market hours the input is returned untouched. The input slice is
// never mutated; a fresh slice is returned when the market is open.
func Tick(instruments []models.Instrument, now time.Time, p Params, rng Rand) []models.Instrument {
	if !session.IsOpen(now) {
		return instruments
	}

	out := make([]models.Instrument, len(instruments))
	for n, inst := range instruments {
		out[n] = step(inst, now, p, rng)
	}
	return out
}

func step(inst models.Instrument, now time.Time, p Params, rng Rand) models.Instrument {
	// Random walk with a momentum bias: winners drift further up,
	// losers further down, scaled by per-symbol volatility. The bias
	// saturates at a 3% day move so a winning streak cannot feed back
	// into an ever-growing step.
	bias := math.Min(math.Max(inst.PercentChange, -3), 3) * 0.05
	volatility := p.volatilityFor(inst.Symbol)

	stepPct := Range(rng, -0.1+bias, 0.1+bias) * (volatility / 100)
	price := models.Round2(math.Max(0.1, inst.Price*(1+stepPct)))
	if math.IsNaN(price) || math.IsInf(price, 0) {
		price = inst.Price
	}

	change := price - inst.Open
	percentChange := (change / inst.Open) * 100

	rsi := inst.RSI + Range(rng, -2, 2)
	if rsi > 80 {
		rsi -= Range(rng, 0, 3)
	}
	if rsi < 20 {
		rsi += Range(rng, 0, 3)
	}
	rsi = math.Max(0, math.Min(100, rsi))

	next := inst
	next.Price = price
	next.High = math.Max(inst.High, price)
	next.Low = math.Min(inst.Low, price)
	next.Change = models.Round2(change)
	next.PercentChange = models.Round2(percentChange)
	next.Volume = inst.Volume + int64(Range(rng, 100, 5000))
	next.RSI = models.Round2(rsi)
	next.History = advanceHistory(inst.History, session.MinuteLabel(now), price, p.HistoryCap, rng)
	return next
}

// advanceHistory keeps the chart tail in sync with the latest price.
// The last sample is rewritten in place; roughly one tick in five rolls
// over to a new minute-labelled sample, evicting the oldest past the cap.
func advanceHistory(history []models.HistoryPoint, label string, price float64, limit int, rng Rand) []models.HistoryPoint {
	out := make([]models.HistoryPoint, len(history))
	copy(out, history)
	if len(out) == 0 {
		return append(out, models.HistoryPoint{Time: label, Price: price})
	}

	if Chance(rng, historyRollChance) && out[len(out)-1].Time != label {
		out = append(out, models.HistoryPoint{Time: label, Price: price})
		if limit > 0 && len(out) > limit {
			out = append([]models.HistoryPoint(nil), out[len(out)-limit:]...)
		}
		return out
	}

	out[len(out)-1].Price = price
	return out
}
