package sim

import (
	"math"
	"strings"

	"niftypulse/models"
)

// Merge folds oracle quotes into the simulated state. Quotes are
// authoritative for price and percent change; the implied reference
// price is back-solved from the pair so the absolute change stays
// consistent. Instruments without a quote, or with a non-positive or
// otherwise malformed one, pass through untouched. An empty quote map
// returns the input as-is.
func Merge(instruments []models.Instrument, live map[string]models.Quote) []models.Instrument {
	if len(live) == 0 {
		return instruments
	}

	out := make([]models.Instrument, len(instruments))
	for n, inst := range instruments {
		quote, ok := lookup(live, inst.Symbol)
		if !ok || quote.Price <= 0 {
			out[n] = inst
			continue
		}
		out[n] = reconcile(inst, quote)
	}
	return out
}

func lookup(live map[string]models.Quote, symbol string) (models.Quote, bool) {
	if q, ok := live[symbol]; ok {
		return q, true
	}
	if q, ok := live[strings.ToUpper(symbol)]; ok {
		return q, true
	}
	return models.Quote{}, false
}

func reconcile(inst models.Instrument, quote models.Quote) models.Instrument {
	denom := 1 + quote.PercentChange/100
	if denom == 0 {
		// A -100% quote has no finite implied base; treat as malformed.
		return inst
	}

	price := quote.Price
	impliedBase := price / denom

	next := inst
	next.Price = price
	next.PercentChange = quote.PercentChange
	next.Change = models.Round2(price - impliedBase)
	next.High = math.Max(inst.High, price)
	next.Low = math.Min(inst.Low, price)

	// Week high only ever ratchets upward here.
	if price > inst.WeekHigh {
		next.WeekHigh = price
	}

	// If the simulated path drifted more than 10% from the real quote,
	// re-anchor open at the implied base. Until the next tick this
	// leaves percentChange decoupled from (price-open)/open.
	if math.Abs(inst.Open-price) > price*0.1 {
		next.Open = impliedBase
	}

	// Rewrite the chart tail instead of appending so the reconciled
	// price lands without a visible discontinuity.
	if len(inst.History) > 0 {
		history := make([]models.HistoryPoint, len(inst.History))
		copy(history, inst.History)
		history[len(history)-1].Price = price
		next.History = history
	}
	return next
}
