// Package flow produces synthetic institutional buy/sell figures, both
// the market-wide participant table and per-instrument FII/DII splits.
// All amounts are in crores and are flavor data, not real order flow.
package flow

import (
	"math"
	"time"

	"github.com/google/uuid"

	"niftypulse/internal/session"
	"niftypulse/internal/sim"
	"niftypulse/models"
)

// Fixed roster of participant/segment lines with their turnover
// baselines. Options segments run an order of magnitude above cash,
// matching real turnover ratios.
var marketRoster = []struct {
	participant string
	segment     string
	base        float64
}{
	{models.ParticipantFII, models.SegmentCash, 8500},
	{models.ParticipantDII, models.SegmentCash, 7200},
	{models.ParticipantFII, models.SegmentIndexFutures, 4200},
	{models.ParticipantFII, models.SegmentIndexOptions, 45000},
	{models.ParticipantFII, models.SegmentStockOptions, 12000},
}

// MarketFlow regenerates the market-wide institutional flow snapshot.
func MarketFlow(rng sim.Rand, now time.Time) models.MarketFlowSnapshot {
	flows := make([]models.InstitutionalFlow, 0, len(marketRoster))
	for _, line := range marketRoster {
		buy := int64(line.base + sim.Range(rng, -500, 500))
		sell := int64(line.base + sim.Range(rng, -500, 500))
		flows = append(flows, models.InstitutionalFlow{
			Participant: line.participant,
			Segment:     line.segment,
			BuyAmount:   buy,
			SellAmount:  sell,
			NetAmount:   buy - sell,
		})
	}
	return models.MarketFlowSnapshot{
		ID:        uuid.New().String(),
		Flows:     flows,
		Timestamp: now.In(session.Location()).Format("15:04:05"),
	}
}

// InstrumentFlow estimates the FII/DII split for one instrument from
// its session turnover and momentum. Net flow leans with the price
// move, scaled by its strength and capped at 20% of each share; DII
// gets an extra independent multiplier to model counter-trading.
func InstrumentFlow(inst models.Instrument, rng sim.Rand) models.InstrumentFlow {
	turnoverCr := float64(inst.Volume) * inst.Price / 1e7

	participation := turnoverCr * sim.Range(rng, 0.3, 0.5)
	fiiShare := participation * sim.Range(rng, 0.4, 0.7)
	diiShare := participation - fiiShare

	sentiment := 1.0
	if inst.PercentChange <= 0 {
		sentiment = -1.0
	}
	strength := math.Min(math.Abs(inst.PercentChange), 3) / 3

	net := func(share float64) float64 {
		bias := share * 0.2 * sentiment * strength
		noise := share * 0.05 * sim.Range(rng, -1, 1)
		return math.Floor(bias + noise)
	}

	fiiNet := net(fiiShare)
	diiNet := net(diiShare) * sim.Range(rng, 0.5, 1.5)

	return models.InstrumentFlow{
		FII: side(fiiShare, fiiNet),
		DII: side(diiShare, diiNet),
	}
}

func side(share, net float64) models.FlowSide {
	buy := int64(math.Floor(share/2 + net/2))
	sell := int64(math.Floor(share/2 - net/2))
	return models.FlowSide{Buy: buy, Sell: sell, Net: buy - sell}
}
