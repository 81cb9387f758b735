package models

// Participant categories for institutional flow figures.
const (
	ParticipantFII = "FII"
	ParticipantDII = "DII"
	ParticipantPro = "PRO"
)

// Market segments institutional flow is reported against.
const (
	SegmentCash         = "Cash"
	SegmentIndexFutures = "Index Futures"
	SegmentIndexOptions = "Index Options"
	SegmentStockOptions = "Stock Options"
)

// InstitutionalFlow is one participant/segment buy-sell line, amounts in
// crores. Regenerated wholesale on every snapshot, never updated in place.
type InstitutionalFlow struct {
	Participant string `json:"participant"`
	Segment     string `json:"segment"`
	BuyAmount   int64  `json:"buyAmount"`
	SellAmount  int64  `json:"sellAmount"`
	NetAmount   int64  `json:"netAmount"`
}

// MarketFlowSnapshot is the market-wide institutional flow widget data.
type MarketFlowSnapshot struct {
	ID        string              `json:"id"`
	Flows     []InstitutionalFlow `json:"flows"`
	Timestamp string              `json:"timestamp"`
}

// FlowSide is one side (FII or DII) of a per-instrument flow estimate.
type FlowSide struct {
	Buy  int64 `json:"buy"`
	Sell int64 `json:"sell"`
	Net  int64 `json:"net"`
}

// InstrumentFlow is the synthetic FII/DII split for a single instrument.
type InstrumentFlow struct {
	FII FlowSide `json:"fii"`
	DII FlowSide `json:"dii"`
}
