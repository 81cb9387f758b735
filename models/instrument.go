package models

import "math"

// Security is one catalog entry: immutable identity plus the baseline
// price the simulation seeds from.
type Security struct {
	Symbol    string  `yaml:"symbol" json:"symbol"`
	Name      string  `yaml:"name" json:"name"`
	Sector    string  `yaml:"sector" json:"sector"`
	BasePrice float64 `yaml:"base_price" json:"basePrice"`
}

// HistoryPoint is one intraday chart sample.
type HistoryPoint struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

// Instrument is the simulated market state of one security. The whole
// struct is treated as a value: tick and merge passes return fresh
// copies rather than mutating shared state.
type Instrument struct {
	Symbol        string         `json:"symbol"`
	Name          string         `json:"name"`
	Sector        string         `json:"sector"`
	Price         float64        `json:"price"`
	Open          float64        `json:"open"`
	High          float64        `json:"high"`
	Low           float64        `json:"low"`
	WeekHigh      float64        `json:"weekHigh"`
	Change        float64        `json:"change"`
	PercentChange float64        `json:"percentChange"`
	Volume        int64          `json:"volume"`
	AvgVolume     int64          `json:"avgVolume"`
	RSI           float64        `json:"rsi"`
	History       []HistoryPoint `json:"history"`
}

// Quote is one reconciled price as delivered by the price oracle.
type Quote struct {
	Price         float64 `json:"price"`
	PercentChange float64 `json:"change"`
}

// Clone returns a deep copy of the instrument, including its history.
func (i Instrument) Clone() Instrument {
	out := i
	out.History = make([]HistoryPoint, len(i.History))
	copy(out.History, i.History)
	return out
}

// CloneAll deep-copies a whole instrument slice.
func CloneAll(instruments []Instrument) []Instrument {
	out := make([]Instrument, len(instruments))
	for n, inst := range instruments {
		out[n] = inst.Clone()
	}
	return out
}

// VolumeRatio reports session volume relative to the static baseline.
func (i Instrument) VolumeRatio() float64 {
	if i.AvgVolume == 0 {
		return 0
	}
	return float64(i.Volume) / float64(i.AvgVolume)
}

// Round2 truncates a price-like value to two decimals, matching how
// every displayed figure in the dashboard is stored.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
