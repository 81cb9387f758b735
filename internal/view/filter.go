// Package view computes the filtered and sorted instrument projections
// the dashboard renders, plus market breadth counters.
package view

import (
	"sort"
	"strings"

	"niftypulse/models"
)

// Filter selects one of the dashboard's scan policies.
type Filter string

const (
	FilterAll            Filter = "ALL"
	FilterTopGainers     Filter = "TOP_GAINERS"
	FilterTopLosers      Filter = "TOP_LOSERS"
	FilterVolumeShockers Filter = "VOLUME_SHOCKERS"
	FilterRSIOverbought  Filter = "RSI_OVERBOUGHT"
	FilterRSIOversold    Filter = "RSI_OVERSOLD"
	FilterMomentumBull   Filter = "MOMENTUM_BULLISH"
	FilterDayBreakout    Filter = "DAY_BREAKOUT"
	FilterWeekBreakout   Filter = "WEEK_BREAKOUT"
)

// leaderboardSize caps the gainers/losers/volume projections.
const leaderboardSize = 10

// Parse maps a wire value to a known filter, defaulting to ALL.
func Parse(value string) Filter {
	switch f := Filter(strings.ToUpper(strings.TrimSpace(value))); f {
	case FilterTopGainers, FilterTopLosers, FilterVolumeShockers,
		FilterRSIOverbought, FilterRSIOversold, FilterMomentumBull,
		FilterDayBreakout, FilterWeekBreakout:
		return f
	default:
		return FilterAll
	}
}

// Project applies the search text and the active filter to the
// instrument set and returns the ordered result. The input is never
// reordered; ties keep catalog order (stable sort).
func Project(instruments []models.Instrument, filter Filter, search string) []models.Instrument {
	result := instruments
	if search != "" {
		needle := strings.ToLower(search)
		result = make([]models.Instrument, 0, len(instruments))
		for _, inst := range instruments {
			if strings.Contains(strings.ToLower(inst.Symbol), needle) ||
				strings.Contains(strings.ToLower(inst.Name), needle) {
				result = append(result, inst)
			}
		}
	}

	switch filter {
	case FilterTopGainers:
		return truncate(sortBy(result, func(a, b models.Instrument) bool {
			return a.PercentChange > b.PercentChange
		}))
	case FilterTopLosers:
		return truncate(sortBy(result, func(a, b models.Instrument) bool {
			return a.PercentChange < b.PercentChange
		}))
	case FilterVolumeShockers:
		return truncate(sortBy(result, func(a, b models.Instrument) bool {
			return a.VolumeRatio() > b.VolumeRatio()
		}))
	case FilterRSIOverbought:
		kept := keep(result, func(i models.Instrument) bool { return i.RSI > 70 })
		return sortBy(kept, func(a, b models.Instrument) bool { return a.RSI > b.RSI })
	case FilterRSIOversold:
		kept := keep(result, func(i models.Instrument) bool { return i.RSI < 30 })
		return sortBy(kept, func(a, b models.Instrument) bool { return a.RSI < b.RSI })
	case FilterMomentumBull:
		return keep(result, func(i models.Instrument) bool {
			return i.PercentChange > 1 && i.RSI > 50 && i.RSI < 75
		})
	case FilterDayBreakout:
		kept := keep(result, func(i models.Instrument) bool {
			return i.PercentChange > 1.5 &&
				i.Price >= i.High*0.99 &&
				i.Volume > i.AvgVolume
		})
		return sortBy(kept, func(a, b models.Instrument) bool {
			return a.PercentChange > b.PercentChange
		})
	case FilterWeekBreakout:
		kept := keep(result, func(i models.Instrument) bool {
			return i.Price >= i.WeekHigh*0.99 &&
				float64(i.Volume) > float64(i.AvgVolume)*1.2
		})
		return sortBy(kept, func(a, b models.Instrument) bool {
			return a.PercentChange > b.PercentChange
		})
	default:
		return result
	}
}

// Breadth counts advances and declines over the unfiltered set.
// Unchanged instruments count in neither bucket.
func Breadth(instruments []models.Instrument) (advances, declines int) {
	for _, inst := range instruments {
		switch {
		case inst.PercentChange > 0:
			advances++
		case inst.PercentChange < 0:
			declines++
		}
	}
	return advances, declines
}

// TopGainer returns the instrument with the highest percent change.
func TopGainer(instruments []models.Instrument) (models.Instrument, bool) {
	return best(instruments, func(a, b models.Instrument) bool { return a.PercentChange > b.PercentChange })
}

// TopLoser returns the instrument with the lowest percent change.
func TopLoser(instruments []models.Instrument) (models.Instrument, bool) {
	return best(instruments, func(a, b models.Instrument) bool { return a.PercentChange < b.PercentChange })
}

// VolumeLeader returns the instrument with the highest volume ratio.
func VolumeLeader(instruments []models.Instrument) (models.Instrument, bool) {
	return best(instruments, func(a, b models.Instrument) bool { return a.VolumeRatio() > b.VolumeRatio() })
}

func best(instruments []models.Instrument, before func(a, b models.Instrument) bool) (models.Instrument, bool) {
	if len(instruments) == 0 {
		return models.Instrument{}, false
	}
	top := instruments[0]
	for _, inst := range instruments[1:] {
		if before(inst, top) {
			top = inst
		}
	}
	return top, true
}

func keep(instruments []models.Instrument, pred func(models.Instrument) bool) []models.Instrument {
	out := make([]models.Instrument, 0, len(instruments))
	for _, inst := range instruments {
		if pred(inst) {
			out = append(out, inst)
		}
	}
	return out
}

func sortBy(instruments []models.Instrument, before func(a, b models.Instrument) bool) []models.Instrument {
	out := make([]models.Instrument, len(instruments))
	copy(out, instruments)
	sort.SliceStable(out, func(i, j int) bool { return before(out[i], out[j]) })
	return out
}

func truncate(instruments []models.Instrument) []models.Instrument {
	if len(instruments) > leaderboardSize {
		return instruments[:leaderboardSize]
	}
	return instruments
}
