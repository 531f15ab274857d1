package moex

import (
	"time"

	"quoteprovider/internal/provider"
)

// ISS candle interval codes.
const (
	interval1Min  = 1
	interval10Min = 10
	intervalHour  = 60
	intervalDay   = 24
	intervalWeek  = 7
	intervalMonth = 31
)

// rangeParams maps an abstract chart range to the source lookback window and
// sampling interval. Short ranges get fine granularity, long ranges coarse,
// to bound response size.
func rangeParams(r provider.Range) (lookback time.Duration, interval int) {
	const day = 24 * time.Hour
	switch r {
	case provider.RangeDay:
		return day, interval10Min
	case provider.RangeTwoWeeks:
		return 14 * day, intervalHour
	case provider.RangeMonth:
		return 31 * day, intervalHour
	case provider.RangeThreeMonths:
		return 92 * day, intervalDay
	case provider.RangeYear:
		return 365 * day, intervalDay
	case provider.RangeFiveYears:
		return 5 * 365 * day, intervalWeek
	case provider.RangeMax:
		return 20 * 365 * day, intervalMonth
	default:
		return 365 * day, intervalDay
	}
}
