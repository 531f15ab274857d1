package moex

import (
	"sort"

	"quoteprovider/internal/provider"
	"quoteprovider/internal/table"
)

// Candle table columns. Lower-case by source convention, unlike the quote
// tables, so everything stays column-name-driven rather than positional.
const (
	colCandleOpen   = "open"
	colCandleClose  = "close"
	colCandleHigh   = "high"
	colCandleLow    = "low"
	colCandleVolume = "volume"
	colCandleBegin  = "begin"
	colCandleEnd    = "end"
)

// resolveCandles turns a decoded candle table into a time-ordered series.
// Rows missing any of open/high/low/close are dropped whole; volume defaults
// to 0. An empty result is a valid "no data" outcome, not an error.
func resolveCandles(t *table.Table) []provider.Candle {
	iOpen := t.ColumnIndex(colCandleOpen)
	iClose := t.ColumnIndex(colCandleClose)
	iHigh := t.ColumnIndex(colCandleHigh)
	iLow := t.ColumnIndex(colCandleLow)
	iVolume := t.ColumnIndex(colCandleVolume)
	iBegin := t.ColumnIndex(colCandleBegin)
	iEnd := t.ColumnIndex(colCandleEnd)

	out := make([]provider.Candle, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		row, err := t.Row(i)
		if err != nil {
			break
		}
		o, okO := row.Float64(iOpen)
		h, okH := row.Float64(iHigh)
		l, okL := row.Float64(iLow)
		c, okC := row.Float64(iClose)
		if !okO || !okH || !okL || !okC {
			// No partial candles.
			continue
		}
		candle := provider.Candle{Open: o, High: h, Low: l, Close: c}
		if v, ok := row.Float64(iVolume); ok {
			candle.Volume = v
		}
		candle.Begin, _ = row.String(iBegin)
		candle.End, _ = row.String(iEnd)
		out = append(out, candle)
	}

	// Begin is "yyyy-MM-dd HH:mm:ss", which orders correctly as text. The
	// sort is stable so duplicate timestamps keep source order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Begin < out[j].Begin })
	return out
}

// newSeries wraps resolved candles with the summary scalars chart stats
// derive from.
func newSeries(symbol string, r provider.Range, points []provider.Candle) provider.Series {
	s := provider.Series{Symbol: symbol, Range: r, Points: points}
	if len(points) > 0 {
		s.Prev = points[0].Open
		s.Current = points[len(points)-1].Close
	}
	return s
}
