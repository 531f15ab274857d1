package provider

import (
	"context"
	"fmt"
)

// Quote is the normalized shape returned for one instrument. It is built
// fresh per fetch and never mutated after being handed to the caller.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Last          float64 `json:"last"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	PrevClose     float64 `json:"prev_close"`
	Volume        int64   `json:"volume"`
	Currency      string  `json:"currency"`
	Source        string  `json:"source"`
	MarketState   string  `json:"market_state"`
}

// Candle is one normalized OHLCV bar. Begin and End keep the source's wire
// timestamp strings ("yyyy-MM-dd HH:mm:ss"), which sort correctly as text.
type Candle struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
	Begin  string  `json:"begin"`
	End    string  `json:"end"`
}

// Range is the abstract chart window requested by a caller. Sources map it
// to their own lookback and sampling interval.
type Range string

const (
	RangeDay         Range = "1d"
	RangeTwoWeeks    Range = "2w"
	RangeMonth       Range = "1mo"
	RangeThreeMonths Range = "3mo"
	RangeYear        Range = "1y"
	RangeFiveYears   Range = "5y"
	RangeMax         Range = "max"
)

// ParseRange validates a wire/CLI range token.
func ParseRange(s string) (Range, error) {
	switch Range(s) {
	case RangeDay, RangeTwoWeeks, RangeMonth, RangeThreeMonths, RangeYear, RangeFiveYears, RangeMax:
		return Range(s), nil
	}
	return "", fmt.Errorf("unknown range %q", s)
}

// Source is the boundary the core exposes to callers.
type Source interface {
	Name() string
	// Quote fetches a single symbol. Every failure surfaces as a typed error.
	Quote(ctx context.Context, symbol string) (Quote, error)
	// Quotes fetches a batch. Output preserves input order; item-local
	// failures are dropped silently, systemic failures abort the batch.
	Quotes(ctx context.Context, symbols []string) ([]Quote, error)
	// Candles fetches a chart series for the given abstract range.
	Candles(ctx context.Context, symbol string, r Range) (Series, error)
	// Supports reports whether the symbol belongs to this source.
	Supports(symbol string) bool
}
