package moex

import (
	"fmt"
	"log/slog"

	"quoteprovider/internal/provider"
	"quoteprovider/internal/table"
)

// SourceTag marks quotes produced by this source.
const SourceTag = "MOEX"

// PrimaryBoard is the main trading venue. The source multiplexes several
// board rows per instrument; this one wins when present.
const PrimaryBoard = "TQBR"

// Reference (securities) table columns. Upper-case by source convention.
const (
	colBoardID   = "BOARDID"
	colShortName = "SHORTNAME"
	colSecName   = "SECNAME"
	colPrevPrice = "PREVPRICE"
	colCurrency  = "CURRENCYID"
)

// Live (marketdata) table columns.
const (
	colLast          = "LAST"
	colOpen          = "OPEN"
	colHigh          = "HIGH"
	colLow           = "LOW"
	colLastClose     = "LCLOSEPRICE"
	colLastToPrev    = "LASTTOPREVPRICE"
	colVolToday      = "VOLTODAY"
	colTradingStatus = "TRADINGSTATUS"
)

// resolveQuote builds one normalized Quote from the reference and live
// tables. symbol is the caller's original input string and is preserved on
// the output so callers can round-trip it.
func resolveQuote(logger *slog.Logger, symbol string, securities, marketdata *table.Table) (provider.Quote, error) {
	ref, err := boardRow(logger, symbol, "securities", securities)
	if err != nil {
		return provider.Quote{}, err
	}
	mkt, err := boardRow(logger, symbol, "marketdata", marketdata)
	if err != nil {
		return provider.Quote{}, err
	}

	// Price fallback chain: live last trade, then live session close (proxy
	// before trading starts), then reference previous close. A zero value
	// counts as absent.
	last, ok := cellFloat(mkt, marketdata, colLast)
	if !ok || last == 0 {
		last, ok = cellFloat(mkt, marketdata, colLastClose)
	}
	if !ok || last == 0 {
		last, ok = cellFloat(ref, securities, colPrevPrice)
	}
	if !ok || last == 0 {
		return provider.Quote{}, fmt.Errorf("resolve %s: %w", symbol, provider.ErrNoPrice)
	}

	prevClose, _ := cellFloat(ref, securities, colPrevPrice)

	var change float64
	if prevClose != 0 {
		change = last - prevClose
	}

	// Percent change comes from the source when the field is present (zero
	// included: a flat session is a real 0%), otherwise it is computed.
	pct, ok := cellFloat(mkt, marketdata, colLastToPrev)
	if !ok {
		if prevClose != 0 {
			pct = change / prevClose * 100
		} else {
			pct = 0
		}
	}

	q := provider.Quote{
		Symbol:        symbol,
		Name:          displayName(ref, securities, symbol),
		Last:          last,
		Change:        change,
		ChangePercent: pct,
		// A quote with no intraday range data degrades to a flat OHLC at the
		// last price rather than nulls.
		Open:          rangeField(mkt, marketdata, colOpen, last),
		High:          rangeField(mkt, marketdata, colHigh, last),
		Low:           rangeField(mkt, marketdata, colLow, last),
		PrevClose:     prevClose,
		Currency:      currencyCode(ref, securities),
		Source:        SourceTag,
		MarketState:   marketState(mkt, marketdata),
	}
	if v, ok := cellInt(mkt, marketdata, colVolToday); ok {
		q.Volume = v
	}
	return q, nil
}

// boardRow picks the primary board's row, falling back to the first row of
// the table. The fallback is a degraded match, not a failure.
func boardRow(logger *slog.Logger, symbol, name string, t *table.Table) (table.Row, error) {
	if row, ok := t.FindRow(colBoardID, PrimaryBoard); ok {
		return row, nil
	}
	row, err := t.First()
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %s table: %w", symbol, name, err)
	}
	logger.Warn("primary board not found, using first row", "symbol", symbol, "table", name, "board", PrimaryBoard)
	return row, nil
}

func cellFloat(r table.Row, t *table.Table, column string) (float64, bool) {
	return r.Float64(t.ColumnIndex(column))
}

func cellInt(r table.Row, t *table.Table, column string) (int64, bool) {
	return r.Int64(t.ColumnIndex(column))
}

func cellString(r table.Row, t *table.Table, column string) (string, bool) {
	return r.String(t.ColumnIndex(column))
}

// rangeField reads an intraday field, falling back to the resolved last
// price when the field is absent or zero.
func rangeField(r table.Row, t *table.Table, column string, last float64) float64 {
	if v, ok := r.Float64(t.ColumnIndex(column)); ok && v != 0 {
		return v
	}
	return last
}

func displayName(ref table.Row, t *table.Table, symbol string) string {
	if s, ok := cellString(ref, t, colSecName); ok && s != "" {
		return s
	}
	if s, ok := cellString(ref, t, colShortName); ok && s != "" {
		return s
	}
	return symbol
}

func currencyCode(ref table.Row, t *table.Table) string {
	s, ok := cellString(ref, t, colCurrency)
	if !ok || s == "" {
		return ""
	}
	if s == "SUR" {
		return "RUB"
	}
	return s
}

func marketState(mkt table.Row, t *table.Table) string {
	switch s, _ := cellString(mkt, t, colTradingStatus); s {
	case "T":
		return "OPEN"
	case "N":
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}
