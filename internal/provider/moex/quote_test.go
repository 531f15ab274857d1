package moex

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"quoteprovider/internal/provider"
	"quoteprovider/internal/table"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func mustTable(t *testing.T, js string) *table.Table {
	t.Helper()
	tb, err := table.Decode(json.RawMessage(js))
	if err != nil {
		t.Fatalf("decode table: %v", err)
	}
	return tb
}

func refTable(t *testing.T, prevPrice any) *table.Table {
	t.Helper()
	b, _ := json.Marshal(prevPrice)
	return mustTable(t, `{
		"columns": ["SECID", "BOARDID", "SHORTNAME", "SECNAME", "PREVPRICE", "CURRENCYID"],
		"data": [["SBER", "TQBR", "Сбербанк", "Сбербанк России ПАО ао", `+string(b)+`, "SUR"]]
	}`)
}

func mktTable(t *testing.T, last, lclose, open, high, low, pct any) *table.Table {
	t.Helper()
	cells, _ := json.Marshal([]any{"TQBR", last, lclose, open, high, low, pct, 1234567.0, "T"})
	return mustTable(t, `{
		"columns": ["BOARDID", "LAST", "LCLOSEPRICE", "OPEN", "HIGH", "LOW", "LASTTOPREVPRICE", "VOLTODAY", "TRADINGSTATUS"],
		"data": [`+string(cells)+`]
	}`)
}

func TestResolveQuote_FullMarketData(t *testing.T) {
	ref := refTable(t, 270.0)
	mkt := mktTable(t, 273.5, 272.0, 271.0, 275.0, 269.5, 1.3)

	q, err := resolveQuote(testLogger, "SBER", ref, mkt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if q.Last != 273.5 {
		t.Fatalf("last = %v, want live last trade", q.Last)
	}
	if q.Change != 273.5-270.0 {
		t.Fatalf("change = %v, want last-prevClose", q.Change)
	}
	if q.ChangePercent != 1.3 {
		t.Fatalf("pct = %v, want source-provided field", q.ChangePercent)
	}
	if q.Open != 271.0 || q.High != 275.0 || q.Low != 269.5 {
		t.Fatalf("unexpected OHLC: %+v", q)
	}
	if q.PrevClose != 270.0 || q.Volume != 1234567 {
		t.Fatalf("unexpected prevClose/volume: %+v", q)
	}
	if q.Name != "Сбербанк России ПАО ао" {
		t.Fatalf("name = %q, want long-form", q.Name)
	}
	if q.Currency != "RUB" || q.Source != SourceTag || q.MarketState != "OPEN" {
		t.Fatalf("unexpected tags: %+v", q)
	}
}

func TestResolveQuote_ChangeInvariant(t *testing.T) {
	ref := refTable(t, 98.76)
	mkt := mktTable(t, 101.23, nil, nil, nil, nil, nil)
	q, err := resolveQuote(testLogger, "SBER", ref, mkt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// Exact float equality: change is computed with the same operands.
	if q.Change != q.Last-q.PrevClose {
		t.Fatalf("change %v != last %v - prevClose %v", q.Change, q.Last, q.PrevClose)
	}
}

func TestResolveQuote_PriceFallsBackToSessionClose(t *testing.T) {
	ref := refTable(t, 270.0)
	mkt := mktTable(t, nil, 272.0, nil, nil, nil, nil)
	q, err := resolveQuote(testLogger, "SBER", ref, mkt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if q.Last != 272.0 {
		t.Fatalf("last = %v, want session close proxy", q.Last)
	}
}

func TestResolveQuote_ZeroLastCountsAsAbsent(t *testing.T) {
	ref := refTable(t, 270.0)
	mkt := mktTable(t, 0.0, 0.0, nil, nil, nil, nil)
	q, err := resolveQuote(testLogger, "SBER", ref, mkt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if q.Last != 270.0 {
		t.Fatalf("last = %v, want reference previous close", q.Last)
	}
	if q.Change != 0 {
		t.Fatalf("change = %v, want 0 for flat fallback", q.Change)
	}
}

func TestResolveQuote_NoPriceAnywhere(t *testing.T) {
	ref := refTable(t, nil)
	mkt := mktTable(t, nil, 0.0, nil, nil, nil, nil)
	_, err := resolveQuote(testLogger, "SBER", ref, mkt)
	if !errors.Is(err, provider.ErrNoPrice) {
		t.Fatalf("want ErrNoPrice, got %v", err)
	}
}

func TestResolveQuote_OHLCDegradesToFlat(t *testing.T) {
	ref := refTable(t, 270.0)
	mkt := mktTable(t, 273.5, nil, nil, 0.0, nil, nil)
	q, err := resolveQuote(testLogger, "SBER", ref, mkt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if q.Open != q.Last || q.High != q.Last || q.Low != q.Last {
		t.Fatalf("want flat OHLC at last price, got %+v", q)
	}
}

func TestResolveQuote_PercentComputedWhenFieldAbsent(t *testing.T) {
	ref := refTable(t, 100.0)
	mkt := mktTable(t, 110.0, nil, nil, nil, nil, nil)
	q, err := resolveQuote(testLogger, "SBER", ref, mkt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if q.ChangePercent != 10.0 {
		t.Fatalf("pct = %v, want computed 10.0", q.ChangePercent)
	}
}

func TestResolveQuote_ZeroPercentFieldIsPresent(t *testing.T) {
	// A flat session reports 0% explicitly; that must not trigger the
	// computed fallback.
	ref := refTable(t, 100.0)
	mkt := mktTable(t, 110.0, nil, nil, nil, nil, 0.0)
	q, err := resolveQuote(testLogger, "SBER", ref, mkt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if q.ChangePercent != 0 {
		t.Fatalf("pct = %v, want source 0", q.ChangePercent)
	}
}

func TestResolveQuote_BoardSelection(t *testing.T) {
	ref := refTable(t, 270.0)
	mkt := mustTable(t, `{
		"columns": ["BOARDID", "LAST"],
		"data": [["SMAL", 1.0], ["TQBR", 273.5]]
	}`)
	q, err := resolveQuote(testLogger, "SBER", ref, mkt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if q.Last != 273.5 {
		t.Fatalf("last = %v, want primary board row", q.Last)
	}
}

func TestResolveQuote_BoardFallbackToFirstRow(t *testing.T) {
	ref := refTable(t, 270.0)
	mkt := mustTable(t, `{
		"columns": ["BOARDID", "LAST"],
		"data": [["SMAL", 5.0], ["TQDP", 6.0]]
	}`)
	q, err := resolveQuote(testLogger, "SBER", ref, mkt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if q.Last != 5.0 {
		t.Fatalf("last = %v, want first row as degraded match", q.Last)
	}
}

func TestResolveQuote_EmptyMarketTable(t *testing.T) {
	ref := refTable(t, 270.0)
	mkt := mustTable(t, `{"columns": ["BOARDID", "LAST"], "data": []}`)
	_, err := resolveQuote(testLogger, "SBER", ref, mkt)
	if !errors.Is(err, table.ErrEmptyTable) {
		t.Fatalf("want ErrEmptyTable, got %v", err)
	}
}

func TestResolveQuote_NameFallbacks(t *testing.T) {
	mkt := mktTable(t, 10.0, nil, nil, nil, nil, nil)

	shortOnly := mustTable(t, `{
		"columns": ["BOARDID", "SHORTNAME", "SECNAME", "PREVPRICE"],
		"data": [["TQBR", "Сбербанк", null, 9.0]]
	}`)
	q, err := resolveQuote(testLogger, "SBER", shortOnly, mkt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if q.Name != "Сбербанк" {
		t.Fatalf("name = %q, want short-form fallback", q.Name)
	}

	noNames := mustTable(t, `{
		"columns": ["BOARDID", "SHORTNAME", "SECNAME", "PREVPRICE"],
		"data": [["TQBR", null, null, 9.0]]
	}`)
	q, err = resolveQuote(testLogger, "SBER.ME", noNames, mkt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if q.Name != "SBER.ME" {
		t.Fatalf("name = %q, want input symbol fallback", q.Name)
	}
}

func TestResolveQuote_KeepsCallerSymbol(t *testing.T) {
	ref := refTable(t, 270.0)
	mkt := mktTable(t, 273.5, nil, nil, nil, nil, nil)
	q, err := resolveQuote(testLogger, "sber.me", ref, mkt)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if q.Symbol != "sber.me" {
		t.Fatalf("symbol = %q, want caller's original string", q.Symbol)
	}
}
