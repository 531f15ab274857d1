// Package moex fetches quotes and candle series from the exchange's ISS
// API: column-table decoding, price/candle resolution and concurrent batch
// fetching over a shared transport client.
package moex

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quoteprovider/internal/provider"
)

// Config controls the MOEX source behavior.
type Config struct {
	Name   string
	Logger *slog.Logger
}

// Provider implements provider.Source on top of an ISSClient.
type Provider struct {
	cfg    Config
	client *ISSClient
	logger *slog.Logger
}

// New creates the MOEX source. client is the shared, process-lifetime
// transport collaborator.
func New(cfg Config, client *ISSClient) *Provider {
	if cfg.Name == "" {
		cfg.Name = SourceTag
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{cfg: cfg, client: client, logger: logger.With("provider", cfg.Name)}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Supports reports whether symbol is routed to this source.
func (p *Provider) Supports(symbol string) bool { return IsEligible(symbol) }

// Quote fetches and resolves a single symbol. Unlike the batch path, every
// error surfaces to the caller as a typed failure.
func (p *Provider) Quote(ctx context.Context, symbol string) (provider.Quote, error) {
	snap, err := p.client.GetSecurity(ctx, Canonicalize(symbol))
	if err != nil {
		return provider.Quote{}, err
	}
	return resolveQuote(p.logger, symbol, snap.Securities, snap.Marketdata)
}

// Quotes fetches a batch, one task per input symbol (duplicates included).
// Item-local failures (bad ticker, decode, no price) drop that symbol;
// systemic failures (source unreachable) abort the whole batch with no
// partial result. Output order follows input order, with unresolved symbols
// omitted, so callers must not assume output length equals input length.
func (p *Provider) Quotes(ctx context.Context, symbols []string) ([]provider.Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	type result struct {
		symbol    string
		canonical string
		quote     provider.Quote
		err       error
	}
	ch := make(chan result, len(symbols))
	var wg sync.WaitGroup
	for _, s := range symbols {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !IsEligible(s) {
				ch <- result{symbol: s, canonical: Canonicalize(s), err: fmt.Errorf("symbol %q not eligible", s)}
				return
			}
			q, err := p.Quote(ctx, s)
			ch <- result{symbol: s, canonical: Canonicalize(s), quote: q, err: err}
		}()
	}
	// Decode/resolve work is synchronous; tasks only suspend on network I/O.
	// The aggregation map is built single-threaded after the join.
	wg.Wait()
	close(ch)

	resolved := make(map[string]provider.Quote, len(symbols))
	var systemic error
	for r := range ch {
		if r.err != nil {
			if provider.IsSystemic(r.err) {
				if systemic == nil {
					systemic = r.err
				}
				continue
			}
			p.logger.Warn("dropping symbol from batch", "symbol", r.symbol, "error", r.err)
			continue
		}
		resolved[r.canonical] = r.quote
	}
	if systemic != nil {
		// The source is down: report it once rather than as N identical
		// per-item drops, and return nothing.
		return nil, systemic
	}
	if len(resolved) == 0 {
		return nil, provider.ErrAllFetchesFailed
	}

	out := make([]provider.Quote, 0, len(symbols))
	for _, s := range symbols {
		if q, ok := resolved[Canonicalize(s)]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// Candles fetches a normalized chart series for the requested range.
func (p *Provider) Candles(ctx context.Context, symbol string, r provider.Range) (provider.Series, error) {
	lookback, interval := rangeParams(r)
	from := time.Now().Add(-lookback)
	t, err := p.client.GetCandles(ctx, Canonicalize(symbol), from, interval, nil)
	if err != nil {
		return provider.Series{}, err
	}
	return newSeries(symbol, r, resolveCandles(t)), nil
}
