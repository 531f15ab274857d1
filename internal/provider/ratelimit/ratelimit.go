// Package ratelimit gates a provider.Source behind a token-bucket limiter so
// the upstream source is polled politely.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"quoteprovider/internal/provider"
)

// Source wraps a provider.Source and reserves limiter tokens before each
// upstream call. A batch reserves one token per requested symbol, since the
// fetcher fans out one retrieval task each.
type Source struct {
	S provider.Source
	L *rate.Limiter
}

// New builds a limited source allowing maxPerSecond requests with the given
// burst.
func New(s provider.Source, maxPerSecond float64, burst int) *Source {
	if burst <= 0 {
		burst = 1
	}
	return &Source{S: s, L: rate.NewLimiter(rate.Limit(maxPerSecond), burst)}
}

func (s *Source) Name() string { return s.S.Name() }

func (s *Source) Supports(symbol string) bool { return s.S.Supports(symbol) }

func (s *Source) Quote(ctx context.Context, symbol string) (provider.Quote, error) {
	if err := s.L.Wait(ctx); err != nil {
		return provider.Quote{}, err
	}
	return s.S.Quote(ctx, symbol)
}

func (s *Source) Quotes(ctx context.Context, symbols []string) ([]provider.Quote, error) {
	n := len(symbols)
	if n == 0 {
		return s.S.Quotes(ctx, symbols)
	}
	if n > s.L.Burst() {
		// WaitN cannot exceed the burst; drain in burst-sized chunks.
		for n > 0 {
			chunk := min(n, s.L.Burst())
			if err := s.L.WaitN(ctx, chunk); err != nil {
				return nil, err
			}
			n -= chunk
		}
	} else if err := s.L.WaitN(ctx, n); err != nil {
		return nil, err
	}
	return s.S.Quotes(ctx, symbols)
}

func (s *Source) Candles(ctx context.Context, symbol string, r provider.Range) (provider.Series, error) {
	if err := s.L.Wait(ctx); err != nil {
		return provider.Series{}, err
	}
	return s.S.Candles(ctx, symbol, r)
}
