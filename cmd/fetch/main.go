package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"quoteprovider/internal/config"
	"quoteprovider/internal/httpx"
	"quoteprovider/internal/provider"
	"quoteprovider/internal/provider/moex"
	"quoteprovider/internal/provider/ratelimit"
)

func main() {
	var symbolsCSV string
	var candlesSymbol string
	var rangeToken string
	var timeout int
	var configPath string

	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "SBER,GAZP,LKOH"), "comma-separated symbols to quote")
	flag.StringVar(&candlesSymbol, "candles", "", "fetch a candle series for this symbol instead of quotes")
	flag.StringVar(&rangeToken, "range", getenv("RANGE", "1mo"), "chart range: 1d, 2w, 1mo, 3mo, 1y, 5y, max")
	flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.yaml (optional)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	if timeout != 0 {
		cfg.Server.RequestTimeoutSec = timeout
	}

	src, err := buildSource(cfg, logger)
	if err != nil {
		logger.Error("source", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	if candlesSymbol != "" {
		r, err := provider.ParseRange(rangeToken)
		if err != nil {
			logger.Error("range", "error", err)
			os.Exit(1)
		}
		series, err := src.Candles(ctx, candlesSymbol, r)
		if err != nil {
			logger.Error("candles", "symbol", candlesSymbol, "error", err)
			os.Exit(1)
		}
		stats, err := series.Stats()
		if err != nil {
			logger.Error("stats", "symbol", candlesSymbol, "error", err)
			os.Exit(1)
		}
		printJSON(struct {
			Series provider.Series `json:"series"`
			Stats  provider.Stats  `json:"stats"`
		}{series, stats})
		return
	}

	symbols := splitCSV(symbolsCSV)
	if len(symbols) == 0 {
		logger.Error("no symbols provided")
		os.Exit(1)
	}
	quotes, err := src.Quotes(ctx, symbols)
	if err != nil {
		logger.Error("quotes", "error", err)
		os.Exit(1)
	}
	logger.Info("fetched", "requested", len(symbols), "resolved", len(quotes))
	printJSON(struct {
		Quotes []provider.Quote `json:"quotes"`
	}{quotes})
}

func buildSource(cfg config.Config, logger *slog.Logger) (provider.Source, error) {
	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	issClient, err := moex.NewISSClient(
		moex.WithBaseURL(cfg.MOEX.BaseURL),
		moex.WithHTTPClient(httpClient.HTTP),
		moex.WithHeader(httpClient.Header()),
	)
	if err != nil {
		return nil, err
	}
	var src provider.Source = moex.New(moex.Config{Logger: logger}, issClient)
	if cfg.MOEX.MaxRequestsPerSecond > 0 {
		src = ratelimit.New(src, cfg.MOEX.MaxRequestsPerSecond, cfg.MOEX.Burst)
	}
	return src, nil
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x != 0 {
			return x
		}
	}
	return def
}
