// issdump fetches raw ISS payloads for one symbol and pretty-prints them,
// for eyeballing column layouts when the source changes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"quoteprovider/internal/httpx"
	"quoteprovider/internal/provider/moex"
)

func main() {
	var symbol string
	var base string
	var candles bool
	var from string
	var interval int

	flag.StringVar(&symbol, "symbol", "SBER", "symbol to dump")
	flag.StringVar(&base, "base", "https://iss.moex.com/iss", "ISS base URL")
	flag.BoolVar(&candles, "candles", false, "dump the candle table instead of security tables")
	flag.StringVar(&from, "from", time.Now().AddDate(0, -1, 0).Format("2006-01-02"), "candles: from date (yyyy-mm-dd)")
	flag.IntVar(&interval, "interval", 24, "candles: ISS interval code (1,10,60,24,7,31)")
	flag.Parse()

	secid := moex.Canonicalize(symbol)
	var reqURL string
	if candles {
		reqURL = fmt.Sprintf("%s/engines/stock/markets/shares/securities/%s/candles.json?iss.meta=off&from=%s&interval=%d",
			base, url.PathEscape(secid), url.QueryEscape(from), interval)
	} else {
		reqURL = fmt.Sprintf("%s/engines/stock/markets/shares/securities/%s.json?iss.meta=off",
			base, url.PathEscape(secid))
	}

	client := httpx.New(20 * time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		log.Fatalf("request: %v", err)
	}
	req.Header = client.Header()

	res, err := client.HTTP.Do(req)
	if err != nil {
		log.Fatalf("fetch: %v", err)
	}
	defer res.Body.Close()
	fmt.Fprintf(os.Stderr, "GET %s -> %d\n", reqURL, res.StatusCode)

	body, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		log.Fatalf("read: %v", err)
	}

	var pretty any
	if err := json.Unmarshal(body, &pretty); err != nil {
		// Not JSON; dump as-is.
		os.Stdout.Write(body)
		return
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
}
