package moex

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"quoteprovider/internal/provider"
	"quoteprovider/internal/table"
)

const wireDate = "2006-01-02"

// GetCandles retrieves the raw candle table for one instrument starting at
// from, sampled at the given ISS interval code. till is optional; nil means
// a window anchored at now.
func (c *ISSClient) GetCandles(ctx context.Context, secid string, from time.Time, interval int, till *time.Time) (*table.Table, error) {
	query := maps.Clone(c.query)
	query.Set("from", from.Format(wireDate))
	query.Set("interval", strconv.Itoa(interval))
	if till != nil {
		query.Set("till", till.Format(wireDate))
	}

	reqURL := fmt.Sprintf("%s/engines/stock/markets/shares/securities/%s/candles.json?%s",
		c.baseURL, url.PathEscape(secid), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &provider.SystemicError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body struct {
		Candles json.RawMessage `json:"candles"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding candles response: %w", err)
	}
	candles, err := table.Decode(body.Candles)
	if err != nil {
		return nil, fmt.Errorf("decoding candles table: %w", err)
	}
	return candles, nil
}
