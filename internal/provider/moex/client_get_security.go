package moex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"quoteprovider/internal/provider"
	"quoteprovider/internal/table"
)

// SecuritySnapshot is one fetch of the two tables a quote resolves from:
// reference data (one row per board) and live market data (one or more rows
// per board).
type SecuritySnapshot struct {
	Securities *table.Table
	Marketdata *table.Table
}

// GetSecurity retrieves the reference and market tables for one instrument.
// Concurrent calls for the same instrument share a single upstream request.
func (c *ISSClient) GetSecurity(ctx context.Context, secid string) (*SecuritySnapshot, error) {
	v, err, _ := c.sf.Do("security:"+secid, func() (any, error) {
		return c.getSecurity(ctx, secid)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SecuritySnapshot), nil
}

func (c *ISSClient) getSecurity(ctx context.Context, secid string) (*SecuritySnapshot, error) {
	reqURL := fmt.Sprintf("%s/engines/stock/markets/shares/securities/%s.json?%s",
		c.baseURL, url.PathEscape(secid), c.query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		// The request never completed: the source itself is unreachable.
		return nil, &provider.SystemicError{Err: err}
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusNotFound:
		return nil, fmt.Errorf("unknown security %q", secid)

	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited")

	default:
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body struct {
		Securities json.RawMessage `json:"securities"`
		Marketdata json.RawMessage `json:"marketdata"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding security response: %w", err)
	}

	securities, err := table.Decode(body.Securities)
	if err != nil {
		return nil, fmt.Errorf("decoding securities table: %w", err)
	}
	marketdata, err := table.Decode(body.Marketdata)
	if err != nil {
		return nil, fmt.Errorf("decoding marketdata table: %w", err)
	}
	return &SecuritySnapshot{Securities: securities, Marketdata: marketdata}, nil
}
