package moex

import (
	"net/http"
	"net/url"

	"golang.org/x/sync/singleflight"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=moex_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const defaultBaseURL = "https://iss.moex.com/iss"

// ISSClient is a client for the exchange's ISS HTTP API. It is the single
// transport collaborator the core consumes: plain GETs returning the
// column/data table shape.
type ISSClient struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient performs the requests.
	httpClient HTTPClient
	// header contains additional headers sent with each request.
	header http.Header
	// query contains query parameters sent with each request.
	query url.Values

	// sf coalesces identical in-flight security fetches so a batch with
	// duplicate symbols issues one upstream GET per instrument.
	sf singleflight.Group
}

// ISSClientOption is a configuration option for the ISS client.
type ISSClientOption func(*ISSClient)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ISSClientOption {
	return func(c *ISSClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) ISSClientOption {
	return func(c *ISSClient) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ISSClientOption {
	return func(c *ISSClient) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewISSClient creates a new ISS API client.
func NewISSClient(options ...ISSClientOption) (*ISSClient, error) {
	var client = &ISSClient{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	// Metadata blocks double every payload; the decoder only needs the
	// columns/data tables.
	client.query.Set("iss.meta", "off")
	for _, option := range options {
		option(client)
	}
	return client, nil
}
