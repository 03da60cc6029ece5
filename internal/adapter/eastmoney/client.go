// Package eastmoney fetches historical NAV pages from the Eastmoney fund data endpoint
package eastmoney

import (
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/caiyueliang/fundnav-backend/internal/common"
)

const (
	// DefaultBaseURL is the public Eastmoney fund API host
	DefaultBaseURL = "https://api.fund.eastmoney.com"
	// DefaultPageSize is the number of entries requested per page
	DefaultPageSize = 100

	historyPath = "/f10/lsjz"
	userAgent   = "Mozilla/5.0 (compatible; fundnav/1.0)"
	maxBodySize = 8 << 20
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=eastmoney_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Eastmoney history endpoint.
// A Client is safe for concurrent use; pagination state lives in each FetchHistory call.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	header     http.Header
	pageSize   int
	timeout    time.Duration
	limiter    *rate.Limiter
	retry      retryPolicy
	parser     Parser
	logger     *common.Logger
}

type retryPolicy struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
}

// ClientOption is a configuration option for the Eastmoney client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithPageSize sets the number of entries requested per page.
func WithPageSize(pageSize int) ClientOption {
	return func(c *Client) {
		if pageSize > 0 {
			c.pageSize = pageSize
		}
	}
}

// WithTimeout bounds each page request.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRateLimit shares a token bucket across all requests made by the client.
// rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry retries a failed page with exponential backoff.
// maxAttempts <= 1 disables retrying.
func WithRetry(maxAttempts int, initialInterval, maxInterval time.Duration) ClientOption {
	return func(c *Client) {
		c.retry = retryPolicy{
			maxAttempts:     maxAttempts,
			initialInterval: initialInterval,
			maxInterval:     maxInterval,
		}
	}
}

// WithSkipMissingNAV drops entries without a usable nav instead of recording them as zero.
func WithSkipMissingNAV(skip bool) ClientOption {
	return func(c *Client) {
		c.parser.SkipMissingNAV = skip
	}
}

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Eastmoney client.
func NewClient(options ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		header:   http.Header{},
		pageSize: DefaultPageSize,
		retry:    retryPolicy{maxAttempts: 1},
		logger:   common.NewSilentLogger(),
	}
	for _, option := range options {
		option(c)
	}
	if c.httpClient == nil {
		c.httpClient = newHTTPClient()
	}
	return c
}

// NewClientFromConfig builds a client from the [source] config section.
func NewClientFromConfig(cfg common.SourceConfig, logger *common.Logger) *Client {
	return NewClient(
		WithBaseURL(cfg.BaseURL),
		WithPageSize(cfg.PageSize),
		WithTimeout(cfg.GetTimeout()),
		WithRateLimit(cfg.RateLimit, cfg.Burst),
		WithRetry(cfg.Retry.MaxAttempts, cfg.Retry.GetInitialInterval(), cfg.Retry.GetMaxInterval()),
		WithSkipMissingNAV(cfg.SkipMissingNAV),
		WithLogger(logger),
	)
}

func newHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   20,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport}
}
