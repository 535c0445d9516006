package trademaster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout  = 60 * time.Second
	maxResponseSize = 10 << 20 // 10MB
)

// emptyList is what callers receive whenever the ERP gives no usable data
var emptyList = json.RawMessage("[]")

// Config holds the TradeMaster connection settings
type Config struct {
	Host        string
	Version     int
	APIKey      string
	CacheHost   string
	CacheFolder string
	Storage     string
	Timeout     time.Duration
}

// Client talks to the TradeMaster HTTP API
// Transport failures, non-2xx statuses, and empty bodies all yield an empty
// list: the feeds treat "no data this call" as a normal outcome, and the
// pagination loops self-correct on the next full run
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new TradeMaster API client
func NewClient(config Config, logger *zap.Logger) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("trademaster"),
	}
}

// Call performs one API request and returns the raw JSON body
// GET sends params plus the api key in the query string; POST sends the key
// in the query string and the params URL-encoded in the body
func (c *Client) Call(ctx context.Context, method, endpoint string, params map[string]string) (json.RawMessage, error) {
	if c.config.APIKey == "" {
		c.logger.Warn("API key not configured", zap.String("endpoint", endpoint))
		return emptyList, nil
	}

	method = strings.ToUpper(method)
	base := fmt.Sprintf("%s/v%d/%s", strings.TrimRight(c.config.Host, "/"), c.config.Version, endpoint)

	var req *http.Request
	var err error
	switch method {
	case http.MethodGet:
		query := url.Values{}
		for k, v := range params {
			query.Set(k, v)
		}
		query.Set("apikey", c.config.APIKey)
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+query.Encode(), nil)
	default:
		body := url.Values{}
		for k, v := range params {
			body.Set(k, v)
		}
		query := url.Values{"apikey": {c.config.APIKey}}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, base+"?"+query.Encode(), strings.NewReader(body.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", endpoint, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("API request failed",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return emptyList, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("API returned non-2xx status",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return emptyList, nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil || len(raw) == 0 || !json.Valid(raw) {
		c.logger.Warn("API returned empty or malformed body",
			zap.String("endpoint", endpoint),
			zap.Int("bytes", len(raw)),
		)
		return emptyList, nil
	}

	return json.RawMessage(raw), nil
}

// FilePath resolves a remote file name to its public download URL
func (c *Client) FilePath(name string) string {
	return fmt.Sprintf("%s/tradeMasterImages/%s/%s",
		strings.TrimRight(c.config.CacheHost, "/"),
		c.config.CacheFolder,
		url.PathEscape(strings.TrimSpace(name)),
	)
}
