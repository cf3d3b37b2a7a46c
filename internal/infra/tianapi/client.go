// Package tianapi is a small client for the TianAPI hot-word and
// "bad boy quote" endpoints.
package tianapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://apis.tianapi.com/"

const defaultHotwordCount = 5

// Result is the decoded JSON body. On failure it holds a single "error" key.
type Result map[string]any

// Err returns the failure message, if any.
func (r Result) Err() string {
	msg, _ := r["error"].(string)
	return msg
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		c.baseURL = baseURL
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetHotwords looks up trending words related to word. num <= 0 means 5.
func (c *Client) GetHotwords(ctx context.Context, word string, num int) Result {
	if num <= 0 {
		num = defaultHotwordCount
	}

	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("num", strconv.Itoa(num))
	query.Set("word", word)

	return c.call(ctx, http.MethodGet, "hotword/index", query)
}

func (c *Client) GetBadBoyWords(ctx context.Context) Result {
	query := url.Values{}
	query.Set("key", c.apiKey)

	return c.call(ctx, http.MethodPost, "zhanan/index", query)
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values) Result {
	result, err := c.do(ctx, method, path, query)
	if err != nil {
		c.logger.Warn("tianapi request failed", "path", path, "error", err)
		return Result{"error": err.Error()}
	}
	return result
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("tianapi error: %s", resp.Status)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if result == nil {
		result = Result{}
	}
	return result, nil
}
