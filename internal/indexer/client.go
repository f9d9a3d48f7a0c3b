// Package indexer counts token holders through a cursor-paginated
// "token owners" API, as a fallback or cross-check for explorer scraping.
package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"pooldash/internal/chains"
	"pooldash/internal/domain"
)

// Default configuration values.
const (
	DefaultPageSize = 100
	DefaultMaxPages = 10
	DefaultTimeout  = 12 * time.Second
)

// ErrRateLimited is returned when the indexer throttled the request.
var ErrRateLimited = errors.New("indexer rate limited")

// Client queries the owners endpoint page by page. An accumulated count
// reaching MaxPages full pages is a deliberate undercount, flagged as
// Truncated, not an error.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	maxPages   int
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures Client.
type Option func(*Client)

// WithPageSize sets the page size requested per call.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMaxPages sets the hard page cap per contract.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates an owners-endpoint client. An empty apiKey leaves
// the client disabled: HolderCount returns NotFound without any network
// call and the reconciler treats the source as absent, not broken.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		pageSize:   DefaultPageSize,
		maxPages:   DefaultMaxPages,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// ownersResponse is one page of the owners endpoint.
type ownersResponse struct {
	Result []string `json:"result"`
	Cursor string   `json:"cursor,omitempty"`
}

// HolderCount accumulates owner counts across pages until the cursor is
// exhausted, a short page arrives, or the page cap is hit.
//
// A failure on any page aborts the whole attempt and yields NotFound: a
// partial sum without knowing whether it was page 1 of many is
// misleading. HTTP 429 additionally surfaces ErrRateLimited.
func (c *Client) HolderCount(ctx context.Context, route chains.Route, contractAddress string) (domain.ScrapeResult, error) {
	if !c.Enabled() {
		return domain.NotFound(), nil
	}

	total := 0
	cursor := ""
	truncated := false

	for page := 0; page < c.maxPages; page++ {
		resp, err := c.fetchPage(ctx, route.IndexerNetwork, contractAddress, cursor)
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				c.logger.Warn("indexer rate limited",
					zap.String("chain", route.ChainName),
					zap.String("contract", contractAddress),
					zap.Int("page", page))
				return domain.NotFound(), err
			}
			c.logger.Debug("indexer page fetch failed, aborting attempt",
				zap.String("contract", contractAddress),
				zap.Int("page", page),
				zap.Error(err))
			return domain.NotFound(), nil
		}

		total += len(resp.Result)
		cursor = resp.Cursor

		if cursor == "" || len(resp.Result) < c.pageSize {
			break
		}
		if page == c.maxPages-1 {
			// Cap hit with a cursor still outstanding.
			truncated = true
		}
	}

	result := domain.FoundCount(total, domain.SourceIndexer)
	result.Truncated = truncated
	if truncated {
		c.logger.Info("indexer count truncated at page cap",
			zap.String("contract", contractAddress),
			zap.Int("count", total),
			zap.Int("maxPages", c.maxPages))
	}
	return result, nil
}

// fetchPage requests a single owners page.
func (c *Client) fetchPage(ctx context.Context, network, contractAddress, cursor string) (*ownersResponse, error) {
	q := url.Values{}
	q.Set("chain", network)
	q.Set("contract", contractAddress)
	q.Set("limit", strconv.Itoa(c.pageSize))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	reqURL := fmt.Sprintf("%s/owners?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch owners page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("owners endpoint status %d: %s", resp.StatusCode, body)
	}

	var page ownersResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode owners page: %w", err)
	}
	return &page, nil
}
