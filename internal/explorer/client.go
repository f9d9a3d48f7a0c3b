// Package explorer scrapes token pages of etherscan-class block
// explorers for the displayed holder count.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"pooldash/internal/chains"
	"pooldash/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout = 12 * time.Second

	// Explorers block obvious bots; present a realistic browser identity.
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

	// Explorer pages are a few hundred KB; anything past this is not the
	// token summary we want.
	maxBodyBytes = 4 << 20
)

// ErrRateLimited is returned when the explorer throttled or blocked the
// request. Callers should back off rather than retry in a tight loop.
var ErrRateLimited = errors.New("explorer rate limited")

// Client fetches explorer token pages and extracts holder counts.
// It is stateless apart from the underlying http.Client and safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a new explorer scraping client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  defaultUserAgent,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HolderCount fetches the explorer token page for the contract and runs
// the extraction cascade against the returned markup.
//
// Network errors, non-2xx responses, and cascade exhaustion all collapse
// to a NotFound result with a nil error: the caller must not treat the
// zero count as verified. The only non-nil error is ErrRateLimited, kept
// distinct so the batch scheduler can back off.
func (c *Client) HolderCount(ctx context.Context, route chains.Route, contractAddress string) (domain.ScrapeResult, error) {
	pageURL := route.TokenPageURL(contractAddress)

	body, err := c.fetch(ctx, pageURL)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			c.logger.Warn("explorer rate limited",
				zap.String("chain", route.ChainName),
				zap.String("contract", contractAddress))
			return domain.NotFound(), err
		}
		c.logger.Debug("explorer fetch failed",
			zap.String("url", pageURL),
			zap.Error(err))
		return domain.NotFound(), nil
	}

	count, rule, ok := extractHolderCount(body, route.Markup)
	if !ok {
		c.logger.Debug("holder count not found in explorer markup",
			zap.String("chain", route.ChainName),
			zap.String("contract", contractAddress))
		return domain.NotFound(), nil
	}

	c.logger.Debug("extracted holder count",
		zap.String("chain", route.ChainName),
		zap.String("contract", contractAddress),
		zap.String("rule", rule),
		zap.Int("count", count))
	return domain.FoundCount(count, domain.SourceExplorer), nil
}

// fetch performs the GET and returns the page body. Returns ErrRateLimited
// for HTTP 429 and recognizable block pages.
func (c *Client) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	body := string(data)
	if isBlockPage(body) {
		return "", ErrRateLimited
	}
	return body, nil
}

// Cloudflare and explorer anti-bot interstitials served with a 200.
var blockPageMarkers = []string{
	"access denied",
	"cf-challenge",
	"checking your browser",
	"rate limit exceeded",
}

func isBlockPage(body string) bool {
	if len(body) > 8192 {
		body = body[:8192]
	}
	lower := strings.ToLower(body)
	for _, marker := range blockPageMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
