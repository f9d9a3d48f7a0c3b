// Package chains maps chain names to explorer and indexer endpoints.
package chains

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedChain is returned for chains with no known explorer or
// indexer mapping. An unknown chain must fail loudly; falling back to a
// default explorer would count holders of the wrong contract.
var ErrUnsupportedChain = errors.New("unsupported chain")

// Markup identifies the explorer's HTML dialect, which drives the
// chain-specific extraction rule in the scraper.
type Markup string

const (
	// MarkupEtherscan surfaces the holder count directly adjacent to a
	// heading element ("Holders" h4 followed by the number).
	MarkupEtherscan Markup = "etherscan"

	// MarkupBasescan surfaces the count inline as "N (P%)" near the word
	// "Holders".
	MarkupBasescan Markup = "basescan"
)

// Route holds the resolved endpoints and quirks for one chain.
type Route struct {
	ChainName       string
	ExplorerBaseURL string
	IndexerNetwork  string // network id used by the owners endpoint
	Markup          Markup
}

// TokenPageURL returns the explorer page listing a token's summary stats.
func (r Route) TokenPageURL(contractAddress string) string {
	return fmt.Sprintf("%s/token/%s", strings.TrimRight(r.ExplorerBaseURL, "/"), contractAddress)
}

var routes = map[string]Route{
	"ethereum": {
		ChainName:       "ethereum",
		ExplorerBaseURL: "https://etherscan.io",
		IndexerNetwork:  "eth-mainnet",
		Markup:          MarkupEtherscan,
	},
	"base": {
		ChainName:       "base",
		ExplorerBaseURL: "https://basescan.org",
		IndexerNetwork:  "base-mainnet",
		Markup:          MarkupBasescan,
	},
}

// Resolve returns the route for a chain name (case-insensitive).
// Returns ErrUnsupportedChain for anything outside the supported set.
func Resolve(name string) (Route, error) {
	r, ok := routes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Route{}, fmt.Errorf("%w: %q", ErrUnsupportedChain, name)
	}
	return r, nil
}

// Supported lists the supported chain names. Used for validation and
// operator-facing error messages.
func Supported() []string {
	names := make([]string, 0, len(routes))
	for name := range routes {
		names = append(names, name)
	}
	return names
}
