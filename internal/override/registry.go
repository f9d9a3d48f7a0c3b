// Package override holds manually verified holder counts for contracts
// whose true cardinality defeats live counting: very large holder sets,
// aggressive explorer rate limits, or both. An override always takes
// precedence over freshly scraped or paginated values.
package override

import "strings"

// Verified counts keyed by lower-cased contract address. Update values
// here when a manual re-verification lands; never at runtime.
var verifiedCounts = map[string]int{
	// Lido stETH. ~550k holders; etherscan throttles the token page and
	// the owners endpoint needs thousands of pages to enumerate.
	"0xae7ab96520de3a18e5e111b5eaab095312d7fe84": 547477,

	// Rocket Pool rETH.
	"0xae78736cd615f374d3085123a210448e74fc6393": 38250,

	// Coinbase cbETH on Base.
	"0x2ae3f1ec7f1f5012cfeab0185bfc7aa3cf0dec22": 41903,
}

// Lookup returns the verified holder count for a contract address,
// case-insensitively. The second return is false when no override exists.
func Lookup(contractAddress string) (int, bool) {
	n, ok := verifiedCounts[strings.ToLower(strings.TrimSpace(contractAddress))]
	return n, ok
}

// Has reports whether an override exists for the address.
func Has(contractAddress string) bool {
	_, ok := Lookup(contractAddress)
	return ok
}
