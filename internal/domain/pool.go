package domain

import "strings"

// Pool represents a tracked yield-bearing vault/token pair.
// Corresponds to pools table in PostgreSQL. Pools are created and
// maintained by the dashboard; this pipeline consumes them read-only.
type Pool struct {
	ID              string // PK
	ContractAddress string // 20-byte hex, case-insensitive
	ChainName       string // FK to chains.name ("ethereum", "base", ...)
	IsActive        bool
}

// NormalizedAddress returns the contract address lower-cased for
// case-insensitive comparisons and override lookups.
func (p *Pool) NormalizedAddress() string {
	return strings.ToLower(strings.TrimSpace(p.ContractAddress))
}

// Eligible reports whether the pool should be reconciled at all:
// active and carrying a non-empty contract address.
func (p *Pool) Eligible() bool {
	return p.IsActive && strings.TrimSpace(p.ContractAddress) != ""
}

// Chain represents a supported blockchain.
// Corresponds to chains table in PostgreSQL. Read-only to this pipeline;
// endpoint routing is derived from Name by the chains package.
type Chain struct {
	ID   string
	Name string
}
