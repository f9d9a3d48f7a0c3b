package domain

// CountSource identifies which data source produced a holder count.
type CountSource string

const (
	SourceOverride CountSource = "override"
	SourceExplorer CountSource = "explorer"
	SourceIndexer  CountSource = "indexer"
)

// ScrapeResult is the ephemeral outcome of one holder-count lookup
// against a single source. It is a tagged variant: when Found is false
// the Count is meaningless and must never be persisted. Results are
// consumed immediately by the reconciler and never stored.
type ScrapeResult struct {
	Count  int
	Source CountSource
	Found  bool

	// Truncated is set by the indexer when the page cap was reached with
	// a cursor still outstanding: the count is a deliberate undercount.
	Truncated bool
}

// FoundCount builds a successful result. Non-positive counts collapse to
// NotFound: a zero from a scrape is an extraction failure, not a count.
func FoundCount(count int, source CountSource) ScrapeResult {
	if count <= 0 {
		return NotFound()
	}
	return ScrapeResult{Count: count, Source: source, Found: true}
}

// NotFound builds the failure sentinel shared by network errors, parse
// exhaustion, and disabled sources.
func NotFound() ScrapeResult {
	return ScrapeResult{}
}
