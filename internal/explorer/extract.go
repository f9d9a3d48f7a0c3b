package explorer

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pooldash/internal/chains"
)

// extractionRule is one strategy for locating the holder count in a
// parsed page. Rules run in order; the first strictly-positive parse
// wins. Adding support for a new explorer dialect means prepending a
// rule, not touching control flow.
type extractionRule struct {
	name    string
	extract func(p *page) (int, bool)
}

// rulesFor returns the cascade for an explorer markup dialect:
// the chain-specific high-confidence rule first, then the generic
// heading lookup, the free-text pattern scan, and the summary-card
// restricted scan.
func rulesFor(markup chains.Markup) []extractionRule {
	var rules []extractionRule
	switch markup {
	case chains.MarkupEtherscan:
		rules = append(rules, extractionRule{"etherscan-heading", extractEtherscanHeading})
	case chains.MarkupBasescan:
		rules = append(rules, extractionRule{"basescan-inline", extractBasescanInline})
	}
	return append(rules,
		extractionRule{"generic-heading", extractHeadingSibling},
		extractionRule{"text-pattern", extractTextPattern},
		extractionRule{"summary-card", extractSummaryCard},
	)
}

// extractHolderCount runs the cascade and reports the matched rule name.
func extractHolderCount(body string, markup chains.Markup) (count int, rule string, ok bool) {
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return 0, "", false
	}

	p := &page{root: root}
	for _, r := range rulesFor(markup) {
		if n, found := r.extract(p); found && n > 0 {
			return n, r.name, true
		}
	}
	return 0, "", false
}

// page wraps the parsed document with lazily built views shared by rules.
type page struct {
	root *html.Node

	blocks     []string // leaf block-level text segments
	blocksDone bool
}

// holdersLabelPattern: "Holders: 17,365" / "Holders 17365".
var holdersLabelPattern = regexp.MustCompile(`(?i)holders?[:\s]+([\d,]+)`)

// countSuffixPattern: "17,365 holders" / "17,365 addresses".
var countSuffixPattern = regexp.MustCompile(`(?i)([\d,]+)\s+(?:addresses|holders)`)

// inlinePercentPattern: "Holders ... 17,365 (0.00%)" as rendered by
// basescan-class explorers.
var inlinePercentPattern = regexp.MustCompile(`(?i)holders[^\d%]{0,80}?([\d,]+)\s*\(\s*[\d.,]+\s*%`)

var groupedIntPattern = regexp.MustCompile(`[\d,]+`)

// extractEtherscanHeading handles the etherscan layout: a heading element
// whose text is exactly "Holders", with the count in the next sibling.
func extractEtherscanHeading(p *page) (int, bool) {
	for _, h := range p.headings() {
		label := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(nodeText(h))), ":")
		if label != "holders" {
			continue
		}
		if n, ok := firstPositiveInt(siblingText(h)); ok {
			return n, true
		}
	}
	return 0, false
}

// extractBasescanInline handles the basescan layout where the count is
// rendered inline as "N (P%)" near the word "Holders".
func extractBasescanInline(p *page) (int, bool) {
	// Label and value usually sit in separate inline nodes; match against
	// the flattened document text and rely on the bounded gap.
	if m := inlinePercentPattern.FindStringSubmatch(nodeText(p.root)); m != nil {
		if n, ok := parseGroupedInt(m[1]); ok {
			return n, true
		}
	}
	return 0, false
}

// extractHeadingSibling is the generic fallback: any heading containing
// "holders" as a case-insensitive substring, count parsed from the text
// of its following siblings.
func extractHeadingSibling(p *page) (int, bool) {
	for _, h := range p.headings() {
		if !strings.Contains(strings.ToLower(nodeText(h)), "holders") {
			continue
		}
		if n, ok := firstPositiveInt(siblingText(h)); ok {
			return n, true
		}
	}
	return 0, false
}

// extractTextPattern scans every leaf block-level text segment for the
// label and suffix patterns.
func extractTextPattern(p *page) (int, bool) {
	for _, text := range p.blockTexts() {
		if n, ok := matchHolderPatterns(text); ok {
			return n, true
		}
	}
	return 0, false
}

// extractSummaryCard applies the same patterns restricted to known
// summary containers (card/overview/summary class or id).
func extractSummaryCard(p *page) (int, bool) {
	var result int
	var found bool
	walk(p.root, func(n *html.Node) bool {
		if found || n.Type != html.ElementNode || !isSummaryContainer(n) {
			return true
		}
		if v, ok := matchHolderPatterns(nodeText(n)); ok {
			result, found = v, true
			return false
		}
		return true
	})
	return result, found
}

func matchHolderPatterns(text string) (int, bool) {
	if m := holdersLabelPattern.FindStringSubmatch(text); m != nil {
		if n, ok := parseGroupedInt(m[1]); ok {
			return n, true
		}
	}
	if m := countSuffixPattern.FindStringSubmatch(text); m != nil {
		if n, ok := parseGroupedInt(m[1]); ok {
			return n, true
		}
	}
	return 0, false
}

// headings collects h1..h6 elements in document order.
func (p *page) headings() []*html.Node {
	var out []*html.Node
	walk(p.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				out = append(out, n)
			}
		}
		return true
	})
	return out
}

// blockTexts returns the text of each leaf block element: a block-level
// element with no block-level descendants. Leaf blocks keep label and
// value together ("Holders: 17,365") without duplicating ancestor text.
func (p *page) blockTexts() []string {
	if p.blocksDone {
		return p.blocks
	}
	walk(p.root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || !isBlockElement(n) || hasBlockChild(n) {
			return true
		}
		if text := strings.TrimSpace(nodeText(n)); text != "" {
			p.blocks = append(p.blocks, text)
		}
		return false
	})
	p.blocksDone = true
	return p.blocks
}

func isBlockElement(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Div, atom.P, atom.Td, atom.Th, atom.Li, atom.Section, atom.Span,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (isBlockElement(c) || hasBlockChild(c)) {
			return true
		}
	}
	return false
}

func isSummaryContainer(n *html.Node) bool {
	for _, attr := range n.Attr {
		v := strings.ToLower(attr.Val)
		switch attr.Key {
		case "class":
			if strings.Contains(v, "card") || strings.Contains(v, "overview") || strings.Contains(v, "summary") {
				return true
			}
		case "id":
			if strings.Contains(v, "summary") || strings.Contains(v, "overview") {
				return true
			}
		}
	}
	return false
}

// siblingText flattens the text of every sibling following n.
func siblingText(n *html.Node) string {
	var sb strings.Builder
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		sb.WriteString(nodeText(s))
		sb.WriteByte(' ')
	}
	return sb.String()
}

// nodeText concatenates all text descendants of n.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// walk traverses the tree depth-first. Returning false from fn skips the
// node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// firstPositiveInt returns the first strictly-positive comma-grouped
// integer in s. Skipping non-positive matches avoids latching onto the
// "0" of an adjacent "(0.00%)".
func firstPositiveInt(s string) (int, bool) {
	for _, m := range groupedIntPattern.FindAllString(s, -1) {
		if n, ok := parseGroupedInt(m); ok && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// parseGroupedInt parses "17,365" as 17365. Never returns a negative.
func parseGroupedInt(s string) (int, bool) {
	s = strings.Trim(strings.ReplaceAll(s, ",", ""), " ")
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
