package explorer

import (
	"testing"

	"pooldash/internal/chains"
)

func TestExtractHolderCount_EtherscanHeading(t *testing.T) {
	body := `<html><body>
		<div class="row">
			<h4>Holders</h4>
			<div>17,365 (0.00%)</div>
		</div>
	</body></html>`

	count, rule, ok := extractHolderCount(body, chains.MarkupEtherscan)
	if !ok {
		t.Fatal("expected a holder count")
	}
	if count != 17365 {
		t.Errorf("count = %d, want 17365", count)
	}
	if rule != "etherscan-heading" {
		t.Errorf("rule = %s, want etherscan-heading", rule)
	}
}

func TestExtractHolderCount_BasescanInline(t *testing.T) {
	body := `<html><body>
		<div class="d-flex">
			<span>Holders:</span>
			<span>41,903 (0.01%)</span>
		</div>
	</body></html>`

	count, rule, ok := extractHolderCount(body, chains.MarkupBasescan)
	if !ok {
		t.Fatal("expected a holder count")
	}
	if count != 41903 {
		t.Errorf("count = %d, want 41903", count)
	}
	if rule != "basescan-inline" {
		t.Errorf("rule = %s, want basescan-inline", rule)
	}
}

func TestExtractHolderCount_GenericHeadingFallback(t *testing.T) {
	// "Token Holders" does not match the exact etherscan rule but does
	// match the generic substring heading rule.
	body := `<html><body>
		<h3>Token Holders</h3>
		<p>1,234</p>
	</body></html>`

	count, rule, ok := extractHolderCount(body, chains.MarkupEtherscan)
	if !ok {
		t.Fatal("expected a holder count")
	}
	if count != 1234 {
		t.Errorf("count = %d, want 1234", count)
	}
	if rule != "generic-heading" {
		t.Errorf("rule = %s, want generic-heading", rule)
	}
}

func TestExtractHolderCount_TextPattern(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{
			"label form",
			`<html><body><div>Holders: 98,765</div></body></html>`,
			98765,
		},
		{
			"suffix form addresses",
			`<html><body><p>2,048 addresses</p></body></html>`,
			2048,
		},
		{
			"suffix form holders",
			`<html><body><td>512 holders</td></body></html>`,
			512,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, _, ok := extractHolderCount(tt.body, chains.MarkupEtherscan)
			if !ok {
				t.Fatal("expected a holder count")
			}
			if count != tt.want {
				t.Errorf("count = %d, want %d", count, tt.want)
			}
		})
	}
}

func TestExtractHolderCount_SummaryCard(t *testing.T) {
	// Label and value in sibling leaf blocks inside a card container:
	// out of reach for the leaf-block text rule, caught by the card rule.
	body := `<html><body>
		<div class="card-body">
			<div><strong>Holders</strong></div>
			<div>7,777</div>
		</div>
	</body></html>`

	count, rule, ok := extractHolderCount(body, chains.MarkupBasescan)
	if !ok {
		t.Fatal("expected a holder count")
	}
	if count != 7777 {
		t.Errorf("count = %d, want 7777", count)
	}
	if rule != "summary-card" {
		t.Errorf("rule = %s, want summary-card", rule)
	}
}

func TestExtractHolderCount_NotFound(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no holder data", `<html><body><h1>Token Overview</h1><p>Price: $1.00</p></body></html>`},
		{"zero count rejected", `<html><body><h4>Holders</h4><div>0</div></body></html>`},
		{"empty page", ``},
		{"garbage", `not html at all %%%%`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, _, ok := extractHolderCount(tt.body, chains.MarkupEtherscan)
			if ok {
				t.Errorf("expected not found, got count %d", count)
			}
			if count != 0 {
				t.Errorf("count = %d, want 0 sentinel", count)
			}
		})
	}
}

func TestExtractHolderCount_SkipsPercentZero(t *testing.T) {
	// The sibling text starts with the percentage; the cascade must not
	// latch onto the 0 of "(0.00%)".
	body := `<html><body><h4>Holders</h4><div>(0.00%) 17,365</div></body></html>`

	count, _, ok := extractHolderCount(body, chains.MarkupEtherscan)
	if !ok {
		t.Fatal("expected a holder count")
	}
	if count != 17365 {
		t.Errorf("count = %d, want 17365", count)
	}
}

func TestParseGroupedInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"17,365", 17365, true},
		{"1,234,567", 1234567, true},
		{"42", 42, true},
		{"0", 0, true},
		{"", 0, false},
		{",", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseGroupedInt(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseGroupedInt(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
