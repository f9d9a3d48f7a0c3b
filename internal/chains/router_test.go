package chains

import (
	"errors"
	"testing"
)

func TestResolve_SupportedChains(t *testing.T) {
	tests := []struct {
		name         string
		chain        string
		wantExplorer string
		wantNetwork  string
		wantMarkup   Markup
	}{
		{"ethereum", "ethereum", "https://etherscan.io", "eth-mainnet", MarkupEtherscan},
		{"base", "base", "https://basescan.org", "base-mainnet", MarkupBasescan},
		{"case insensitive", "Ethereum", "https://etherscan.io", "eth-mainnet", MarkupEtherscan},
		{"surrounding whitespace", " base ", "https://basescan.org", "base-mainnet", MarkupBasescan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Resolve(tt.chain)
			if err != nil {
				t.Fatalf("Resolve(%q) failed: %v", tt.chain, err)
			}
			if r.ExplorerBaseURL != tt.wantExplorer {
				t.Errorf("ExplorerBaseURL = %s, want %s", r.ExplorerBaseURL, tt.wantExplorer)
			}
			if r.IndexerNetwork != tt.wantNetwork {
				t.Errorf("IndexerNetwork = %s, want %s", r.IndexerNetwork, tt.wantNetwork)
			}
			if r.Markup != tt.wantMarkup {
				t.Errorf("Markup = %s, want %s", r.Markup, tt.wantMarkup)
			}
		})
	}
}

func TestResolve_UnsupportedChain(t *testing.T) {
	_, err := Resolve("solana")
	if err == nil {
		t.Fatal("expected error for unsupported chain")
	}
	if !errors.Is(err, ErrUnsupportedChain) {
		t.Errorf("expected ErrUnsupportedChain, got %v", err)
	}
}

func TestResolve_EmptyName(t *testing.T) {
	_, err := Resolve("")
	if !errors.Is(err, ErrUnsupportedChain) {
		t.Errorf("expected ErrUnsupportedChain for empty name, got %v", err)
	}
}

func TestTokenPageURL(t *testing.T) {
	r, err := Resolve("ethereum")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	got := r.TokenPageURL("0xae7ab96520de3a18e5e111b5eaab095312d7fe84")
	want := "https://etherscan.io/token/0xae7ab96520de3a18e5e111b5eaab095312d7fe84"
	if got != want {
		t.Errorf("TokenPageURL = %s, want %s", got, want)
	}
}
