package types

import "strings"

// Token describes an asset on a single chain. Immutable once loaded;
// Decimals drives every base-unit conversion for the token.
type Token struct {
	Address  string `json:"address" yaml:"address"`
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals int    `json:"decimals" yaml:"decimals"`
	LogoURI  string `json:"logoURI,omitempty" yaml:"logoURI,omitempty"`
}

// SameAddress compares token addresses case-insensitively.
func (t Token) SameAddress(address string) bool {
	return strings.EqualFold(t.Address, address)
}

// FindTokenByAddress returns the token with the given address from the list.
func FindTokenByAddress(tokens []Token, address string) (Token, bool) {
	for _, t := range tokens {
		if t.SameAddress(address) {
			return t, true
		}
	}
	return Token{}, false
}

// FindTokenBySymbol returns the first token with the given symbol from the list.
func FindTokenBySymbol(tokens []Token, symbol string) (Token, bool) {
	for _, t := range tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, true
		}
	}
	return Token{}, false
}
