package chains

import (
	"fmt"
	"regexp"
)

// Chain describes one supported network.
type Chain struct {
	Slug    string
	ID      int64
	Native  string // native currency symbol
}

// The closed set of chains the marketplace API is queried with. Anything
// else is rejected before an outbound call is made.
var supported = map[string]Chain{
	"ethereum": {Slug: "ethereum", ID: 1, Native: "ETH"},
	"base":     {Slug: "base", ID: 8453, Native: "ETH"},
	"arbitrum": {Slug: "arbitrum", ID: 42161, Native: "ETH"},
	"optimism": {Slug: "optimism", ID: 10, Native: "ETH"},
}

var (
	addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	tokenIDRe = regexp.MustCompile(`^[0-9]+$`)
)

// Lookup returns the chain for a slug, or an error for anything outside the
// supported set.
func Lookup(slug string) (Chain, error) {
	c, ok := supported[slug]
	if !ok {
		return Chain{}, fmt.Errorf("unsupported chain %q", slug)
	}
	return c, nil
}

// IsSupported reports whether the slug names a supported chain.
func IsSupported(slug string) bool {
	_, ok := supported[slug]
	return ok
}

// ValidAddress reports whether s is a 20-byte hex address with 0x prefix.
func ValidAddress(s string) bool {
	return addressRe.MatchString(s)
}

// ValidTokenID reports whether s is a decimal token identifier.
func ValidTokenID(s string) bool {
	return tokenIDRe.MatchString(s)
}
