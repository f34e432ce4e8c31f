// Package policy provides the token counting and checksum policies used
// when assembling context bundles.
package policy

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// Ensure implementations satisfy the interfaces.
var (
	_ driven.TokenCounter = CharCounter{}
	_ driven.TokenCounter = WordCounter{}
	_ driven.Checksummer  = XXHash{}
)

// DefaultCharsPerToken approximates English text for common embedding tokenisers.
const DefaultCharsPerToken = 4

// CharCounter estimates tokens as runes divided by CharsPerToken, rounded up.
type CharCounter struct {
	CharsPerToken int
}

// Count implements driven.TokenCounter.
func (c CharCounter) Count(text string) int {
	per := c.CharsPerToken
	if per <= 0 {
		per = DefaultCharsPerToken
	}
	n := utf8.RuneCountInString(text)
	return (n + per - 1) / per
}

// WordCounter counts whitespace-separated words.
type WordCounter struct{}

// Count implements driven.TokenCounter.
func (WordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// XXHash fingerprints text with 64-bit xxHash, hex encoded.
type XXHash struct{}

// Checksum implements driven.Checksummer.
func (XXHash) Checksum(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(text), 16)
}

// NewTokenCounter returns the counter registered under name.
// Unknown names fall back to the character estimate.
func NewTokenCounter(name string) driven.TokenCounter {
	if name == "words" {
		return WordCounter{}
	}
	return CharCounter{CharsPerToken: DefaultCharsPerToken}
}
