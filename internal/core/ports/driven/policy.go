package driven

// TokenCounter estimates the token count of a text.
// Implementations must be deterministic and monotonic in input length,
// since the count gates which retrieved contexts survive the budget.
type TokenCounter interface {
	Count(text string) int
}

// Checksummer fingerprints context content.
type Checksummer interface {
	Checksum(text string) string
}
