package gen

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator produces run tokens that correlate the log lines of a
// single Generate call. Implemented by UUIDv7Tokens (production) and
// FixedTokens (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Tokens generates time-sortable UUIDv7 run tokens.
//
// Stateless and safe for concurrent use.
type UUIDv7Tokens struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
func (UUIDv7Tokens) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedTokens returns predetermined run tokens for deterministic tests.
//
// Panics when all tokens have been consumed - fail fast on test
// misconfiguration rather than silently recycling tokens.
type FixedTokens struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedTokens creates a generator that returns tokens in order.
func NewFixedTokens(tokens ...string) *FixedTokens {
	return &FixedTokens{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedTokens: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
