package testfixtures

import (
	"fmt"
	"sync"
)

// TokenSequence produces deterministic session tokens for tests.
type TokenSequence struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewTokenSequence constructs a sequence yielding "<prefix>-1", "<prefix>-2", ...
// When prefix is empty, "token" is used.
func NewTokenSequence(prefix string) *TokenSequence {
	if prefix == "" {
		prefix = "token"
	}
	return &TokenSequence{prefix: prefix}
}

// Next returns the next token in the sequence.
func (g *TokenSequence) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (g *TokenSequence) NextFunc() func() string {
	if g == nil {
		return nil
	}
	return g.Next
}

// Issued reports how many tokens have been produced.
func (g *TokenSequence) Issued() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}
