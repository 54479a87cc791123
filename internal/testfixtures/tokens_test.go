package testfixtures

import "testing"

func TestTokenSequenceProducesSequentialTokens(t *testing.T) {
	gen := NewTokenSequence("")

	first := gen.Next()
	second := gen.Next()

	if first != "token-1" || second != "token-2" {
		t.Fatalf("unexpected tokens: %q, %q", first, second)
	}
	if gen.Issued() != 2 {
		t.Fatalf("expected 2 issued tokens, got %d", gen.Issued())
	}

	var nilSeq *TokenSequence
	if nilSeq.NextFunc() != nil {
		t.Fatalf("expected nil NextFunc for nil sequence")
	}
}
