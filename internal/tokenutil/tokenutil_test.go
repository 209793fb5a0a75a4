package tokenutil

import "testing"

func TestEstimateFastEmptyStringIsZero(t *testing.T) {
	if got := EstimateFast(""); got != 0 {
		t.Fatalf("EstimateFast(\"\") = %d, want 0", got)
	}
}

func TestEstimateFastRoundsUpToNearestFourChars(t *testing.T) {
	if got := EstimateFast("abcde"); got != 2 {
		t.Fatalf("EstimateFast(5 chars) = %d, want 2", got)
	}
}

func TestCountTokensEmptyStringIsZero(t *testing.T) {
	if got := CountTokens(""); got != 0 {
		t.Fatalf("CountTokens(\"\") = %d, want 0", got)
	}
}

// CountTokens returns a positive count for non-empty text, whether or not
// the cl100k_base encoding loaded.
func TestCountTokensReturnsPositiveForNonEmptyText(t *testing.T) {
	got := CountTokens("the quick brown fox jumps over the lazy dog")
	if got <= 0 {
		t.Fatalf("CountTokens(...) = %d, want > 0", got)
	}
}
