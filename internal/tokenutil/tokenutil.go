// Package tokenutil estimates token counts for context-attribution
// purposes (spec §4.4.6). The documented default everywhere else in the
// pipeline remains the cheap ceil(len/4) heuristic; this package exists
// for the opt-in EngineConfig.PreciseTokenEstimate path (SPEC_FULL
// §4.4.12), grounded on alex's internal/shared/token tokenutil: a
// package-level cl100k_base encoding with a nil-encoding fallback guard
// so an offline build (no tiktoken vocab file reachable) degrades to the
// same heuristic rather than erroring.
package tokenutil

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

var encoding *tiktoken.Tiktoken

func init() {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		encoding = nil
		return
	}
	encoding = enc
}

// CountTokens returns a precise cl100k_base token count when the encoding
// loaded successfully, or EstimateFast(s) otherwise.
func CountTokens(s string) int {
	if s == "" {
		return 0
	}
	if encoding == nil {
		return EstimateFast(s)
	}
	return len(encoding.Encode(s, nil, nil))
}

// EstimateFast is the ceil(len/4) heuristic used as the aggregator's
// default context-attribution estimate (spec §4.4.6) and as tokenutil's
// fallback when no encoding is available.
func EstimateFast(s string) int {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
