package aggregator

import (
	"testing"
	"time"

	"agentlens/internal/eventmodel"
	"agentlens/internal/tokenutil"
)

func userEvent(text string) eventmodel.SessionEvent {
	return eventmodel.SessionEvent{
		Type:      eventmodel.EventUser,
		Timestamp: time.Now(),
		Message:   &eventmodel.MessageInfo{Text: text},
	}
}

// SPEC_FULL §4.4.12: attribution counts should use the fast heuristic by
// default, and only switch to the real cl100k_base count when
// PreciseTokenEstimate is enabled.
func TestAttributeContextUsesFastEstimateByDefault(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	a := New(DefaultConfig(), nil, nil)
	a.ProcessSessionEvent(userEvent(text))

	m := a.GetMetrics()
	if want := int64(tokenutil.EstimateFast(text)); m.Attribution.UserMessages != want {
		t.Fatalf("UserMessages = %d, want %d (EstimateFast)", m.Attribution.UserMessages, want)
	}
}

func TestAttributeContextUsesPreciseEstimateWhenEnabled(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	cfg := DefaultConfig()
	cfg.PreciseTokenEstimate = true
	a := New(cfg, nil, nil)
	a.ProcessSessionEvent(userEvent(text))

	m := a.GetMetrics()
	if want := int64(tokenutil.CountTokens(text)); m.Attribution.UserMessages != want {
		t.Fatalf("UserMessages = %d, want %d (CountTokens)", m.Attribution.UserMessages, want)
	}
}
