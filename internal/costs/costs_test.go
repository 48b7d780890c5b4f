package costs_test

import (
	"math"
	"testing"

	"veopm/internal/costs"
)

func TestRecordText(t *testing.T) {
	var s costs.Summary
	s.RecordText(costs.TierPro, 1000, 500)
	s.RecordText(costs.TierFlash, 200, 100)
	s.RecordText(costs.TierFlash, 300, 50)

	if s.ProCalls != 1 || s.FlashCalls != 2 {
		t.Fatalf("unexpected call counts: pro=%d flash=%d", s.ProCalls, s.FlashCalls)
	}
	if s.ProInputTokens != 1000 || s.ProOutputTokens != 500 {
		t.Errorf("pro tokens = %d/%d", s.ProInputTokens, s.ProOutputTokens)
	}
	if s.FlashInputTokens != 500 || s.FlashOutputTokens != 150 {
		t.Errorf("flash tokens = %d/%d", s.FlashInputTokens, s.FlashOutputTokens)
	}
}

func TestRecordTextUnknownTierIgnored(t *testing.T) {
	var s costs.Summary
	s.RecordText(costs.Tier("ultra"), 100, 100)
	if s.TotalCalls() != 0 {
		t.Fatalf("unknown tier recorded: %+v", s)
	}
}

func TestEstimateUSDImages(t *testing.T) {
	var s costs.Summary
	s.RecordImage()
	s.RecordImage()
	s.RecordImage()
	if s.ImageCalls != 3 {
		t.Fatalf("image calls = %d, want 3", s.ImageCalls)
	}
	if got := s.EstimateUSD(); math.Abs(got-0.12) > 1e-9 {
		t.Errorf("EstimateUSD() = %f, want 0.12", got)
	}
}

func TestAdd(t *testing.T) {
	a := costs.Summary{ProCalls: 1, ProInputTokens: 10}
	b := costs.Summary{ProCalls: 2, ProInputTokens: 5, ImageCalls: 1}
	a.Add(b)
	if a.ProCalls != 3 || a.ProInputTokens != 15 || a.ImageCalls != 1 {
		t.Errorf("Add produced %+v", a)
	}
}
