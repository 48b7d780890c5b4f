// Package costs tracks generation call counters and derives cost estimates.
package costs

// Tier identifies which generation pricing tier a completed call used.
type Tier string

const (
	TierPro   Tier = "pro"
	TierFlash Tier = "flash"
	TierImage Tier = "image"
)

// Per-unit pricing. Text tiers are USD per million tokens, image is USD
// per generated image.
const (
	proInputPerMTok    = 1.25
	proOutputPerMTok   = 10.00
	flashInputPerMTok  = 0.30
	flashOutputPerMTok = 2.50
	imagePerCall       = 0.04
)

// Summary holds running counters of completed generation calls and token
// usage for the life of a project. Counters only ever increase; failed
// calls are not recorded.
type Summary struct {
	ProCalls          int   `json:"proCalls"`
	FlashCalls        int   `json:"flashCalls"`
	ImageCalls        int   `json:"imageCalls"`
	ProInputTokens    int64 `json:"proInputTokens"`
	ProOutputTokens   int64 `json:"proOutputTokens"`
	FlashInputTokens  int64 `json:"flashInputTokens"`
	FlashOutputTokens int64 `json:"flashOutputTokens"`
}

// RecordText counts one completed text-generation call against the given
// tier. Unknown tiers are ignored.
func (s *Summary) RecordText(tier Tier, inputTokens, outputTokens int64) {
	switch tier {
	case TierPro:
		s.ProCalls++
		s.ProInputTokens += inputTokens
		s.ProOutputTokens += outputTokens
	case TierFlash:
		s.FlashCalls++
		s.FlashInputTokens += inputTokens
		s.FlashOutputTokens += outputTokens
	}
}

// RecordImage counts one completed image-generation call.
func (s *Summary) RecordImage() {
	s.ImageCalls++
}

// Add accumulates another summary into this one.
func (s *Summary) Add(other Summary) {
	s.ProCalls += other.ProCalls
	s.FlashCalls += other.FlashCalls
	s.ImageCalls += other.ImageCalls
	s.ProInputTokens += other.ProInputTokens
	s.ProOutputTokens += other.ProOutputTokens
	s.FlashInputTokens += other.FlashInputTokens
	s.FlashOutputTokens += other.FlashOutputTokens
}

// TotalCalls returns the combined completed-call count across all tiers.
func (s Summary) TotalCalls() int {
	return s.ProCalls + s.FlashCalls + s.ImageCalls
}

// EstimateUSD derives the estimated spend from the counters and the fixed
// per-unit pricing constants.
func (s Summary) EstimateUSD() float64 {
	perM := func(tokens int64, rate float64) float64 {
		return float64(tokens) / 1_000_000 * rate
	}
	total := perM(s.ProInputTokens, proInputPerMTok) +
		perM(s.ProOutputTokens, proOutputPerMTok) +
		perM(s.FlashInputTokens, flashInputPerMTok) +
		perM(s.FlashOutputTokens, flashOutputPerMTok)
	total += float64(s.ImageCalls) * imagePerCall
	return total
}
