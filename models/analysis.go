package models

// Market sentiment labels produced by the analysis provider.
const (
	SentimentBullish = "BULLISH"
	SentimentBearish = "BEARISH"
	SentimentNeutral = "NEUTRAL"
)

// AnalysisResult is the natural-language market summary returned by the
// analysis provider, or the neutral fallback when the call fails.
type AnalysisResult struct {
	Sentiment string `json:"sentiment"`
	Summary   string `json:"summary"`
	KeyLevels string `json:"keyLevels"`
	Timestamp string `json:"timestamp"`
}
