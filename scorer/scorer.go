// Package scorer defines the external model scorers consumed by the engine:
// a pretrained classifier and an LLM judge. Both are capability interfaces
// with a uniform score/confidence shape, so fusion logic never branches on
// the concrete variant.
package scorer

import "context"

// Score is a single-axis model verdict on the 0-100 scale.
type Score struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// JudgeResult is the LLM judge's verdict across both axes, plus free-form
// category tags.
type JudgeResult struct {
	HarmScore  float64  `json:"harm_score"`
	SpamScore  float64  `json:"spam_score"`
	Confidence float64  `json:"confidence"`
	Tags       []string `json:"tags,omitempty"`
}

type Classifier interface {
	Classify(ctx context.Context, text string) (Score, error)
}

type Judge interface {
	Judge(ctx context.Context, text string) (JudgeResult, error)
}

// Neutral defaults substituted when a scorer fails or times out. A scorer
// failure degrades quality, never availability: the pipeline continues with
// these values instead of erroring.
const (
	NeutralScoreValue = 50.0
	NeutralConfidence = 30.0
)

func NeutralScore() Score {
	return Score{Score: NeutralScoreValue, Confidence: NeutralConfidence}
}

func NeutralJudgeResult() JudgeResult {
	return JudgeResult{
		HarmScore:  NeutralScoreValue,
		SpamScore:  NeutralScoreValue,
		Confidence: NeutralConfidence,
	}
}
