package engine

import (
	"log/slog"

	"github.com/riskmod/riskmod/casestore"
	"github.com/riskmod/riskmod/embed"
	"github.com/riskmod/riskmod/lexical"
	"github.com/riskmod/riskmod/scorer"
	"github.com/riskmod/riskmod/segment"
)

// EngineTestFixture builds an engine over in-memory collaborators: a mem
// case store, call-counting scorer mocks, and a static embedder. Intentionally
// exported for use by other packages' tests.
func EngineTestFixture() (*Engine, *scorer.MockClassifier, *scorer.MockJudge, *embed.StaticEmbedder) {
	classifier := &scorer.MockClassifier{
		Result: scorer.Score{Score: 20, Confidence: 80},
	}
	judge := &scorer.MockJudge{
		Result: scorer.JudgeResult{HarmScore: 30, SpamScore: 10, Confidence: 70},
	}
	embedder := &embed.StaticEmbedder{
		Vectors: map[string][]float32{},
		Default: []float32{1, 0, 0},
	}
	eng := &Engine{
		Logger:     slog.Default(),
		Segmenter:  segment.NewSegmenter(),
		Lexical:    lexical.NewScorer(),
		Classifier: classifier,
		Judge:      judge,
		Embedder:   embedder,
		Cases:      casestore.NewMemCaseStore(),
		Config:     DefaultConfig(),
	}
	return eng, classifier, judge, embedder
}
