package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskmod/riskmod/casestore"
	"github.com/riskmod/riskmod/scorer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

var _ casestore.CaseStore = (*failingStore)(nil)

func (s *failingStore) Upsert(ctx context.Context, c casestore.ContentCase, embedding []float32) error {
	return errors.New("store down")
}

func (s *failingStore) Get(ctx context.Context, id string) (*casestore.ContentCase, error) {
	return nil, errors.New("store down")
}

func (s *failingStore) Search(ctx context.Context, embedding []float32, params casestore.SearchParams) ([]casestore.SimilarCaseMatch, error) {
	return nil, errors.New("store down")
}

func (s *failingStore) Stats(ctx context.Context) (casestore.StoreStats, error) {
	return casestore.StoreStats{}, errors.New("store down")
}

func TestAnalyzeEmptyText(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	eng, classifier, judge, _ := EngineTestFixture()

	for _, text := range []string{"", "   \n\t "} {
		res, err := eng.Analyze(context.Background(), AnalysisRequest{Text: text})
		require.NoError(err)
		require.NotNil(res.Scores)
		assert.Equal(0.0, res.Scores.HarmScore)
		assert.Equal(0.0, res.Scores.SpamScore)
		assert.Equal(100.0, res.Scores.HarmConfidence)
		assert.False(res.AutoBlocked)
	}
	assert.Equal(0, classifier.Calls())
	assert.Equal(0, judge.Calls())
}

func TestAnalyzeBasic(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	eng, classifier, judge, _ := EngineTestFixture()

	res, err := eng.Analyze(context.Background(), AnalysisRequest{
		Text:    "this is a perfectly ordinary sentence about gardening",
		PostRef: "post-1",
	})
	require.NoError(err)
	require.NotNil(res.Scores)

	// classifier (20, conf 80) and judge (harm 30, conf 70), no lexical boost:
	// weight 80/150, harm = 20*(8/15) + 30*(7/15)
	assert.InDelta(24.667, res.Scores.HarmScore, 0.01)
	assert.InDelta(75.333, res.Scores.HarmConfidence, 0.01)
	// judge spam 10, rule spam 0: 10*0.6
	assert.InDelta(6.0, res.Scores.SpamScore, 0.01)
	assert.InDelta(70.0, res.Scores.SpamConfidence, 0.01)

	assert.False(res.AutoBlocked)
	assert.Empty(res.Matches)
	assert.Equal(1, classifier.Calls())
	assert.Equal(1, judge.Calls())
	assert.Greater(res.Timing.Total, time.Duration(0))
}

func TestAnalyzeAutoBlockSkipsModels(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, classifier, judge, embedder := EngineTestFixture()

	// confirmed severe case already in the store
	stored := casestore.ContentCase{
		ID:             casestore.CaseID("you deserve terrible things", "post-0"),
		Sentence:       "you deserve terrible things",
		HarmScore:      95,
		SpamScore:      10,
		HarmConfidence: 90,
		SpamConfidence: 90,
		Confirmed:      true,
		SourceType:     casestore.SourceAdminConfirmed,
	}
	require.NoError(eng.Cases.Upsert(ctx, stored, []float32{1, 0, 0}))

	// near-duplicate embeds at cosine 0.95 against the stored case
	nearDup := "you truly deserve terrible things"
	embedder.Vectors[nearDup] = []float32{0.95, 0.3122499, 0}

	res, err := eng.Analyze(ctx, AnalysisRequest{Text: nearDup, PostRef: "post-2"})
	require.NoError(err)

	assert.True(res.AutoBlocked)
	assert.Equal(BlockReasonHarmful, res.BlockReason)
	// scores are absent, not zero: the pipeline was skipped
	assert.Nil(res.Scores)
	assert.Nil(res.BaseScores)
	require.Len(res.Matches, 1)
	assert.Equal(stored.ID, res.Matches[0].CaseID)

	// the whole point of the short-circuit: no model calls
	assert.Equal(0, judge.Calls())
	assert.Equal(0, classifier.Calls())
}

func TestAnalyzeAutoBlockSpamAxis(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, _, embedder := EngineTestFixture()

	stored := casestore.ContentCase{
		ID:             "spam-case",
		Sentence:       "click here for free money now",
		HarmScore:      5,
		SpamScore:      97,
		HarmConfidence: 92,
		SpamConfidence: 92,
		Confirmed:      true,
	}
	require.NoError(eng.Cases.Upsert(ctx, stored, []float32{0, 1, 0}))
	embedder.Vectors["click right here for free money now"] = []float32{0, 1, 0}

	res, err := eng.Analyze(ctx, AnalysisRequest{Text: "click right here for free money now"})
	require.NoError(err)
	assert.True(res.AutoBlocked)
	assert.Equal(BlockReasonSpam, res.BlockReason)
}

func TestAnalyzeUnconfirmedNeverAutoBlocks(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, judge, embedder := EngineTestFixture()

	stored := casestore.ContentCase{
		ID:             "unconfirmed-case",
		Sentence:       "exact duplicate text goes here",
		HarmScore:      99,
		SpamScore:      99,
		HarmConfidence: 95,
		SpamConfidence: 95,
		Confirmed:      false,
	}
	require.NoError(eng.Cases.Upsert(ctx, stored, []float32{1, 0, 0}))
	embedder.Vectors["exact duplicate text goes here"] = []float32{1, 0, 0}

	res, err := eng.Analyze(ctx, AnalysisRequest{Text: "exact duplicate text goes here"})
	require.NoError(err)
	assert.False(res.AutoBlocked)
	assert.Equal(1, judge.Calls())
}

func TestAnalyzeScorerFailureDegrades(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	eng, classifier, _, _ := EngineTestFixture()
	classifier.Err = errors.New("inference service down")

	res, err := eng.Analyze(context.Background(), AnalysisRequest{
		Text: "another perfectly ordinary sentence for testing",
	})
	require.NoError(err)
	require.NotNil(res.Scores)

	// classifier degraded to neutral (50, conf 30) against judge (30, conf 70)
	assert.InDelta(36.0, res.Scores.HarmScore, 0.01)
	assert.InDelta(58.0, res.Scores.HarmConfidence, 0.01)
}

func TestAnalyzeBothScorersFailing(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	eng, classifier, judge, _ := EngineTestFixture()
	classifier.Err = errors.New("down")
	judge.Err = errors.New("down")

	res, err := eng.Analyze(context.Background(), AnalysisRequest{
		Text: "yet another perfectly ordinary sentence for testing",
	})
	require.NoError(err)
	require.NotNil(res.Scores)
	assert.Equal(50.0, res.Scores.HarmScore)
	assert.Equal(30.0, res.Scores.HarmConfidence)
}

func TestAnalyzeStoreUnavailableFailsOpen(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	eng, _, judge, _ := EngineTestFixture()
	eng.Cases = &failingStore{}

	res, err := eng.Analyze(context.Background(), AnalysisRequest{
		Text: "a sentence analyzed while the store is unreachable",
	})
	require.NoError(err)
	require.NotNil(res.Scores)
	assert.False(res.AutoBlocked)
	assert.Empty(res.Matches)
	assert.Equal(1, judge.Calls())
}

func TestAnalyzeRuleHeavySpamBlend(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	eng, _, judge, _ := EngineTestFixture()
	judge.Result = scorer.JudgeResult{HarmScore: 5, SpamScore: 10, Confidence: 70}

	// rule spam hits 100: four high-tier keywords plus a URL. final spam
	// tracks the rule score (0.7 weight), not the judge's 10.
	res, err := eng.Analyze(context.Background(), AnalysisRequest{
		Text: "무료 클릭 이벤트 당첨! bit.ly/xyz",
	})
	require.NoError(err)
	require.NotNil(res.Scores)
	assert.InDelta(73.0, res.BaseScores.SpamScore, 0.01)
	assert.GreaterOrEqual(res.Scores.SpamScore, 70.0)
}

func TestAnalyzeCorrectionFromStore(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, _, embedder := EngineTestFixture()

	// confirmed case at similarity 0.85: blend weight 0.6
	stored := casestore.ContentCase{
		ID:             "confirmed-harm",
		Sentence:       "a previously confirmed harmful sentence",
		HarmScore:      95,
		SpamScore:      5,
		HarmConfidence: 90,
		SpamConfidence: 90,
		Confirmed:      true,
	}
	require.NoError(eng.Cases.Upsert(ctx, stored, []float32{1, 0, 0}))

	text := "a new borderline sentence resembling that one"
	embedder.Vectors[text] = []float32{0.85, 0.5267827, 0}

	res, err := eng.Analyze(ctx, AnalysisRequest{Text: text})
	require.NoError(err)
	require.NotNil(res.Scores)
	require.Len(res.Matches, 1)

	// base harm from the fixture mocks is 24.667; corrected toward 95
	expected := res.BaseScores.HarmScore*0.4 + 95*0.6
	assert.InDelta(expected, res.Scores.HarmScore, 0.01)
	assert.Greater(res.Scores.HarmConfidence, res.BaseScores.HarmConfidence)
}
