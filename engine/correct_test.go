package engine

import (
	"testing"

	"github.com/riskmod/riskmod/casestore"

	"github.com/stretchr/testify/assert"
)

func TestBlendWeight(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		maxSim    float64
		matches   int
		confirmed int
		weight    float64
	}{
		{0.85, 1, 1, 0.6},
		{0.85, 2, 0, 0.5},
		{0.85, 1, 0, 0.3},
		{0.80, 1, 1, 0.6},
		{0.75, 1, 1, 0.4},
		{0.75, 2, 0, 0.2},
		{0.75, 1, 0, 0.2},
		{0.70, 1, 0, 0.2},
		{0.65, 3, 2, 0.1},
		{0.50, 1, 0, 0.1},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.weight, blendWeight(fix.maxSim, fix.matches, fix.confirmed),
			"maxSim=%v matches=%d confirmed=%d", fix.maxSim, fix.matches, fix.confirmed)
	}
}

func match(sim, harm, spam float64, confirmed bool) casestore.SimilarCaseMatch {
	return casestore.SimilarCaseMatch{
		CaseID:     "m",
		Similarity: sim,
		Case: casestore.ContentCase{
			ID:             "m",
			HarmScore:      harm,
			SpamScore:      spam,
			HarmConfidence: 90,
			SpamConfidence: 90,
			Confirmed:      confirmed,
		},
	}
}

func TestApplyCorrectionNoMatches(t *testing.T) {
	assert := assert.New(t)

	base := ScoreSet{HarmScore: 42, SpamScore: 17, HarmConfidence: 55, SpamConfidence: 66}
	assert.Equal(base, applyCorrection(base, nil))
	assert.Equal(base, applyCorrection(base, []casestore.SimilarCaseMatch{}))
}

func TestApplyCorrectionConfirmedMatch(t *testing.T) {
	assert := assert.New(t)

	base := ScoreSet{HarmScore: 50, SpamScore: 50, HarmConfidence: 60, SpamConfidence: 60}
	out := applyCorrection(base, []casestore.SimilarCaseMatch{
		match(0.85, 95, 5, true),
	})

	// weight 0.6: final = base*0.4 + corrected*0.6
	assert.InDelta(77.0, out.HarmScore, 0.001)
	assert.InDelta(23.0, out.SpamScore, 0.001)

	// confidence boost: 0.85 * (1/3) * 0.2 * 100, spam gets half
	assert.InDelta(60+5.6667, out.HarmConfidence, 0.01)
	assert.InDelta(60+2.8333, out.SpamConfidence, 0.01)
}

func TestApplyCorrectionPrefersConfirmed(t *testing.T) {
	assert := assert.New(t)

	base := ScoreSet{HarmScore: 50, SpamScore: 50, HarmConfidence: 60, SpamConfidence: 60}
	out := applyCorrection(base, []casestore.SimilarCaseMatch{
		match(0.85, 95, 5, true),
		match(0.95, 0, 0, false), // closer but unconfirmed: ignored
	})

	assert.InDelta(77.0, out.HarmScore, 0.001)
}

func TestApplyCorrectionUnconfirmedFallback(t *testing.T) {
	assert := assert.New(t)

	base := ScoreSet{HarmScore: 50, SpamScore: 50, HarmConfidence: 60, SpamConfidence: 60}
	out := applyCorrection(base, []casestore.SimilarCaseMatch{
		match(0.85, 90, 10, false),
	})

	// unconfirmed single match at 0.85: weight 0.3
	assert.InDelta(50*0.7+90*0.3, out.HarmScore, 0.001)
	assert.InDelta(50*0.7+10*0.3, out.SpamScore, 0.001)
}

func TestApplyCorrectionSimilaritySquaredAverage(t *testing.T) {
	assert := assert.New(t)

	base := ScoreSet{HarmScore: 0, SpamScore: 0, HarmConfidence: 50, SpamConfidence: 50}
	out := applyCorrection(base, []casestore.SimilarCaseMatch{
		match(1.0, 100, 0, true),
		match(0.5, 0, 0, true),
	})

	// corrected harm = (1*100 + 0.25*0) / 1.25 = 80; weight 0.6
	assert.InDelta(48.0, out.HarmScore, 0.001)
}

func TestApplyCorrectionConfidenceCapped(t *testing.T) {
	assert := assert.New(t)

	base := ScoreSet{HarmScore: 90, SpamScore: 90, HarmConfidence: 99, SpamConfidence: 99}
	out := applyCorrection(base, []casestore.SimilarCaseMatch{
		match(1.0, 100, 100, true),
		match(1.0, 100, 100, true),
		match(1.0, 100, 100, true),
	})

	assert.LessOrEqual(out.HarmConfidence, 100.0)
	assert.LessOrEqual(out.SpamConfidence, 100.0)
	assert.LessOrEqual(out.HarmScore, 100.0)
}
