package engine

import (
	"testing"

	"github.com/riskmod/riskmod/scorer"

	"github.com/stretchr/testify/assert"
)

func TestClassifierWeight(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0.5, classifierWeight(0, 0))
	assert.Equal(1.0, classifierWeight(80, 0))
	assert.Equal(0.0, classifierWeight(0, 80))
	assert.InDelta(0.6667, classifierWeight(80, 40), 0.001)
}

func TestFuseHarm(t *testing.T) {
	assert := assert.New(t)

	// equal confidences: plain average plus boost
	score, conf := fuseHarm(
		scorer.Score{Score: 40, Confidence: 60},
		scorer.JudgeResult{HarmScore: 80, Confidence: 60},
		10,
	)
	assert.Equal(70.0, score)
	assert.Equal(60.0, conf)

	// confidence share pulls toward the classifier
	score, _ = fuseHarm(
		scorer.Score{Score: 100, Confidence: 90},
		scorer.JudgeResult{HarmScore: 0, Confidence: 10},
		0,
	)
	assert.Equal(90.0, score)
}

func TestFuseHarmClamped(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		cls   scorer.Score
		judge scorer.JudgeResult
		boost float64
	}{
		{scorer.Score{Score: 100, Confidence: 100}, scorer.JudgeResult{HarmScore: 100, Confidence: 100}, 50},
		{scorer.Score{Score: 0, Confidence: 0}, scorer.JudgeResult{HarmScore: 0, Confidence: 0}, 0},
		{scorer.Score{Score: 95, Confidence: 50}, scorer.JudgeResult{HarmScore: 95, Confidence: 50}, 50},
	}

	for _, fix := range fixtures {
		score, conf := fuseHarm(fix.cls, fix.judge, fix.boost)
		assert.GreaterOrEqual(score, 0.0)
		assert.LessOrEqual(score, 100.0)
		assert.GreaterOrEqual(conf, 0.0)
		assert.LessOrEqual(conf, 100.0)
	}
}

func TestFuseSpamRuleHeavyBlend(t *testing.T) {
	assert := assert.New(t)

	// rule score at 80+ flips the blend to 0.3/0.7
	score, conf := fuseSpam(scorer.JudgeResult{SpamScore: 20, Confidence: 70}, 90)
	assert.InDelta(69.0, score, 0.001)
	assert.InDelta(80.0, conf, 0.001) // 70*0.6 + 95*0.4

	// below the threshold, judge dominates at 0.6/0.4
	score, _ = fuseSpam(scorer.JudgeResult{SpamScore: 20, Confidence: 70}, 50)
	assert.InDelta(32.0, score, 0.001)
}

func TestRuleConfidence(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(70.0, ruleConfidence(0))
	assert.Equal(70.0, ruleConfidence(30))
	assert.Equal(85.0, ruleConfidence(31))
	assert.Equal(85.0, ruleConfidence(60))
	assert.Equal(95.0, ruleConfidence(61))
	assert.Equal(95.0, ruleConfidence(100))
}
