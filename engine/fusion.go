package engine

import "github.com/riskmod/riskmod/scorer"

// Score fusion. All constants here are exact behavioral contracts carried
// over from the tuned production policy; do not adjust them without
// validating against real moderation outcomes.

const (
	// when the deterministic rule score is already this confident, it
	// dominates the spam blend
	ruleSpamTrustThreshold = 80.0

	ruleHeavySpamJudgeWeight = 0.3
	ruleHeavySpamRuleWeight  = 0.7
	defaultSpamJudgeWeight   = 0.6
	defaultSpamRuleWeight    = 0.4

	spamConfidenceJudgeWeight = 0.6
	spamConfidenceRuleWeight  = 0.4
)

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// classifierWeight computes the confidence share of the classifier against
// the judge, splitting evenly when both report zero confidence.
func classifierWeight(classifierConf, judgeConf float64) float64 {
	total := classifierConf + judgeConf
	if total == 0 {
		return 0.5
	}
	return classifierConf / total
}

// fuseHarm blends the classifier and judge harm scores by confidence share,
// adds the lexical boost, and clamps to [0,100]. The returned confidence is
// the same confidence-share blend of the two scorers' confidences.
func fuseHarm(cls scorer.Score, judge scorer.JudgeResult, lexicalBoost float64) (score, confidence float64) {
	w := classifierWeight(cls.Confidence, judge.Confidence)
	score = cls.Score*w + judge.HarmScore*(1-w) + lexicalBoost
	confidence = cls.Confidence*w + judge.Confidence*(1-w)
	return clampScore(score), clampScore(confidence)
}

// fuseSpam blends the judge's spam score with the deterministic rule score.
// A rule score of 80+ is already strong evidence, so the blend flips to trust
// it over the judge.
func fuseSpam(judge scorer.JudgeResult, ruleSpam float64) (score, confidence float64) {
	if ruleSpam >= ruleSpamTrustThreshold {
		score = judge.SpamScore*ruleHeavySpamJudgeWeight + ruleSpam*ruleHeavySpamRuleWeight
	} else {
		score = judge.SpamScore*defaultSpamJudgeWeight + ruleSpam*defaultSpamRuleWeight
	}
	confidence = judge.Confidence*spamConfidenceJudgeWeight + ruleConfidence(ruleSpam)*spamConfidenceRuleWeight
	return clampScore(score), clampScore(confidence)
}

// ruleConfidence maps a deterministic rule spam score to the confidence the
// fusion places in it.
func ruleConfidence(ruleSpam float64) float64 {
	switch {
	case ruleSpam > 60:
		return 95
	case ruleSpam > 30:
		return 85
	default:
		return 70
	}
}
