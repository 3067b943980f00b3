package engine

import "github.com/riskmod/riskmod/casestore"

// Similarity-weighted correction: blend freshly fused scores toward the
// stored scores of semantically similar historical cases. Confirmed cases are
// trusted most; unconfirmed auto-saved cases still pull, but at the reduced
// weights the tier table assigns them.

const (
	harmConfidenceBoostFactor = 0.2
	confidenceBoostMatchNorm  = 3.0
)

// blendWeight is the exact tier table on (max similarity, match count,
// confirmed count) deciding how far the corrected score pulls the base score.
func blendWeight(maxSimilarity float64, matchCount, confirmedCount int) float64 {
	switch {
	case maxSimilarity >= 0.8:
		switch {
		case confirmedCount >= 1:
			return 0.6
		case matchCount >= 2:
			return 0.5
		case matchCount >= 1:
			return 0.3
		}
		return 0.1
	case maxSimilarity >= 0.7:
		switch {
		case confirmedCount >= 1:
			return 0.4
		case matchCount >= 1:
			return 0.2
		}
		return 0.1
	default:
		return 0.1
	}
}

// applyCorrection blends base scores with the similarity^2-weighted average
// of matched cases' stored scores, and boosts confidence proportionally to
// match strength. Returns base unchanged when there are no matches.
func applyCorrection(base ScoreSet, matches []casestore.SimilarCaseMatch) ScoreSet {
	if len(matches) == 0 {
		return base
	}

	// prefer confirmed matches; fall back to the unconfirmed ones when no
	// confirmed case matched
	confirmed := make([]casestore.SimilarCaseMatch, 0, len(matches))
	for _, m := range matches {
		if m.Case.Confirmed {
			confirmed = append(confirmed, m)
		}
	}
	used := matches
	if len(confirmed) > 0 {
		used = confirmed
	}

	var maxSim, weightSum, harmSum, spamSum float64
	for _, m := range used {
		if m.Similarity > maxSim {
			maxSim = m.Similarity
		}
		w := m.Similarity * m.Similarity
		weightSum += w
		harmSum += w * m.Case.HarmScore
		spamSum += w * m.Case.SpamScore
	}
	if weightSum == 0 {
		return base
	}
	correctedHarm := harmSum / weightSum
	correctedSpam := spamSum / weightSum

	weight := blendWeight(maxSim, len(used), len(confirmed))

	out := base
	out.HarmScore = clampScore(base.HarmScore*(1-weight) + correctedHarm*weight)
	out.SpamScore = clampScore(base.SpamScore*(1-weight) + correctedSpam*weight)

	// confidence boost scales with similarity and match count, expressed on
	// the 0-100 confidence scale; spam trusts retrieval half as much
	boost := maxSim * min(float64(len(used))/confidenceBoostMatchNorm, 1) * harmConfidenceBoostFactor * 100
	out.HarmConfidence = clampScore(base.HarmConfidence + boost)
	out.SpamConfidence = clampScore(base.SpamConfidence + boost/2)
	return out
}
