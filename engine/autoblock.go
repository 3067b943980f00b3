package engine

import (
	"context"

	"github.com/riskmod/riskmod/casestore"
)

// Auto-block: the pre-model short-circuit. A near-duplicate of a confirmed
// severe case is blocked without ever invoking the classifier or judge; the
// avoided LLM call is the point.

type autoBlockHit struct {
	Reason string
	Match  casestore.SimilarCaseMatch
}

// checkAutoBlock queries the store for confirmed near-duplicates of severe
// cases. Returns nil on no hit, nil embedding, or store failure: blocking
// requires positive evidence, so everything here fails open.
func (e *Engine) checkAutoBlock(ctx context.Context, embedding []float32) *autoBlockHit {
	if embedding == nil {
		return nil
	}
	matches, err := e.Cases.Search(ctx, embedding, casestore.SearchParams{
		TopK:            e.Config.CorrectionTopK,
		MinSimilarity:   e.Config.AutoBlockMinSimilarity,
		MinConfidence:   e.Config.AutoBlockMinConfidence,
		PreferConfirmed: true,
	})
	if err != nil {
		storeErrorCount.WithLabelValues("autoblock").Inc()
		e.Logger.Warn("auto-block search failed, auto-block disabled for request", "err", err)
		return nil
	}

	for _, m := range matches {
		if !m.Case.Confirmed {
			continue
		}
		// harm takes precedence when both axes qualify
		if m.Case.HarmScore >= e.Config.AutoBlockMinScore {
			return &autoBlockHit{Reason: BlockReasonHarmful, Match: m}
		}
		if m.Case.SpamScore >= e.Config.AutoBlockMinScore {
			return &autoBlockHit{Reason: BlockReasonSpam, Match: m}
		}
	}
	return nil
}
