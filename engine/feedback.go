package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskmod/riskmod/casestore"
)

// Admin feedback actions.
const (
	ActionMarkHarmful = "mark_harmful"
	ActionMarkSpam    = "mark_spam"
	ActionMarkClean   = "mark_clean"
)

// ErrCaseNotFound indicates feedback targeting an unknown case id. This is
// the one loud failure in the engine: a stale or wrong id is a caller bug.
var ErrCaseNotFound = errors.New("feedback target case not found")

const (
	feedbackHarmScore   = 90.0
	feedbackSpamScore   = 100.0
	feedbackConfidence  = 100.0
	cleanConfidence     = 80.0
	cleanHighCutoff     = 60.0
	cleanHighMultiplier = 0.5
	cleanLowMultiplier  = 0.7
)

// cleanScore is the mark_clean correction for one axis. It always works from
// the original (pre-feedback) score, so reapplying the action converges to
// the same value instead of halving repeatedly.
func cleanScore(original float64) float64 {
	if original >= cleanHighCutoff {
		return original * cleanHighMultiplier
	}
	return original * cleanLowMultiplier
}

// applyFeedback is the pure correction function over (case, action).
func applyFeedback(c casestore.ContentCase, action string) (casestore.ContentCase, error) {
	// snapshot pre-feedback scores on first correction
	if c.OriginalHarmScore == nil {
		orig := c.HarmScore
		c.OriginalHarmScore = &orig
	}
	if c.OriginalSpamScore == nil {
		orig := c.SpamScore
		c.OriginalSpamScore = &orig
	}

	switch action {
	case ActionMarkHarmful:
		c.HarmScore = feedbackHarmScore
		c.HarmConfidence = feedbackConfidence
	case ActionMarkSpam:
		c.SpamScore = feedbackSpamScore
		c.SpamConfidence = feedbackConfidence
	case ActionMarkClean:
		c.HarmScore = cleanScore(*c.OriginalHarmScore)
		c.SpamScore = cleanScore(*c.OriginalSpamScore)
		c.HarmConfidence = cleanConfidence
		c.SpamConfidence = cleanConfidence
	default:
		return c, fmt.Errorf("unknown feedback action: %s", action)
	}

	c.Confirmed = true
	c.SourceType = casestore.SourceAdminConfirmed
	return c, nil
}

// SubmitFeedback applies an admin correction to a stored case and writes the
// confirmed result back. This is the engine's only learning mechanism: no
// model weights change, accuracy improves through accumulated confirmed
// exemplars feeding correction and auto-block.
func (e *Engine) SubmitFeedback(ctx context.Context, caseID, action, adminID, note string) error {
	c, err := e.Cases.Get(ctx, caseID)
	if err != nil {
		return fmt.Errorf("loading feedback target: %w", err)
	}
	if c == nil {
		return fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}

	updated, err := applyFeedback(*c, action)
	if err != nil {
		return err
	}
	updated.AdminID = adminID
	if note != "" {
		updated.Note = note
	}

	// re-embed so the stored vector always matches the stored sentence
	ectx, cancel := context.WithTimeout(ctx, e.Config.ScorerTimeout)
	defer cancel()
	embedding, err := e.Embedder.Embed(ectx, updated.Sentence)
	if err != nil {
		return fmt.Errorf("embedding feedback case: %w", err)
	}
	if err := e.Cases.Upsert(ctx, updated, embedding); err != nil {
		return fmt.Errorf("storing feedback case: %w", err)
	}

	feedbackCount.WithLabelValues(action).Inc()
	e.Logger.Info("feedback applied",
		"caseID", caseID,
		"action", action,
		"adminID", adminID,
		"harm", updated.HarmScore,
		"spam", updated.SpamScore)
	return nil
}

// BackfillCase inserts a pre-labeled case directly, marked as log backfill.
// Used by the daemon's bulk seeding path.
func (e *Engine) BackfillCase(ctx context.Context, c casestore.ContentCase) error {
	if c.ID == "" {
		c.ID = casestore.CaseID(c.Sentence, c.PostRef)
	}
	if c.SourceType == "" {
		c.SourceType = casestore.SourceLogBackfill
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	ectx, cancel := context.WithTimeout(ctx, e.Config.ScorerTimeout)
	defer cancel()
	embedding, err := e.Embedder.Embed(ectx, c.Sentence)
	if err != nil {
		return fmt.Errorf("embedding backfill case: %w", err)
	}
	if err := e.Cases.Upsert(ctx, c, embedding); err != nil {
		return fmt.Errorf("storing backfill case: %w", err)
	}
	return nil
}
