package casestore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/spaolacci/murmur3"
)

// Source types recording how a case entered the store.
const (
	SourceAutoSaved      = "auto_saved"
	SourceAdminConfirmed = "admin_confirmed"
	SourceLogBackfill    = "log_backfill"
)

// ContentCase is a labeled moderation exemplar. Scores and confidences are on
// the 0-100 scale. The Original* fields snapshot the pre-feedback scores the
// first time an admin corrects the case, so corrections stay convergent.
type ContentCase struct {
	ID             string    `json:"id"`
	Sentence       string    `json:"sentence"`
	PostRef        string    `json:"post_ref,omitempty"`
	HarmScore      float64   `json:"harm_score"`
	SpamScore      float64   `json:"spam_score"`
	HarmConfidence float64   `json:"harm_confidence"`
	SpamConfidence float64   `json:"spam_confidence"`
	Confirmed      bool      `json:"confirmed"`
	SourceType     string    `json:"source_type"`
	CreatedAt      time.Time `json:"created_at"`

	AdminID           string   `json:"admin_id,omitempty"`
	Note              string   `json:"note,omitempty"`
	OriginalHarmScore *float64 `json:"original_harm_score,omitempty"`
	OriginalSpamScore *float64 `json:"original_spam_score,omitempty"`
}

// Confidence is the case's overall confidence: the max across both axes.
func (c *ContentCase) Confidence() float64 {
	return math.Max(c.HarmConfidence, c.SpamConfidence)
}

// CaseID derives the deterministic store id for a (sentence, post reference)
// pair. Re-deriving for the same pair always yields the same id, so repeated
// writes upsert in place rather than duplicating.
func CaseID(sentence, postRef string) string {
	h := murmur3.New64()
	h.Write([]byte(sentence))
	h.Write([]byte{0})
	h.Write([]byte(postRef))
	return fmt.Sprintf("%016x", h.Sum64())
}

// SimilarCaseMatch is one search hit: the matched case id, cosine similarity
// in [0,1], and a snapshot of the case as stored at match time.
type SimilarCaseMatch struct {
	CaseID     string      `json:"case_id"`
	Similarity float64     `json:"similarity"`
	Case       ContentCase `json:"case"`
}

type SearchParams struct {
	TopK            int
	MinSimilarity   float64
	MinConfidence   float64
	PreferConfirmed bool
}

type StoreStats struct {
	Count          int     `json:"count"`
	ConfirmedCount int     `json:"confirmed_count"`
	AvgHarmScore   float64 `json:"avg_harm_score"`
	AvgSpamScore   float64 `json:"avg_spam_score"`
}

// CaseStore is the persistent similarity index of labeled cases.
//
// Upsert is idempotent: writing the same id twice leaves one record holding
// the latest values (last writer wins). Search never fails open into the
// analysis path; callers treat store errors as an empty result.
type CaseStore interface {
	Upsert(ctx context.Context, c ContentCase, embedding []float32) error
	Get(ctx context.Context, id string) (*ContentCase, error)
	Search(ctx context.Context, embedding []float32, params SearchParams) ([]SimilarCaseMatch, error)
	Stats(ctx context.Context) (StoreStats, error)
}

// how many candidates to over-fetch relative to TopK before filtering
const searchOverFetchFactor = 3

type storedCase struct {
	Case      ContentCase `json:"case"`
	Embedding []float32   `json:"embedding"`
}

// rankCases implements the shared search semantics over a candidate set:
// over-fetch 3x TopK by cosine similarity, filter by minimum similarity and
// case confidence, sort confirmed-first (when requested) then by similarity
// descending, and truncate to TopK.
func rankCases(candidates []storedCase, embedding []float32, params SearchParams) []SimilarCaseMatch {
	if params.TopK <= 0 {
		return []SimilarCaseMatch{}
	}

	scored := make([]SimilarCaseMatch, 0, len(candidates))
	for _, sc := range candidates {
		sim := cosineSimilarity(embedding, sc.Embedding)
		scored = append(scored, SimilarCaseMatch{
			CaseID:     sc.Case.ID,
			Similarity: sim,
			Case:       sc.Case,
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if limit := params.TopK * searchOverFetchFactor; len(scored) > limit {
		scored = scored[:limit]
	}

	out := make([]SimilarCaseMatch, 0, params.TopK)
	for _, m := range scored {
		if m.Similarity < params.MinSimilarity {
			continue
		}
		if m.Case.Confidence() < params.MinConfidence {
			continue
		}
		out = append(out, m)
	}

	if params.PreferConfirmed {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Case.Confirmed != out[j].Case.Confirmed {
				return out[i].Case.Confirmed
			}
			return out[i].Similarity > out[j].Similarity
		})
	}
	if len(out) > params.TopK {
		out = out[:params.TopK]
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

func statsOf(candidates []storedCase) StoreStats {
	stats := StoreStats{Count: len(candidates)}
	if stats.Count == 0 {
		return stats
	}
	var harmSum, spamSum float64
	for _, sc := range candidates {
		if sc.Case.Confirmed {
			stats.ConfirmedCount++
		}
		harmSum += sc.Case.HarmScore
		spamSum += sc.Case.SpamScore
	}
	stats.AvgHarmScore = harmSum / float64(stats.Count)
	stats.AvgSpamScore = spamSum / float64(stats.Count)
	return stats
}
