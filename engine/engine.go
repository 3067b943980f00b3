// Package engine implements the hybrid content-risk scoring pipeline:
// deterministic lexical rules, confidence-weighted fusion of a pretrained
// classifier and an LLM judge, retrieval-based correction against stored
// cases, a pre-model auto-block short-circuit, and the feedback loop that is
// the engine's only learning mechanism.
package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/riskmod/riskmod/casestore"
	"github.com/riskmod/riskmod/embed"
	"github.com/riskmod/riskmod/lexical"
	"github.com/riskmod/riskmod/scorer"
	"github.com/riskmod/riskmod/segment"

	"golang.org/x/sync/errgroup"
)

// Engine runs the analysis pipeline. All collaborators are injected once at
// construction and shared read-only across concurrent requests.
//
// TODO: careful when initializing: several fields should not be nil even
// though they are pointer or interface typed.
type Engine struct {
	Logger     *slog.Logger
	Segmenter  *segment.Segmenter
	Lexical    *lexical.Scorer
	Classifier scorer.Classifier
	Judge      scorer.Judge
	Embedder   embed.Embedder
	Cases      casestore.CaseStore
	Writer     *CaseWriter
	Config     Config
}

type Config struct {
	// per-call timeout for classifier, judge, and embedding requests
	ScorerTimeout time.Duration

	AutoBlockMinSimilarity float64
	AutoBlockMinConfidence float64
	AutoBlockMinScore      float64

	CorrectionTopK          int
	CorrectionMinSimilarity float64
	CorrectionMinConfidence float64

	// minimum max-axis confidence for the background auto-save of a case
	AutoSaveMinConfidence float64
}

func DefaultConfig() Config {
	return Config{
		ScorerTimeout:           5 * time.Second,
		AutoBlockMinSimilarity:  0.9,
		AutoBlockMinConfidence:  80,
		AutoBlockMinScore:       90,
		CorrectionTopK:          3,
		CorrectionMinSimilarity: 0.65,
		CorrectionMinConfidence: 50,
		AutoSaveMinConfidence:   80,
	}
}

type AnalysisRequest struct {
	Text string
	// reference to the submission being moderated (post id, comment id, ...);
	// part of the deterministic case id
	PostRef    string
	ReceivedAt time.Time
}

// ScoreSet holds both axes' scores and confidences, all on the 0-100 scale.
type ScoreSet struct {
	HarmScore      float64 `json:"harm_score"`
	SpamScore      float64 `json:"spam_score"`
	HarmConfidence float64 `json:"harm_confidence"`
	SpamConfidence float64 `json:"spam_confidence"`
}

// Block reasons, named for the axis that triggered.
const (
	BlockReasonHarmful = "harmful"
	BlockReasonSpam    = "spam"
)

type AnalysisResult struct {
	// Scores is nil when the request was auto-blocked: the pipeline was
	// skipped, not computed-and-found-safe.
	Scores *ScoreSet `json:"scores,omitempty"`
	// BaseScores are the fused scores before retrieval correction.
	BaseScores  *ScoreSet                     `json:"base_scores,omitempty"`
	Matches     []casestore.SimilarCaseMatch  `json:"matches,omitempty"`
	AutoBlocked bool                          `json:"auto_blocked"`
	BlockReason string                        `json:"block_reason,omitempty"`
	Tags        []string                      `json:"tags,omitempty"`
	Timing      Timing                        `json:"timing"`
}

type Timing struct {
	Segment   time.Duration `json:"segment"`
	Lexical   time.Duration `json:"lexical"`
	Embed     time.Duration `json:"embed"`
	AutoBlock time.Duration `json:"auto_block"`
	Models    time.Duration `json:"models"`
	Correct   time.Duration `json:"correct"`
	Total     time.Duration `json:"total"`
}

// neutralResult is returned for empty or unsegmentable input: confidently
// zero-risk, no error.
func neutralResult(start time.Time) *AnalysisResult {
	return &AnalysisResult{
		Scores: &ScoreSet{
			HarmConfidence: 100,
			SpamConfidence: 100,
		},
		Timing: Timing{Total: time.Since(start)},
	}
}

// Analyze runs the full pipeline on one submission. It degrades rather than
// fails: scorer errors fall back to neutral defaults and store errors disable
// correction and auto-block, so the only error paths left are caller
// cancellation and internal panics.
func (e *Engine) Analyze(ctx context.Context, req AnalysisRequest) (result *AnalysisResult, err error) {
	start := time.Now()
	// recover panics from rule and adapter execution, like an HTTP server would
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("analysis panic", "err", r, "postRef", req.PostRef)
			result = neutralResult(start)
			err = nil
		}
	}()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		analysesCount.WithLabelValues("empty").Inc()
		return neutralResult(start), nil
	}

	segStart := time.Now()
	sentences := e.Segmenter.Segment(text)
	segDur := time.Since(segStart)
	if len(sentences) == 0 {
		analysesCount.WithLabelValues("empty").Inc()
		res := neutralResult(start)
		res.Timing.Segment = segDur
		return res, nil
	}
	// the representative sentence keys the stored case for this submission
	representative := sentences[0].Text

	// deterministic lexical pass, strictly before any network call
	lexStart := time.Now()
	lexicalBoost := e.Lexical.HarmBoost(text)
	ruleSpam := e.Lexical.SpamScore(text)
	lexDur := time.Since(lexStart)

	// embedding enables retrieval; without it the pipeline still completes
	// on fused-only scores (fail-open)
	embStart := time.Now()
	embedding := e.embedText(ctx, text)
	embDur := time.Since(embStart)

	abStart := time.Now()
	blocked := e.checkAutoBlock(ctx, embedding)
	abDur := time.Since(abStart)
	if blocked != nil {
		autoBlockCount.WithLabelValues(blocked.Reason).Inc()
		analysesCount.WithLabelValues("auto_blocked").Inc()
		analysisDuration.WithLabelValues("auto_blocked").Observe(time.Since(start).Seconds())
		res := &AnalysisResult{
			AutoBlocked: true,
			BlockReason: blocked.Reason,
			Matches:     []casestore.SimilarCaseMatch{blocked.Match},
			Timing: Timing{
				Segment:   segDur,
				Lexical:   lexDur,
				Embed:     embDur,
				AutoBlock: abDur,
				Total:     time.Since(start),
			},
		}
		e.Logger.Info("content auto-blocked",
			"postRef", req.PostRef,
			"reason", blocked.Reason,
			"matchedCase", blocked.Match.CaseID,
			"similarity", blocked.Match.Similarity)
		return res, nil
	}

	modelStart := time.Now()
	cls, judge := e.callScorers(ctx, text)
	modelDur := time.Since(modelStart)

	base := ScoreSet{}
	base.HarmScore, base.HarmConfidence = fuseHarm(cls, judge, lexicalBoost)
	base.SpamScore, base.SpamConfidence = fuseSpam(judge, ruleSpam)

	corrStart := time.Now()
	matches := e.searchMatches(ctx, embedding)
	final := applyCorrection(base, matches)
	corrDur := time.Since(corrStart)

	res := &AnalysisResult{
		Scores:     &final,
		BaseScores: &base,
		Matches:    matches,
		Tags:       judge.Tags,
		Timing: Timing{
			Segment:   segDur,
			Lexical:   lexDur,
			Embed:     embDur,
			AutoBlock: abDur,
			Models:    modelDur,
			Correct:   corrDur,
			Total:     time.Since(start),
		},
	}

	e.maybeAutoSave(req, representative, final)

	analysesCount.WithLabelValues("scored").Inc()
	analysisDuration.WithLabelValues("scored").Observe(time.Since(start).Seconds())
	e.Logger.Info("content analyzed",
		"postRef", req.PostRef,
		"harm", final.HarmScore,
		"spam", final.SpamScore,
		"harmConf", final.HarmConfidence,
		"spamConf", final.SpamConfidence,
		"matches", len(matches),
		"durMs", time.Since(start).Milliseconds())
	return res, nil
}

// embedText embeds with a bounded timeout; a nil return disables retrieval
// for this request.
func (e *Engine) embedText(ctx context.Context, text string) []float32 {
	if e.Embedder == nil {
		return nil
	}
	ectx, cancel := context.WithTimeout(ctx, e.Config.ScorerTimeout)
	defer cancel()
	vec, err := e.Embedder.Embed(ectx, text)
	if err != nil {
		scorerErrorCount.WithLabelValues("embedder").Inc()
		e.Logger.Warn("embedding failed, retrieval disabled for request", "err", err)
		return nil
	}
	return vec
}

// callScorers issues the classifier and judge calls concurrently with
// per-call timeouts, substituting neutral defaults on any failure.
func (e *Engine) callScorers(ctx context.Context, text string) (scorer.Score, scorer.JudgeResult) {
	cls := scorer.NeutralScore()
	judge := scorer.NeutralJudgeResult()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, e.Config.ScorerTimeout)
		defer cancel()
		out, err := e.Classifier.Classify(cctx, text)
		if err != nil {
			scorerErrorCount.WithLabelValues("classifier").Inc()
			e.Logger.Warn("classifier failed, using neutral default", "err", err)
			return nil
		}
		cls = out
		return nil
	})
	g.Go(func() error {
		jctx, cancel := context.WithTimeout(gctx, e.Config.ScorerTimeout)
		defer cancel()
		out, err := e.Judge.Judge(jctx, text)
		if err != nil {
			scorerErrorCount.WithLabelValues("judge").Inc()
			e.Logger.Warn("judge failed, using neutral default", "err", err)
			return nil
		}
		judge = out
		return nil
	})
	_ = g.Wait() // goroutines above never return errors
	return cls, judge
}

// searchMatches queries the case store for correction candidates; store
// errors fail open into an empty result.
func (e *Engine) searchMatches(ctx context.Context, embedding []float32) []casestore.SimilarCaseMatch {
	if embedding == nil {
		return nil
	}
	matches, err := e.Cases.Search(ctx, embedding, casestore.SearchParams{
		TopK:            e.Config.CorrectionTopK,
		MinSimilarity:   e.Config.CorrectionMinSimilarity,
		MinConfidence:   e.Config.CorrectionMinConfidence,
		PreferConfirmed: true,
	})
	if err != nil {
		storeErrorCount.WithLabelValues("search").Inc()
		e.Logger.Warn("case search failed, correction disabled for request", "err", err)
		return nil
	}
	return matches
}

// maybeAutoSave enqueues a high-confidence result for background persistence.
func (e *Engine) maybeAutoSave(req AnalysisRequest, sentence string, final ScoreSet) {
	if e.Writer == nil {
		return
	}
	if max(final.HarmConfidence, final.SpamConfidence) < e.Config.AutoSaveMinConfidence {
		return
	}
	createdAt := req.ReceivedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	e.Writer.Enqueue(casestore.ContentCase{
		ID:             casestore.CaseID(sentence, req.PostRef),
		Sentence:       sentence,
		PostRef:        req.PostRef,
		HarmScore:      final.HarmScore,
		SpamScore:      final.SpamScore,
		HarmConfidence: final.HarmConfidence,
		SpamConfidence: final.SpamConfidence,
		Confirmed:      false,
		SourceType:     casestore.SourceAutoSaved,
		CreatedAt:      createdAt,
	})
}

// GetStats reports case store statistics.
func (e *Engine) GetStats(ctx context.Context) (casestore.StoreStats, error) {
	return e.Cases.Stats(ctx)
}
