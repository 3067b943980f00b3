package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/riskmod/riskmod/casestore"
	"github.com/riskmod/riskmod/embed"
)

const defaultWriterQueueSize = 256

// writes get their own timeout, detached from any caller deadline: the
// writer outlives the request that enqueued the case
const writerWriteTimeout = 10 * time.Second

// CaseWriter persists new high-confidence cases off the analysis critical
// path. Enqueue never blocks; when the queue is full the case is dropped and
// counted, since auto-saved exemplars are an optimization, not a record of
// truth. Failures are logged only and never surfaced to the analysis caller.
type CaseWriter struct {
	logger   *slog.Logger
	store    casestore.CaseStore
	embedder embed.Embedder
	queue    chan casestore.ContentCase
	done     chan struct{}
}

func NewCaseWriter(logger *slog.Logger, store casestore.CaseStore, embedder embed.Embedder, queueSize int) *CaseWriter {
	if queueSize <= 0 {
		queueSize = defaultWriterQueueSize
	}
	w := &CaseWriter{
		logger:   logger,
		store:    store,
		embedder: embedder,
		queue:    make(chan casestore.ContentCase, queueSize),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue hands a case to the background writer. Non-blocking.
func (w *CaseWriter) Enqueue(c casestore.ContentCase) {
	select {
	case w.queue <- c:
	default:
		caseWriteCount.WithLabelValues("dropped").Inc()
		w.logger.Warn("case writer queue full, dropping case", "caseID", c.ID)
	}
}

func (w *CaseWriter) run() {
	defer close(w.done)
	for c := range w.queue {
		w.write(c)
	}
}

func (w *CaseWriter) write(c casestore.ContentCase) {
	ctx, cancel := context.WithTimeout(context.Background(), writerWriteTimeout)
	defer cancel()

	embedding, err := w.embedder.Embed(ctx, c.Sentence)
	if err != nil {
		caseWriteCount.WithLabelValues("embed_error").Inc()
		w.logger.Warn("background case embed failed", "caseID", c.ID, "err", err)
		return
	}
	if err := w.store.Upsert(ctx, c, embedding); err != nil {
		caseWriteCount.WithLabelValues("store_error").Inc()
		w.logger.Warn("background case write failed", "caseID", c.ID, "err", err)
		return
	}
	caseWriteCount.WithLabelValues("ok").Inc()
}

// Shutdown stops accepting work and drains in-flight writes, bounded by ctx.
// Cases still queued when ctx expires are lost; that loss is logged.
func (w *CaseWriter) Shutdown(ctx context.Context) error {
	close(w.queue)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("case writer shutdown timed out, queued cases lost", "remaining", len(w.queue))
		return ctx.Err()
	}
}
