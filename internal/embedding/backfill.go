package embedding

import (
	"context"
	"log"
)

// DocUpdater is the narrow storage capability the backfill queue needs:
// persisting a computed embedding for a doc (storage.Backend.UpdateDocEmbedding).
type DocUpdater interface {
	UpdateDocEmbedding(ctx context.Context, docID string, embedding []float32) error
}

// job is one pending embedding computation.
type job struct {
	docID string
	text  string
}

// BackfillQueue decouples slow embedder calls from the write path (spec
// §4.3/§5/§9): AppendEvent enqueues a job instead of blocking on Embed; a
// fixed-size worker pool drains it and upserts embedding_status=ready
// docs. A full queue drops the job and logs a warning rather than
// blocking the caller.
type BackfillQueue struct {
	jobs     chan job
	embedder Embedder
	storage  DocUpdater
}

// NewBackfillQueue starts workers goroutines draining a channel of
// capacity queueSize (spec §6 embedding_backfill_queue_size /
// embedding_backfill_workers).
func NewBackfillQueue(ctx context.Context, embedder Embedder, storage DocUpdater, queueSize, workers int) *BackfillQueue {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 1
	}
	q := &BackfillQueue{
		jobs:     make(chan job, queueSize),
		embedder: embedder,
		storage:  storage,
	}
	for i := 0; i < workers; i++ {
		go q.worker(ctx)
	}
	return q
}

// Enqueue submits docID/text for backfill. Never blocks: if the queue is
// full the job is dropped and a warning is logged (spec: "a full channel
// drops the job and logs a warning, never blocks the write path").
func (q *BackfillQueue) Enqueue(docID, text string) {
	select {
	case q.jobs <- job{docID: docID, text: text}:
	default:
		log.Printf("embedding: backfill queue full, dropping job for doc_id=%s", docID)
	}
}

func (q *BackfillQueue) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-q.jobs:
			vec, err := q.embedder.Embed(ctx, j.text)
			if err != nil {
				log.Printf("embedding: backfill failed for doc_id=%s: %v", j.docID, err)
				continue
			}
			if err := q.storage.UpdateDocEmbedding(ctx, j.docID, vec); err != nil {
				log.Printf("embedding: persist backfilled embedding failed for doc_id=%s: %v", j.docID, err)
			}
		}
	}
}
