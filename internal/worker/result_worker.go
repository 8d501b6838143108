package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/model"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultStore is the archive the worker writes into.
type ResultStore interface {
	Insert(ctx context.Context, rec model.ResultRecord, finishedAt time.Time) error
	BulkInsert(ctx context.Context, batch []model.ResultRecord, finishedAt time.Time) error
}

// ResultSource is the queue the worker consumes. Pop returns nil, nil when
// nothing arrived within timeout.
type ResultSource interface {
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
	Enqueue(ctx context.Context, rec model.ResultRecord) error
}

// ResultWorker drains the results queue into the quiz_results archive.
type ResultWorker struct {
	store ResultStore
	queue ResultSource
	log   zerolog.Logger
}

func NewResultWorker(store ResultStore, queue ResultSource, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		store: store,
		queue: queue,
		log:   log.With().Str("component", "result_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start blocks until ctx is cancelled, then flushes what it holds.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]model.ResultRecord, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			raw, err := w.queue.Pop(ctx, ResultPollTimeout)
			if err != nil {
				if ctx.Err() == nil {
					w.log.Error().Err(err).Msg("Queue pop error")
				}
				continue
			}
			if raw == nil {
				continue
			}

			rec, err := DecodeResult(raw)
			if err != nil {
				w.log.Error().Err(err).Msg("Invalid result payload")
				continue
			}

			batch = append(batch, rec)
		}
	}
}

// EncodeResult serializes a record for the results queue.
func EncodeResult(rec model.ResultRecord) ([]byte, error) {
	return json.Marshal(rec)
}

// DecodeResult parses a queued record.
func DecodeResult(raw []byte) (model.ResultRecord, error) {
	var rec model.ResultRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.ResultRecord{}, err
	}
	if _, err := uuid.Parse(rec.ClientID); err != nil {
		return model.ResultRecord{}, fmt.Errorf("client id: %w", err)
	}
	if rec.TotalQuestions <= 0 || rec.Score < 0 || rec.Score > rec.TotalQuestions {
		return model.ResultRecord{}, errors.New("result record is incomplete")
	}
	return rec, nil
}

// ----------------------------------------------------------------
// Batch insert with per-record fallback
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []model.ResultRecord) {
	if len(batch) == 0 {
		return
	}

	now := time.Now()
	if err := w.store.BulkInsert(ctx, batch, now); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk result insert failed, using fallback")

		for _, rec := range batch {
			if err := w.store.Insert(ctx, rec, now); err != nil {
				w.log.Error().Err(err).Int64("quiz_id", rec.QuizID).Msg("single insert failed, requeueing")
				w.requeue(ctx, rec)
			}
		}
		return
	}

	w.log.Debug().Int("size", len(batch)).Msg("Results archived")
}

func (w *ResultWorker) requeue(ctx context.Context, rec model.ResultRecord) {
	if err := w.queue.Enqueue(ctx, rec); err != nil {
		w.log.Error().Err(err).Int64("quiz_id", rec.QuizID).Msg("requeue failed, result dropped")
	}
}
