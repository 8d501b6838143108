package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizgen/internal/model"
)

// ResultRepository handles the quiz_results archive.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Insert archives one result. Re-inserting the same (client, quiz) pair is a no-op.
func (r *ResultRepository) Insert(ctx context.Context, rec model.ResultRecord, finishedAt time.Time) error {
	clientID, err := uuid.Parse(rec.ClientID)
	if err != nil {
		return fmt.Errorf("parse client id: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO quiz_results
		 (client_id, quiz_id, score, total_questions, document_count, timer_minutes, timed_out, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (client_id, quiz_id) DO NOTHING`,
		clientID, rec.QuizID, rec.Score, rec.TotalQuestions, rec.DocumentCount,
		timerValue(rec.TimerMinutes), rec.TimedOut, finishedAt,
	)
	return err
}

// BulkInsert archives a batch of results in one statement using UNNEST.
func (r *ResultRepository) BulkInsert(ctx context.Context, batch []model.ResultRecord, finishedAt time.Time) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	clients := make([]uuid.UUID, 0, n)
	quizzes := make([]int64, 0, n)
	scores := make([]int32, 0, n)
	totals := make([]int32, 0, n)
	docs := make([]int32, 0, n)
	timers := make([]*int32, 0, n)
	timedOut := make([]bool, 0, n)
	finishedAts := make([]time.Time, 0, n)

	for _, rec := range batch {
		id, err := uuid.Parse(rec.ClientID)
		if err != nil {
			return fmt.Errorf("parse client id %q: %w", rec.ClientID, err)
		}
		clients = append(clients, id)
		quizzes = append(quizzes, rec.QuizID)
		scores = append(scores, int32(rec.Score))
		totals = append(totals, int32(rec.TotalQuestions))
		docs = append(docs, int32(rec.DocumentCount))
		timers = append(timers, timerValue(rec.TimerMinutes))
		timedOut = append(timedOut, rec.TimedOut)
		finishedAts = append(finishedAts, finishedAt)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO quiz_results
			(client_id, quiz_id, score, total_questions, document_count, timer_minutes, timed_out, finished_at)
		SELECT * FROM UNNEST(
			$1::uuid[],
			$2::bigint[],
			$3::int[],
			$4::int[],
			$5::int[],
			$6::int[],
			$7::bool[],
			$8::timestamptz[]
		)
		ON CONFLICT (client_id, quiz_id) DO NOTHING`,
		clients, quizzes, scores, totals, docs, timers, timedOut, finishedAts,
	)
	return err
}

// StatsByClient aggregates every archived result of a client.
func (r *ResultRepository) StatsByClient(ctx context.Context, clientID uuid.UUID) (model.ClientStats, error) {
	var s model.ClientStats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(total_questions), 0),
		        COALESCE(SUM(score), 0),
		        COALESCE(AVG(score * 100.0 / total_questions), 0)::float8,
		        COALESCE(MAX(ROUND(score * 100.0 / total_questions)), 0)::int
		 FROM quiz_results
		 WHERE client_id = $1`, clientID,
	).Scan(&s.QuizzesTaken, &s.QuestionsAnswered, &s.CorrectAnswers, &s.AveragePercentage, &s.BestPercentage)
	if err != nil {
		return model.ClientStats{}, fmt.Errorf("aggregate results: %w", err)
	}
	return s, nil
}

func timerValue(minutes *int) *int32 {
	if minutes == nil {
		return nil
	}
	v := int32(*minutes)
	return &v
}
