package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/quizgen/internal/history"
	"github.com/stemsi/quizgen/internal/model"
)

// ResultStatsReader aggregates archived results.
type ResultStatsReader interface {
	StatsByClient(ctx context.Context, clientID uuid.UUID) (model.ClientStats, error)
}

// StatsService reports a client's overall performance. It reads the
// quiz_results archive when enabled and otherwise derives the figures from the
// client's history.
type StatsService struct {
	archive ResultStatsReader
	quizzes *QuizService
}

// NewStatsService creates a StatsService. archive may be nil.
func NewStatsService(archive ResultStatsReader, quizzes *QuizService) *StatsService {
	return &StatsService{archive: archive, quizzes: quizzes}
}

// ForClient returns the aggregate statistics of clientID.
func (s *StatsService) ForClient(ctx context.Context, clientID string) (model.ClientStats, error) {
	if s.archive == nil {
		return StatsFromHistory(s.quizzes.History(ctx, clientID)), nil
	}

	id, err := uuid.Parse(clientID)
	if err != nil {
		return model.ClientStats{}, fmt.Errorf("parse client id: %w", err)
	}
	return s.archive.StatsByClient(ctx, id)
}

// StatsFromHistory aggregates a history the same way the archive query does.
func StatsFromHistory(h history.History) model.ClientStats {
	var st model.ClientStats
	var sum float64
	for _, q := range h {
		if q.TotalQuestions <= 0 {
			continue
		}
		st.QuizzesTaken++
		st.QuestionsAnswered += q.TotalQuestions
		st.CorrectAnswers += q.Score
		sum += float64(q.Score) * 100 / float64(q.TotalQuestions)
		if p := q.Percentage(); p > st.BestPercentage {
			st.BestPercentage = p
		}
	}
	if st.QuizzesTaken > 0 {
		st.AveragePercentage = sum / float64(st.QuizzesTaken)
	}
	return st
}
