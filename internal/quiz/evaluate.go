package quiz

import (
	"strings"

	"github.com/stemsi/quizgen/internal/model"
)

// normalizeAnswer trims surrounding whitespace and folds case. Nothing else
// (inner whitespace, diacritics) is normalized.
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EvaluateLocally judges a non-open-ended answer against the reference answer.
func EvaluateLocally(q model.Question, answer string) model.EvaluationOutcome {
	correct := normalizeAnswer(answer) == normalizeAnswer(q.ReferenceAnswer)
	return model.EvaluationOutcome{IsCorrect: correct, ReferenceAnswer: q.ReferenceAnswer}
}
