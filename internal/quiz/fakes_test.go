package quiz

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stemsi/quizgen/internal/history"
	"github.com/stemsi/quizgen/internal/model"
	"github.com/stemsi/quizgen/internal/provider"
)

type fakeProvider struct {
	questions []model.Question
	fetchErr  error
	outcome   model.EvaluationOutcome
	evalCalls int
}

func (f *fakeProvider) FetchQuestions(_ context.Context, _ []model.Document, _ int, _ []model.QuestionKind) ([]model.Question, error) {
	return f.questions, f.fetchErr
}

func (f *fakeProvider) EvaluateOpenEnded(_ context.Context, _, reference, _ string) model.EvaluationOutcome {
	f.evalCalls++
	if f.outcome.ReferenceAnswer == "" && !f.outcome.IsCorrect && f.outcome.Feedback == nil {
		return provider.EvaluationFailure(reference)
	}
	return f.outcome
}

type recordingWriter struct {
	mu    sync.Mutex
	saves []history.History
	err   error
}

func (w *recordingWriter) SaveHistory(_ context.Context, h history.History) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.saves = append(w.saves, h)
	return w.err
}

var errWrite = errors.New("disk full")

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func mustChoice(kind model.QuestionKind, text string, options []string, ref string) model.Question {
	q, err := model.NewChoiceQuestion(kind, text, options, ref)
	if err != nil {
		panic(err)
	}
	return q
}

func mustText(kind model.QuestionKind, text, ref string) model.Question {
	q, err := model.NewTextQuestion(kind, text, ref)
	if err != nil {
		panic(err)
	}
	return q
}

func sampleQuestions() []model.Question {
	return []model.Question{
		mustChoice(model.KindMultipleChoice, "ما عاصمة مصر؟", []string{"القاهرة", "الإسكندرية", "أسوان", "الأقصر"}, "القاهرة"),
		mustChoice(model.KindTrueFalse, "الشمس كوكب.", []string{"صحيح", "خطأ"}, "خطأ"),
		mustText(model.KindFillInBlank, "يتكون الماء من الهيدروجين و ____.", "الأكسجين"),
		mustText(model.KindOpenEnded, "فسر سبب تعاقب الليل والنهار.", "دوران الأرض حول محورها."),
	}
}

func sampleConfig(timer *int) model.QuizConfig {
	return model.QuizConfig{
		Documents:     []model.Document{{Name: "lesson.pdf", MIMEType: "application/pdf", Data: []byte("%PDF")}},
		QuestionCount: 4,
		Kinds:         model.AllKinds,
		TimerMinutes:  timer,
	}
}

func intPtr(v int) *int { return &v }
