// Package provider defines the question/evaluation provider contract and its
// Gemini implementation.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/stemsi/quizgen/internal/model"
)

// Provider generates questions from documents and judges free-text answers.
// Calls are single-shot; retries are not performed by callers.
type Provider interface {
	// FetchQuestions returns an ordered list of questions or a *GenerationError.
	FetchQuestions(ctx context.Context, docs []model.Document, count int, kinds []model.QuestionKind) ([]model.Question, error)
	// EvaluateOpenEnded never fails; on any internal error it returns
	// EvaluationFailure(reference).
	EvaluateOpenEnded(ctx context.Context, question, reference, answer string) model.EvaluationOutcome
}

// Generation failure reasons.
var (
	ErrNoQuestions = errors.New("no questions produced")
	ErrUnparseable = errors.New("response could not be parsed into questions")
	ErrUpstream    = errors.New("upstream request failed")
)

// GenerationError is returned by FetchQuestions.
type GenerationError struct {
	Reason error
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return "generate questions: " + e.Reason.Error()
	}
	return fmt.Sprintf("generate questions: %v: %v", e.Reason, e.Err)
}

func (e *GenerationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

func generationError(reason, err error) error {
	return &GenerationError{Reason: reason, Err: err}
}

// EvaluationFailureFeedback is shown when a free-text answer could not be judged.
const EvaluationFailureFeedback = "حدث خطأ أثناء تقييم الإجابة."

// EvaluationFailure is the outcome recorded when evaluation could not complete.
func EvaluationFailure(reference string) model.EvaluationOutcome {
	return model.NewOutcome(false, reference, EvaluationFailureFeedback)
}

// UserMessage maps a generation error to the message shown on the configuration screen.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoQuestions):
		return "لم يتم إنشاء أسئلة لهذا المحتوى."
	case errors.Is(err, ErrUnparseable):
		return "فشل في تحليل بيانات الاختبار. التنسيق المستلم من الواجهة البرمجية غير صالح."
	default:
		return "لا يمكن إنشاء الاختبار. يرجى تجربة ملف مختلف أو المحاولة مرة أخرى لاحقًا."
	}
}
