package model

import (
	"errors"
	"fmt"
	"strings"
)

// QuestionKind enumerates the supported question formats.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "MULTIPLE_CHOICE"
	KindTrueFalse      QuestionKind = "TRUE_FALSE"
	KindFillInBlank    QuestionKind = "FILL_IN_THE_BLANK"
	KindOpenEnded      QuestionKind = "OPEN_ENDED"
)

// AllKinds lists every QuestionKind in display order.
var AllKinds = []QuestionKind{KindMultipleChoice, KindTrueFalse, KindFillInBlank, KindOpenEnded}

// ErrUnknownKind is returned by ParseQuestionKind for values outside the closed set.
var ErrUnknownKind = errors.New("unknown question kind")

// ParseQuestionKind converts a raw string into a QuestionKind.
func ParseQuestionKind(raw string) (QuestionKind, error) {
	k := QuestionKind(strings.ToUpper(strings.TrimSpace(raw)))
	switch k {
	case KindMultipleChoice, KindTrueFalse, KindFillInBlank, KindOpenEnded:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// HasOptions reports whether questions of this kind carry a list of options.
func (k QuestionKind) HasOptions() bool {
	return k == KindMultipleChoice || k == KindTrueFalse
}

// Label returns the Arabic label shown to quiz takers for the kind.
func (k QuestionKind) Label() string {
	switch k {
	case KindMultipleChoice:
		return "اختر الإجابة الصحيحة"
	case KindTrueFalse:
		return "صح أم خطأ"
	case KindFillInBlank:
		return "أكمل الفراغ"
	case KindOpenEnded:
		return "فسر ودلل"
	default:
		return string(k)
	}
}

// Question is a single generated quiz question.
// Options are only meaningful for choice-style kinds.
type Question struct {
	Text            string       `json:"question"`
	Kind            QuestionKind `json:"type"`
	Options         []string     `json:"options"`
	ReferenceAnswer string       `json:"correctAnswer"`
}

// NewChoiceQuestion builds a MultipleChoice or TrueFalse question.
func NewChoiceQuestion(kind QuestionKind, text string, options []string, reference string) (Question, error) {
	if !kind.HasOptions() {
		return Question{}, fmt.Errorf("kind %s does not take options", kind)
	}
	q := Question{Text: text, Kind: kind, Options: append([]string(nil), options...), ReferenceAnswer: reference}
	return q, q.Validate()
}

// NewTextQuestion builds a FillInBlank or OpenEnded question.
func NewTextQuestion(kind QuestionKind, text, reference string) (Question, error) {
	if kind.HasOptions() {
		return Question{}, fmt.Errorf("kind %s requires options", kind)
	}
	q := Question{Text: text, Kind: kind, Options: []string{}, ReferenceAnswer: reference}
	return q, q.Validate()
}

// Normalize drops options from kinds that do not use them and guarantees a
// non-nil options slice for JSON output.
func (q Question) Normalize() Question {
	if !q.Kind.HasOptions() || q.Options == nil {
		q.Options = []string{}
	}
	return q
}

// Validate checks the structural shape of the question.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("question text is empty")
	}
	if _, err := ParseQuestionKind(string(q.Kind)); err != nil {
		return err
	}
	if strings.TrimSpace(q.ReferenceAnswer) == "" {
		return errors.New("reference answer is empty")
	}
	if q.Kind.HasOptions() && len(q.Options) < 2 {
		return fmt.Errorf("%s question needs at least two options", q.Kind)
	}
	return nil
}

// ReferenceInOptions reports whether the reference answer is one of the options.
// The provider is expected to honour this for choice kinds; it is not enforced.
func (q Question) ReferenceInOptions() bool {
	if !q.Kind.HasOptions() {
		return true
	}
	for _, o := range q.Options {
		if o == q.ReferenceAnswer {
			return true
		}
	}
	return false
}

// QuestionForTaker is a question as shown during a quiz, without the answer.
type QuestionForTaker struct {
	Text    string       `json:"question"`
	Kind    QuestionKind `json:"type"`
	Options []string     `json:"options"`
}

// ForTaker strips the reference answer.
func (q Question) ForTaker() QuestionForTaker {
	n := q.Normalize()
	return QuestionForTaker{Text: n.Text, Kind: n.Kind, Options: n.Options}
}
