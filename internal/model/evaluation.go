package model

// EvaluationOutcome is the judgement recorded for one answered question.
type EvaluationOutcome struct {
	IsCorrect       bool    `json:"isCorrect"`
	ReferenceAnswer string  `json:"correctAnswer"`
	Feedback        *string `json:"feedback,omitempty"`
}

// NewOutcome builds an outcome; an empty feedback string is stored as absent.
func NewOutcome(correct bool, reference, feedback string) EvaluationOutcome {
	o := EvaluationOutcome{IsCorrect: correct, ReferenceAnswer: reference}
	if feedback != "" {
		o.Feedback = &feedback
	}
	return o
}

// FeedbackText returns the feedback or "" when absent.
func (o EvaluationOutcome) FeedbackText() string {
	if o.Feedback == nil {
		return ""
	}
	return *o.Feedback
}
