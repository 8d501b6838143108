package model

import "mime/multipart"

// ViewState enumerates the screens of a client's quiz flow.
type ViewState string

const (
	StateConfiguring ViewState = "CONFIGURING"
	StateInQuiz      ViewState = "QUIZ"
	StateResults     ViewState = "RESULTS"
	StateHistory     ViewState = "HISTORY"
	StateReview      ViewState = "REVIEW"
)

// TimerOptions is the fixed menu of quiz timers in minutes. Unlimited is nil.
var TimerOptions = []int{5, 15, 30}

// ValidTimer reports whether minutes is one of TimerOptions (nil is always valid).
func ValidTimer(minutes *int) bool {
	if minutes == nil {
		return true
	}
	for _, m := range TimerOptions {
		if *minutes == m {
			return true
		}
	}
	return false
}

// Document is one uploaded source file.
type Document struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// QuizConfig is the user's configuration for a new quiz.
type QuizConfig struct {
	Documents     []Document
	QuestionCount int
	Kinds         []QuestionKind
	TimerMinutes  *int
}

// FileNames returns the document names in upload order.
func (c QuizConfig) FileNames() []string {
	names := make([]string, len(c.Documents))
	for i, d := range c.Documents {
		names[i] = d.Name
	}
	return names
}

// StartQuizForm is the multipart payload for starting a quiz.
// Documents and kinds are checked by the state machine so that the
// user-visible error is recorded on the session.
type StartQuizForm struct {
	Files         []*multipart.FileHeader `form:"files"`
	QuestionCount int                     `form:"question_count" binding:"required"`
	Kinds         []string                `form:"kinds"`
	TimerMinutes  *int                    `form:"timer_minutes" binding:"omitempty,oneof=5 15 30"`
}

// AnswerRequest is the payload for submitting an answer to the current question.
type AnswerRequest struct {
	Answer string `json:"answer" binding:"required,notblank,max=5000"`
}

// ResultRecord is the archived summary of a finished quiz.
type ResultRecord struct {
	ClientID       string `json:"client_id"`
	QuizID         int64  `json:"quiz_id"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
	DocumentCount  int    `json:"document_count"`
	TimerMinutes   *int   `json:"timer_minutes,omitempty"`
	TimedOut       bool   `json:"timed_out"`
}

// ClientStats aggregates a client's archived results.
type ClientStats struct {
	QuizzesTaken      int     `json:"quizzes_taken"`
	QuestionsAnswered int     `json:"questions_total"`
	CorrectAnswers    int     `json:"correct_total"`
	AveragePercentage float64 `json:"average_percentage"`
	BestPercentage    int     `json:"best_percentage"`
}
