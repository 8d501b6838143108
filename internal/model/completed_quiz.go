package model

// DateLayout formats CompletedQuiz.Date in local time.
const DateLayout = "2006/01/02 15:04:05"

// CompletedQuiz is the immutable record of a finished quiz session.
// Field names match the history format written by earlier browser builds.
type CompletedQuiz struct {
	ID                int64                `json:"id"`
	FileNames         []string             `json:"fileNames"`
	Date              string               `json:"date"`
	Score             int                  `json:"score"`
	TotalQuestions    int                  `json:"totalQuestions"`
	Questions         []Question           `json:"questions"`
	UserAnswers       []*string            `json:"userAnswers"`
	EvaluationResults []*EvaluationOutcome `json:"evaluationResults"`
	Timer             *int                 `json:"timer"`
}

// Valid reports whether the record is structurally usable.
func (q CompletedQuiz) Valid() bool {
	if q.ID <= 0 {
		return false
	}
	n := len(q.Questions)
	if q.TotalQuestions != n || len(q.UserAnswers) != n || len(q.EvaluationResults) != n {
		return false
	}
	if q.Score < 0 || q.Score > n {
		return false
	}
	for _, question := range q.Questions {
		if _, err := ParseQuestionKind(string(question.Kind)); err != nil {
			return false
		}
	}
	return true
}

// Percentage returns the rounded score percentage.
func (q CompletedQuiz) Percentage() int {
	return Percentage(q.Score, q.TotalQuestions)
}

// Summary is the list-row view of a CompletedQuiz.
type Summary struct {
	ID             int64    `json:"id"`
	FileNames      []string `json:"fileNames"`
	Date           string   `json:"date"`
	Score          int      `json:"score"`
	TotalQuestions int      `json:"totalQuestions"`
}

// Summarize returns the list-row view.
func (q CompletedQuiz) Summarize() Summary {
	return Summary{
		ID:             q.ID,
		FileNames:      q.FileNames,
		Date:           q.Date,
		Score:          q.Score,
		TotalQuestions: q.TotalQuestions,
	}
}

// Percentage computes round(score/total*100), 0 when total is 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return (score*200 + total) / (total * 2)
}

// FeedbackBand returns the encouragement line for a score percentage.
func FeedbackBand(percentage int) string {
	switch {
	case percentage == 100:
		return "علامة كاملة! أنت عبقري!"
	case percentage >= 80:
		return "عمل ممتاز! أنت تعرف جيدًا."
	case percentage >= 60:
		return "عمل جيد! أداء قوي."
	case percentage >= 40:
		return "ليس سيئًا، ولكن هناك مجال للتحسين."
	default:
		return "واصل المذاكرة! ستصل إلى هدفك."
	}
}
