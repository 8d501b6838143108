package quiz

import "github.com/stemsi/quizgen/internal/model"

// View is the read-only projection of the machine used for rendering.
type View struct {
	State   model.ViewState      `json:"state"`
	Error   string               `json:"error,omitempty"`
	Loading bool                 `json:"loading"`
	Quiz    *QuizView            `json:"quiz,omitempty"`
	Results *ResultsView         `json:"results,omitempty"`
	History []model.Summary      `json:"history,omitempty"`
	Review  *model.CompletedQuiz `json:"review,omitempty"`
}

// QuizView describes the current question of an active session.
type QuizView struct {
	Question         model.QuestionForTaker   `json:"question"`
	Number           int                      `json:"number"`
	Total            int                      `json:"total"`
	Answer           *string                  `json:"answer"`
	Outcome          *model.EvaluationOutcome `json:"outcome"`
	Evaluating       bool                     `json:"evaluating"`
	RemainingSeconds *int                     `json:"remaining_seconds"`
	FileNames        []string                 `json:"file_names"`
}

// ResultsView summarizes the quiz that just finished.
type ResultsView struct {
	QuizID     int64    `json:"quiz_id"`
	Score      int      `json:"score"`
	Total      int      `json:"total"`
	Percentage int      `json:"percentage"`
	Feedback   string   `json:"feedback"`
	FileNames  []string `json:"file_names"`
	TimedOut   bool     `json:"timed_out"`
}

// Snapshot returns the current view. The returned value shares no mutable
// state with the machine.
func (m *Machine) Snapshot() View {
	v := View{State: m.State()}

	switch sc := m.screen.(type) {
	case *configuring:
		v.Error = sc.errMsg
		v.Loading = sc.loading

	case *inQuiz:
		s := sc.s
		qv := &QuizView{
			Question:   s.current().ForTaker(),
			Number:     s.index + 1,
			Total:      len(s.questions),
			Evaluating: s.busy,
			FileNames:  s.fileNames,
		}
		if a := s.answers[s.index]; a != nil {
			answer := *a
			qv.Answer = &answer
		}
		if o := s.outcomes[s.index]; o != nil {
			outcome := *o
			qv.Outcome = &outcome
		}
		if s.remaining != nil {
			r := *s.remaining
			qv.RemainingSeconds = &r
		}
		v.Quiz = qv

	case *showingResults:
		pct := sc.quiz.Percentage()
		v.Results = &ResultsView{
			QuizID:     sc.quiz.ID,
			Score:      sc.quiz.Score,
			Total:      sc.quiz.TotalQuestions,
			Percentage: pct,
			Feedback:   model.FeedbackBand(pct),
			FileNames:  sc.quiz.FileNames,
			TimedOut:   sc.timedOut,
		}

	case *showingHistory:
		v.History = m.history.Newest()

	case *reviewing:
		q := sc.quiz
		v.Review = &q
	}

	return v
}
