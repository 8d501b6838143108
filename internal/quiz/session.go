package quiz

import "github.com/stemsi/quizgen/internal/model"

// Session is the live state of a quiz in progress.
type Session struct {
	gen       uint64
	questions []model.Question
	answers   []*string
	outcomes  []*model.EvaluationOutcome
	index     int
	remaining *int
	timer     *int
	fileNames []string
	busy      bool
}

func newSession(gen uint64, questions []model.Question, fileNames []string, timer *int) *Session {
	s := &Session{
		gen:       gen,
		questions: questions,
		answers:   make([]*string, len(questions)),
		outcomes:  make([]*model.EvaluationOutcome, len(questions)),
		fileNames: fileNames,
	}
	if timer != nil {
		minutes := *timer
		seconds := minutes * 60
		s.timer = &minutes
		s.remaining = &seconds
	}
	return s
}

func (s *Session) current() model.Question { return s.questions[s.index] }

func (s *Session) last() bool { return s.index == len(s.questions)-1 }

func (s *Session) score() int {
	n := 0
	for _, o := range s.outcomes {
		if o != nil && o.IsCorrect {
			n++
		}
	}
	return n
}
