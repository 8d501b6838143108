// Package quiz implements the quiz session state machine.
package quiz

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/history"
	"github.com/stemsi/quizgen/internal/model"
	"github.com/stemsi/quizgen/internal/provider"
)

// HistoryWriter persists the whole history after a quiz is appended to it.
type HistoryWriter interface {
	SaveHistory(ctx context.Context, h history.History) error
}

// HistoryWriterFunc adapts a function to HistoryWriter.
type HistoryWriterFunc func(ctx context.Context, h history.History) error

func (f HistoryWriterFunc) SaveHistory(ctx context.Context, h history.History) error {
	return f(ctx, h)
}

// FinishFunc is called synchronously each time a session is converted into a
// CompletedQuiz.
type FinishFunc func(q model.CompletedQuiz, timedOut bool)

// Options tunes a Machine. Zero values select defaults.
type Options struct {
	MaxQuestions int
	Clock        func() time.Time
	OnFinish     FinishFunc
	Logger       zerolog.Logger
}

// screen is the state-specific data of the machine. Exactly one is active.
type screen interface {
	viewState() model.ViewState
}

type configuring struct {
	errMsg  string
	loading bool
	gen     uint64
}

type inQuiz struct {
	s *Session
}

type showingResults struct {
	quiz     model.CompletedQuiz
	timedOut bool
}

type showingHistory struct{}

type reviewing struct {
	quiz model.CompletedQuiz
}

func (*configuring) viewState() model.ViewState    { return model.StateConfiguring }
func (*inQuiz) viewState() model.ViewState         { return model.StateInQuiz }
func (*showingResults) viewState() model.ViewState { return model.StateResults }
func (*showingHistory) viewState() model.ViewState { return model.StateHistory }
func (*reviewing) viewState() model.ViewState      { return model.StateReview }

// Machine owns one client's view state, active session and history.
// It is not safe for concurrent use; callers serialize access.
type Machine struct {
	provider provider.Provider
	writer   HistoryWriter
	history  history.History

	maxQuestions int
	clock        func() time.Time
	onFinish     FinishFunc
	log          zerolog.Logger

	screen screen
	gen    uint64
}

// NewMachine creates a Machine in CONFIGURING with the given loaded history.
func NewMachine(p provider.Provider, h history.History, w HistoryWriter, opts Options) *Machine {
	if opts.MaxQuestions <= 0 {
		opts.MaxQuestions = 20
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if h == nil {
		h = history.History{}
	}
	return &Machine{
		provider:     p,
		writer:       w,
		history:      h,
		maxQuestions: opts.MaxQuestions,
		clock:        opts.Clock,
		onFinish:     opts.OnFinish,
		log:          opts.Logger,
		screen:       &configuring{},
	}
}

// State returns the active view state.
func (m *Machine) State() model.ViewState { return m.screen.viewState() }

// History returns the in-memory history.
func (m *Machine) History() history.History { return m.history }

// ReplaceHistory swaps the in-memory history, for example after a late load
// from the store. The screen is left unchanged.
func (m *Machine) ReplaceHistory(h history.History) {
	if h == nil {
		h = history.History{}
	}
	m.history = h
}

// Remaining returns the countdown in seconds and whether one is running.
func (m *Machine) Remaining() (int, bool) {
	q, ok := m.screen.(*inQuiz)
	if !ok || q.s.remaining == nil {
		return 0, false
	}
	return *q.s.remaining, true
}

// StartTicket identifies one outstanding question fetch.
type StartTicket struct {
	gen    uint64
	Config model.QuizConfig
}

// BeginStart validates cfg and marks the machine as loading. On a validation
// error only the error message changes.
func (m *Machine) BeginStart(cfg model.QuizConfig) (StartTicket, error) {
	c, ok := m.screen.(*configuring)
	if !ok {
		return StartTicket{}, ErrIllegalTransition
	}
	if c.loading {
		return StartTicket{}, ErrBusy
	}
	if err := m.validate(cfg); err != nil {
		c.errMsg = configMessages[err]
		return StartTicket{}, err
	}

	m.gen++
	c.errMsg = ""
	c.loading = true
	c.gen = m.gen
	return StartTicket{gen: m.gen, Config: cfg}, nil
}

func (m *Machine) validate(cfg model.QuizConfig) error {
	if len(cfg.Documents) == 0 {
		return ErrNoDocuments
	}
	if len(cfg.Kinds) == 0 {
		return ErrNoKinds
	}
	if cfg.QuestionCount < 1 || cfg.QuestionCount > m.maxQuestions {
		return ErrQuestionCount
	}
	if !model.ValidTimer(cfg.TimerMinutes) {
		return ErrTimer
	}
	return nil
}

// CompleteStart applies the result of the fetch started by t. An empty list
// counts as a generation failure. Results for an abandoned ticket return ErrStale.
func (m *Machine) CompleteStart(t StartTicket, questions []model.Question, fetchErr error) error {
	c, ok := m.screen.(*configuring)
	if !ok || !c.loading || c.gen != t.gen {
		return ErrStale
	}
	c.loading = false

	if fetchErr == nil && len(questions) == 0 {
		fetchErr = &provider.GenerationError{Reason: provider.ErrNoQuestions}
	}
	if fetchErr != nil {
		c.errMsg = provider.UserMessage(fetchErr)
		return fmt.Errorf("%w: %w", ErrGeneration, fetchErr)
	}

	if len(questions) > t.Config.QuestionCount {
		questions = questions[:t.Config.QuestionCount]
	}
	qs := make([]model.Question, len(questions))
	for i, q := range questions {
		qs[i] = q.Normalize()
	}

	m.screen = &inQuiz{s: newSession(t.gen, qs, t.Config.FileNames(), t.Config.TimerMinutes)}
	return nil
}

// Start validates cfg, fetches questions and enters the quiz.
func (m *Machine) Start(ctx context.Context, cfg model.QuizConfig) error {
	t, err := m.BeginStart(cfg)
	if err != nil {
		return err
	}
	questions, err := m.provider.FetchQuestions(ctx, cfg.Documents, cfg.QuestionCount, cfg.Kinds)
	return m.CompleteStart(t, questions, err)
}

// PendingEvaluation is an open-ended answer awaiting the provider's judgement.
type PendingEvaluation struct {
	gen       uint64
	Index     int
	Question  string
	Reference string
	Answer    string
}

// BeginSubmit records answer for the current question. Choice and fill-in
// answers are judged immediately and nil is returned; open-ended answers mark
// the session busy and return the evaluation to perform.
func (m *Machine) BeginSubmit(answer string) (*PendingEvaluation, error) {
	q, ok := m.screen.(*inQuiz)
	if !ok {
		return nil, ErrIllegalTransition
	}
	s := q.s
	if s.busy {
		return nil, ErrBusy
	}
	if s.answers[s.index] != nil {
		return nil, ErrAlreadyAnswered
	}

	a := answer
	s.answers[s.index] = &a

	cur := s.current()
	if cur.Kind != model.KindOpenEnded {
		o := EvaluateLocally(cur, answer)
		s.outcomes[s.index] = &o
		return nil, nil
	}

	s.busy = true
	return &PendingEvaluation{
		gen:       s.gen,
		Index:     s.index,
		Question:  cur.Text,
		Reference: cur.ReferenceAnswer,
		Answer:    answer,
	}, nil
}

// CompleteEvaluation records the provider's outcome for p. If the session p
// belongs to is no longer active the outcome is discarded with ErrStale.
func (m *Machine) CompleteEvaluation(p PendingEvaluation, o model.EvaluationOutcome) error {
	q, ok := m.screen.(*inQuiz)
	if !ok || q.s.gen != p.gen {
		return ErrStale
	}
	if o.ReferenceAnswer == "" {
		o.ReferenceAnswer = p.Reference
	}
	q.s.outcomes[p.Index] = &o
	q.s.busy = false
	return nil
}

// Submit records and evaluates answer, calling the provider inline for
// open-ended questions.
func (m *Machine) Submit(ctx context.Context, answer string) error {
	p, err := m.BeginSubmit(answer)
	if err != nil || p == nil {
		return err
	}
	o := m.provider.EvaluateOpenEnded(ctx, p.Question, p.Reference, p.Answer)
	return m.CompleteEvaluation(*p, o)
}

// Next advances to the next question, or finishes the quiz at the last one.
func (m *Machine) Next(ctx context.Context) error {
	q, ok := m.screen.(*inQuiz)
	if !ok {
		return ErrIllegalTransition
	}
	if !q.s.last() {
		q.s.index++
		return nil
	}
	m.finish(ctx, q.s, false)
	return nil
}

// Previous moves back one question. It is a no-op on the first question.
func (m *Machine) Previous() error {
	q, ok := m.screen.(*inQuiz)
	if !ok {
		return ErrIllegalTransition
	}
	if q.s.index > 0 {
		q.s.index--
	}
	return nil
}

// Tick decrements the countdown by one second and forces the finish when it
// reaches zero. It reports whether this tick finished the quiz.
func (m *Machine) Tick(ctx context.Context) bool {
	q, ok := m.screen.(*inQuiz)
	if !ok || q.s.remaining == nil {
		return false
	}
	if *q.s.remaining > 0 {
		*q.s.remaining--
	}
	if *q.s.remaining > 0 {
		return false
	}
	m.finish(ctx, q.s, true)
	return true
}

func (m *Machine) finish(ctx context.Context, s *Session, timedOut bool) {
	now := m.clock()
	id := now.UnixMilli()
	if last := m.history.LastID(); id <= last {
		id = last + 1
	}

	questions := make([]model.Question, len(s.questions))
	copy(questions, s.questions)
	answers := make([]*string, len(s.answers))
	copy(answers, s.answers)
	outcomes := make([]*model.EvaluationOutcome, len(s.outcomes))
	copy(outcomes, s.outcomes)

	cq := model.CompletedQuiz{
		ID:                id,
		FileNames:         s.fileNames,
		Date:              now.Format(model.DateLayout),
		Score:             s.score(),
		TotalQuestions:    len(questions),
		Questions:         questions,
		UserAnswers:       answers,
		EvaluationResults: outcomes,
		Timer:             s.timer,
	}

	m.history = m.history.Append(cq)
	if m.writer != nil {
		if err := m.writer.SaveHistory(ctx, m.history); err != nil {
			m.log.Error().Err(err).Int64("quiz_id", id).Msg("Failed to persist history")
		}
	}

	m.screen = &showingResults{quiz: cq, timedOut: timedOut}

	m.log.Info().
		Int64("quiz_id", id).
		Int("score", cq.Score).
		Int("total", cq.TotalQuestions).
		Bool("timed_out", timedOut).
		Msg("Quiz finished")

	if m.onFinish != nil {
		m.onFinish(cq, timedOut)
	}
}

// Restart returns to CONFIGURING from any state, abandoning an active session
// or pending fetch without saving it.
func (m *Machine) Restart() {
	m.gen++
	m.screen = &configuring{}
}

// ViewHistory opens the history list.
func (m *Machine) ViewHistory() error {
	c, ok := m.screen.(*configuring)
	if !ok {
		return ErrIllegalTransition
	}
	if c.loading {
		return ErrBusy
	}
	m.screen = &showingHistory{}
	return nil
}

// Review opens a completed quiz from the history list.
func (m *Machine) Review(id int64) error {
	if _, ok := m.screen.(*showingHistory); !ok {
		return ErrIllegalTransition
	}
	q, ok := m.history.Find(id)
	if !ok {
		return ErrQuizNotFound
	}
	m.screen = &reviewing{quiz: q}
	return nil
}

// ExitHistory leaves the history list or a review.
func (m *Machine) ExitHistory() error {
	switch m.screen.(type) {
	case *showingHistory, *reviewing:
		m.screen = &configuring{}
		return nil
	default:
		return ErrIllegalTransition
	}
}
