package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/stemsi/quizgen/internal/history"
	"github.com/stemsi/quizgen/internal/model"
	"github.com/stemsi/quizgen/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine(p *fakeProvider, w *recordingWriter) *Machine {
	return NewMachine(p, nil, w, Options{Clock: fixedClock()})
}

func startedMachine(t *testing.T, timer *int) (*Machine, *fakeProvider, *recordingWriter) {
	t.Helper()
	p := &fakeProvider{questions: sampleQuestions()}
	w := &recordingWriter{}
	m := newTestMachine(p, w)
	require.NoError(t, m.Start(context.Background(), sampleConfig(timer)))
	require.Equal(t, model.StateInQuiz, m.State())
	return m, p, w
}

func TestStartRejectsMissingInput(t *testing.T) {
	cases := []struct {
		name string
		cfg  model.QuizConfig
		err  error
	}{
		{"no documents", model.QuizConfig{QuestionCount: 5, Kinds: model.AllKinds}, ErrNoDocuments},
		{"no kinds", model.QuizConfig{Documents: sampleConfig(nil).Documents, QuestionCount: 5}, ErrNoKinds},
		{"nothing", model.QuizConfig{}, ErrNoDocuments},
		{"count too large", model.QuizConfig{Documents: sampleConfig(nil).Documents, QuestionCount: 21, Kinds: model.AllKinds}, ErrQuestionCount},
		{"odd timer", model.QuizConfig{Documents: sampleConfig(nil).Documents, QuestionCount: 3, Kinds: model.AllKinds, TimerMinutes: intPtr(7)}, ErrTimer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakeProvider{questions: sampleQuestions()}
			m := newTestMachine(p, &recordingWriter{})

			err := m.Start(context.Background(), tc.cfg)
			require.ErrorIs(t, err, tc.err)

			v := m.Snapshot()
			assert.Equal(t, model.StateConfiguring, v.State)
			assert.NotEmpty(t, v.Error)
			assert.False(t, v.Loading)
			assert.Nil(t, v.Quiz)
			assert.Empty(t, m.History())
		})
	}
}

func TestStartGenerationFailureStaysConfiguring(t *testing.T) {
	for name, p := range map[string]*fakeProvider{
		"empty":       {questions: nil},
		"unparseable": {fetchErr: &provider.GenerationError{Reason: provider.ErrUnparseable}},
		"upstream":    {fetchErr: errors.New("boom")},
	} {
		t.Run(name, func(t *testing.T) {
			m := newTestMachine(p, &recordingWriter{})
			err := m.Start(context.Background(), sampleConfig(nil))
			require.ErrorIs(t, err, ErrGeneration)
			assert.Equal(t, model.StateConfiguring, m.State())
			assert.Equal(t, provider.UserMessage(err), m.Snapshot().Error)
		})
	}
}

func TestStartCreatesEmptySlots(t *testing.T) {
	m, _, _ := startedMachine(t, nil)

	sc := m.screen.(*inQuiz)
	require.Len(t, sc.s.answers, 4)
	require.Len(t, sc.s.outcomes, 4)
	for i := range sc.s.answers {
		assert.Nil(t, sc.s.answers[i])
		assert.Nil(t, sc.s.outcomes[i])
	}

	v := m.Snapshot()
	assert.Equal(t, 1, v.Quiz.Number)
	assert.Equal(t, 4, v.Quiz.Total)
	assert.Nil(t, v.Quiz.RemainingSeconds)
	assert.Equal(t, []string{"lesson.pdf"}, v.Quiz.FileNames)

	_, running := m.Remaining()
	assert.False(t, running)
}

func TestStartTruncatesToRequestedCount(t *testing.T) {
	p := &fakeProvider{questions: sampleQuestions()}
	m := newTestMachine(p, &recordingWriter{})
	cfg := sampleConfig(nil)
	cfg.QuestionCount = 2

	require.NoError(t, m.Start(context.Background(), cfg))
	assert.Equal(t, 2, m.Snapshot().Quiz.Total)
}

func TestSubmitLocalEvaluation(t *testing.T) {
	m, p, _ := startedMachine(t, nil)
	ctx := context.Background()

	require.NoError(t, m.Submit(ctx, "  القاهرة "))
	v := m.Snapshot()
	require.NotNil(t, v.Quiz.Outcome)
	assert.True(t, v.Quiz.Outcome.IsCorrect)
	assert.Equal(t, "القاهرة", v.Quiz.Outcome.ReferenceAnswer)
	assert.Nil(t, v.Quiz.Outcome.Feedback)

	require.ErrorIs(t, m.Submit(ctx, "أسوان"), ErrAlreadyAnswered)
	assert.True(t, m.Snapshot().Quiz.Outcome.IsCorrect)

	require.NoError(t, m.Next(ctx))
	require.NoError(t, m.Submit(ctx, " خطأ "))
	assert.True(t, m.Snapshot().Quiz.Outcome.IsCorrect)

	require.NoError(t, m.Next(ctx))
	require.NoError(t, m.Submit(ctx, "الهيدروجين"))
	assert.False(t, m.Snapshot().Quiz.Outcome.IsCorrect)

	assert.Zero(t, p.evalCalls)
}

func TestSubmitOpenEndedUsesProvider(t *testing.T) {
	m, p, _ := startedMachine(t, nil)
	ctx := context.Background()
	p.outcome = model.NewOutcome(true, "", "إجابة جيدة")

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Next(ctx))
	}
	require.NoError(t, m.Submit(ctx, "لأن الأرض تدور"))

	v := m.Snapshot()
	assert.Equal(t, 1, p.evalCalls)
	assert.True(t, v.Quiz.Outcome.IsCorrect)
	assert.Equal(t, "دوران الأرض حول محورها.", v.Quiz.Outcome.ReferenceAnswer)
	assert.Equal(t, "إجابة جيدة", v.Quiz.Outcome.FeedbackText())
	assert.False(t, v.Quiz.Evaluating)
}

func TestSubmitOpenEndedFailureDegrades(t *testing.T) {
	m, p, _ := startedMachine(t, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, m.Next(ctx))
	}

	require.NoError(t, m.Submit(ctx, "لا أعرف"))
	o := m.Snapshot().Quiz.Outcome
	require.NotNil(t, o)
	assert.False(t, o.IsCorrect)
	assert.Equal(t, provider.EvaluationFailureFeedback, o.FeedbackText())
	assert.Equal(t, "دوران الأرض حول محورها.", o.ReferenceAnswer)
	assert.Equal(t, 1, p.evalCalls)
}

func TestBusyBlocksResubmission(t *testing.T) {
	m, _, _ := startedMachine(t, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, m.Next(ctx))
	}

	pending, err := m.BeginSubmit("جواب")
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.True(t, m.Snapshot().Quiz.Evaluating)

	_, err = m.BeginSubmit("جواب آخر")
	require.ErrorIs(t, err, ErrBusy)

	require.NoError(t, m.CompleteEvaluation(*pending, model.NewOutcome(true, "", "")))
	assert.False(t, m.Snapshot().Quiz.Evaluating)
}

func TestLateEvaluationIsDiscarded(t *testing.T) {
	t.Run("after restart", func(t *testing.T) {
		m, _, _ := startedMachine(t, nil)
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			require.NoError(t, m.Next(ctx))
		}
		pending, err := m.BeginSubmit("جواب")
		require.NoError(t, err)

		m.Restart()
		require.ErrorIs(t, m.CompleteEvaluation(*pending, model.NewOutcome(true, "", "")), ErrStale)
		assert.Equal(t, model.StateConfiguring, m.State())
	})

	t.Run("after timeout", func(t *testing.T) {
		m, _, w := startedMachine(t, intPtr(5))
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			require.NoError(t, m.Next(ctx))
		}
		pending, err := m.BeginSubmit("جواب")
		require.NoError(t, err)

		for i := 0; i < 300; i++ {
			m.Tick(ctx)
		}
		require.Equal(t, model.StateResults, m.State())
		require.ErrorIs(t, m.CompleteEvaluation(*pending, model.NewOutcome(true, "", "")), ErrStale)

		saved := m.History()[0]
		assert.Nil(t, saved.EvaluationResults[3])
		assert.Equal(t, 0, saved.Score)
		assert.Len(t, w.saves, 1)
	})

	t.Run("new session", func(t *testing.T) {
		m, _, _ := startedMachine(t, nil)
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			require.NoError(t, m.Next(ctx))
		}
		pending, err := m.BeginSubmit("جواب")
		require.NoError(t, err)

		m.Restart()
		require.NoError(t, m.Start(ctx, sampleConfig(nil)))
		require.ErrorIs(t, m.CompleteEvaluation(*pending, model.NewOutcome(true, "", "")), ErrStale)
		assert.Nil(t, m.screen.(*inQuiz).s.outcomes[3])
	})
}

func TestNavigationBounds(t *testing.T) {
	m, _, w := startedMachine(t, nil)
	ctx := context.Background()

	require.NoError(t, m.Previous())
	assert.Equal(t, 1, m.Snapshot().Quiz.Number)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Next(ctx))
	}
	assert.Equal(t, 4, m.Snapshot().Quiz.Number)

	require.NoError(t, m.Previous())
	assert.Equal(t, 3, m.Snapshot().Quiz.Number)
	require.NoError(t, m.Next(ctx))

	require.NoError(t, m.Next(ctx))
	assert.Equal(t, model.StateResults, m.State())
	assert.Len(t, m.History(), 1)
	assert.Len(t, w.saves, 1)

	require.ErrorIs(t, m.Next(ctx), ErrIllegalTransition)
	require.ErrorIs(t, m.Previous(), ErrIllegalTransition)
}

func TestScoreIndependentOfOrder(t *testing.T) {
	ctx := context.Background()

	answerInOrder := func(order []int) int {
		p := &fakeProvider{questions: sampleQuestions(), outcome: model.NewOutcome(true, "", "")}
		m := newTestMachine(p, &recordingWriter{})
		require.NoError(t, m.Start(ctx, sampleConfig(nil)))
		answers := []string{"القاهرة", "صحيح", "الأكسجين", "دوران"}

		for _, idx := range order {
			sc := m.screen.(*inQuiz)
			for sc.s.index < idx {
				require.NoError(t, m.Next(ctx))
			}
			for sc.s.index > idx {
				require.NoError(t, m.Previous())
			}
			require.NoError(t, m.Submit(ctx, answers[idx]))
		}
		for m.State() == model.StateInQuiz {
			require.NoError(t, m.Next(ctx))
		}
		return m.Snapshot().Results.Score
	}

	first := answerInOrder([]int{0, 1, 2, 3})
	second := answerInOrder([]int{3, 1, 0, 2})
	assert.Equal(t, 3, first)
	assert.Equal(t, first, second)
}

func TestCountdownForcesFinishOnce(t *testing.T) {
	finished := 0
	p := &fakeProvider{questions: sampleQuestions()}
	w := &recordingWriter{}
	m := NewMachine(p, nil, w, Options{
		Clock:    fixedClock(),
		OnFinish: func(model.CompletedQuiz, bool) { finished++ },
	})
	ctx := context.Background()
	require.NoError(t, m.Start(ctx, sampleConfig(intPtr(5))))

	remaining, running := m.Remaining()
	require.True(t, running)
	require.Equal(t, 300, remaining)

	for i := 0; i < 299; i++ {
		require.False(t, m.Tick(ctx))
	}
	assert.Equal(t, model.StateInQuiz, m.State())
	assert.Equal(t, 1, *m.Snapshot().Quiz.RemainingSeconds)

	require.True(t, m.Tick(ctx))
	for i := 0; i < 10; i++ {
		require.False(t, m.Tick(ctx))
	}

	v := m.Snapshot()
	assert.Equal(t, model.StateResults, v.State)
	assert.True(t, v.Results.TimedOut)
	assert.Equal(t, 0, v.Results.Score)
	assert.Equal(t, 1, finished)
	assert.Len(t, w.saves, 1)
	assert.Equal(t, 5, *m.History()[0].Timer)
}

func TestTickWithoutTimerIsNoop(t *testing.T) {
	m, _, _ := startedMachine(t, nil)
	for i := 0; i < 1000; i++ {
		assert.False(t, m.Tick(context.Background()))
	}
	assert.Equal(t, model.StateInQuiz, m.State())
}

func TestFinishPersistsDespiteWriteFailure(t *testing.T) {
	p := &fakeProvider{questions: sampleQuestions()}
	w := &recordingWriter{err: errWrite}
	m := newTestMachine(p, w)
	ctx := context.Background()
	require.NoError(t, m.Start(ctx, sampleConfig(nil)))
	require.NoError(t, m.Submit(ctx, "القاهرة"))

	for m.State() == model.StateInQuiz {
		require.NoError(t, m.Next(ctx))
	}

	v := m.Snapshot()
	assert.Equal(t, model.StateResults, v.State)
	assert.Equal(t, 1, v.Results.Score)
	assert.Equal(t, 25, v.Results.Percentage)
	assert.Len(t, m.History(), 1)
}

func TestCompletedQuizSnapshot(t *testing.T) {
	m, _, _ := startedMachine(t, intPtr(15))
	ctx := context.Background()
	require.NoError(t, m.Submit(ctx, "القاهرة"))
	require.NoError(t, m.Next(ctx))
	require.NoError(t, m.Submit(ctx, "صحيح"))
	for m.State() == model.StateInQuiz {
		require.NoError(t, m.Next(ctx))
	}

	q := m.History()[0]
	assert.Equal(t, fixedClock()().UnixMilli(), q.ID)
	assert.Equal(t, "2026/03/01 10:00:00", q.Date)
	assert.Equal(t, 1, q.Score)
	assert.Equal(t, 4, q.TotalQuestions)
	assert.Equal(t, []string{"lesson.pdf"}, q.FileNames)
	require.NotNil(t, q.UserAnswers[0])
	assert.Equal(t, "القاهرة", *q.UserAnswers[0])
	assert.Nil(t, q.UserAnswers[2])
	assert.False(t, q.EvaluationResults[1].IsCorrect)
	assert.Equal(t, 15, *q.Timer)
	assert.True(t, q.Valid())
}

func TestIDsStayUniqueWithinSameMillisecond(t *testing.T) {
	p := &fakeProvider{questions: sampleQuestions()[:1]}
	m := newTestMachine(p, &recordingWriter{})
	ctx := context.Background()
	cfg := sampleConfig(nil)
	cfg.QuestionCount = 1

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Start(ctx, cfg))
		require.NoError(t, m.Next(ctx))
		m.Restart()
	}

	h := m.History()
	require.Len(t, h, 3)
	assert.Equal(t, h[0].ID+1, h[1].ID)
	assert.Equal(t, h[1].ID+1, h[2].ID)
}

func TestHistoryTransitions(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{questions: sampleQuestions()}
	existing := history.History{{
		ID: 42, FileNames: []string{"old.pdf"}, Date: "2025/01/01 00:00:00", Score: 1, TotalQuestions: 1,
		Questions:         sampleQuestions()[:1],
		UserAnswers:       []*string{nil},
		EvaluationResults: []*model.EvaluationOutcome{nil},
	}}
	m := NewMachine(p, existing, &recordingWriter{}, Options{Clock: fixedClock()})

	require.ErrorIs(t, m.Review(42), ErrIllegalTransition)
	require.ErrorIs(t, m.ExitHistory(), ErrIllegalTransition)

	require.NoError(t, m.ViewHistory())
	v := m.Snapshot()
	assert.Equal(t, model.StateHistory, v.State)
	require.Len(t, v.History, 1)
	assert.Equal(t, int64(42), v.History[0].ID)

	require.ErrorIs(t, m.Review(7), ErrQuizNotFound)
	assert.Equal(t, model.StateHistory, m.State())

	require.NoError(t, m.Review(42))
	v = m.Snapshot()
	assert.Equal(t, model.StateReview, v.State)
	require.NotNil(t, v.Review)
	assert.Equal(t, []string{"old.pdf"}, v.Review.FileNames)

	require.NoError(t, m.ExitHistory())
	assert.Equal(t, model.StateConfiguring, m.State())

	require.NoError(t, m.Start(ctx, sampleConfig(nil)))
	require.ErrorIs(t, m.ViewHistory(), ErrIllegalTransition)
}

func TestRestartClearsSession(t *testing.T) {
	m, _, _ := startedMachine(t, intPtr(5))
	ctx := context.Background()
	for m.State() == model.StateInQuiz {
		require.NoError(t, m.Next(ctx))
	}

	m.Restart()
	v := m.Snapshot()
	assert.Equal(t, model.StateConfiguring, v.State)
	assert.Empty(t, v.Error)
	assert.Nil(t, v.Quiz)
	assert.Nil(t, v.Results)
	_, running := m.Remaining()
	assert.False(t, running)
	assert.Len(t, m.History(), 1)
}

func TestStaleFetchAfterRestart(t *testing.T) {
	m := newTestMachine(&fakeProvider{}, &recordingWriter{})

	ticket, err := m.BeginStart(sampleConfig(nil))
	require.NoError(t, err)
	assert.True(t, m.Snapshot().Loading)

	_, err = m.BeginStart(sampleConfig(nil))
	require.ErrorIs(t, err, ErrBusy)

	m.Restart()
	require.ErrorIs(t, m.CompleteStart(ticket, sampleQuestions(), nil), ErrStale)
	assert.Equal(t, model.StateConfiguring, m.State())
	assert.False(t, m.Snapshot().Loading)
}
