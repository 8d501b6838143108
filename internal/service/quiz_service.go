package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stemsi/quizgen/internal/history"
	"github.com/stemsi/quizgen/internal/model"
	"github.com/stemsi/quizgen/internal/provider"
	"github.com/stemsi/quizgen/internal/quiz"
)

const (
	subscriberBuffer = 16
	enqueueTimeout   = 3 * time.Second
)

// ResultPublisher receives a summary of every finished quiz.
type ResultPublisher interface {
	Enqueue(ctx context.Context, rec model.ResultRecord) error
}

// QuizService hosts one quiz state machine per client and serializes the
// operations of each client. Provider calls run outside the client lock.
type QuizService struct {
	provider  provider.Provider
	histories *history.Repository
	results   ResultPublisher
	cfg       *config.Config
	log       zerolog.Logger

	tick  time.Duration
	clock func() time.Time

	mu      sync.Mutex
	clients map[string]*clientSession
}

type clientSession struct {
	mu        sync.Mutex
	machine   *quiz.Machine
	stopTimer context.CancelFunc
	subs      map[chan quiz.View]struct{}
	lastSeen  time.Time

	// historyStale is set while the stored history could not be read.
	// Writes are held back until a read succeeds.
	historyStale bool
}

// QuizServiceOption customizes a QuizService.
type QuizServiceOption func(*QuizService)

// WithTickInterval overrides the one-second countdown interval.
func WithTickInterval(d time.Duration) QuizServiceOption {
	return func(s *QuizService) { s.tick = d }
}

// WithClock overrides the wall clock used for quiz ids and dates.
func WithClock(clock func() time.Time) QuizServiceOption {
	return func(s *QuizService) { s.clock = clock }
}

// NewQuizService creates a QuizService. results may be nil when the archive is off.
func NewQuizService(
	p provider.Provider,
	histories *history.Repository,
	results ResultPublisher,
	cfg *config.Config,
	log zerolog.Logger,
	opts ...QuizServiceOption,
) *QuizService {
	s := &QuizService{
		provider:  p,
		histories: histories,
		results:   results,
		cfg:       cfg,
		log:       log.With().Str("component", "quiz_service").Logger(),
		tick:      time.Second,
		clock:     time.Now,
		clients:   make(map[string]*clientSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ────────────────────────────────────────────────────────────────────────────
// Operations
// ────────────────────────────────────────────────────────────────────────────

// Snapshot returns the client's current view.
func (s *QuizService) Snapshot(ctx context.Context, clientID string) quiz.View {
	cs := s.session(ctx, clientID)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.lastSeen = s.clock()
	return cs.machine.Snapshot()
}

// Start validates cfg, asks the provider for questions and enters the quiz.
// The client lock is released while the provider works so that restart and
// snapshot requests are served; a restart abandons the fetch.
func (s *QuizService) Start(ctx context.Context, clientID string, cfg model.QuizConfig) (quiz.View, error) {
	cs := s.session(ctx, clientID)

	cs.mu.Lock()
	ticket, err := cs.machine.BeginStart(cfg)
	v := cs.snapshot(s.clock())
	cs.mu.Unlock()
	if err != nil {
		return v, err
	}

	start := time.Now()
	questions, fetchErr := s.provider.FetchQuestions(context.WithoutCancel(ctx), cfg.Documents, cfg.QuestionCount, cfg.Kinds)

	cs.mu.Lock()
	defer cs.mu.Unlock()

	err = cs.machine.CompleteStart(ticket, questions, fetchErr)
	switch {
	case err == nil:
		s.startCountdown(cs)
		s.log.Info().
			Str("client_id", clientID).
			Int("questions", len(questions)).
			Int("documents", len(cfg.Documents)).
			Dur("took", time.Since(start)).
			Msg("Quiz started")
	case errors.Is(err, quiz.ErrStale):
		s.log.Debug().Str("client_id", clientID).Msg("Discarding questions for abandoned start")
	default:
		s.log.Warn().Err(err).Str("client_id", clientID).Msg("Quiz generation failed")
	}

	return cs.snapshot(s.clock()), err
}

// Answer submits an answer to the current question. Open-ended answers are
// judged by the provider; a judgement that arrives after the session ended is
// dropped.
func (s *QuizService) Answer(ctx context.Context, clientID, answer string) (quiz.View, error) {
	cs := s.session(ctx, clientID)

	cs.mu.Lock()
	pending, err := cs.machine.BeginSubmit(answer)
	v := cs.snapshot(s.clock())
	cs.mu.Unlock()
	if err != nil || pending == nil {
		return v, err
	}

	outcome := s.provider.EvaluateOpenEnded(context.WithoutCancel(ctx), pending.Question, pending.Reference, pending.Answer)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if err := cs.machine.CompleteEvaluation(*pending, outcome); err != nil {
		s.log.Debug().Err(err).Str("client_id", clientID).Msg("Discarding late evaluation")
	}
	return cs.snapshot(s.clock()), nil
}

// Next moves forward, finishing the quiz on the last question.
func (s *QuizService) Next(ctx context.Context, clientID string) (quiz.View, error) {
	return s.do(ctx, clientID, func(m *quiz.Machine) error {
		return m.Next(context.WithoutCancel(ctx))
	})
}

// Previous moves back one question.
func (s *QuizService) Previous(ctx context.Context, clientID string) (quiz.View, error) {
	return s.do(ctx, clientID, (*quiz.Machine).Previous)
}

// Restart returns to configuration from any screen.
func (s *QuizService) Restart(ctx context.Context, clientID string) (quiz.View, error) {
	cs := s.session(ctx, clientID)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.stopCountdown()
	cs.machine.Restart()
	return cs.snapshot(s.clock()), nil
}

// OpenHistory shows the history list.
func (s *QuizService) OpenHistory(ctx context.Context, clientID string) (quiz.View, error) {
	return s.do(ctx, clientID, (*quiz.Machine).ViewHistory)
}

// Review opens one completed quiz from the history list.
func (s *QuizService) Review(ctx context.Context, clientID string, quizID int64) (quiz.View, error) {
	return s.do(ctx, clientID, func(m *quiz.Machine) error { return m.Review(quizID) })
}

// ExitHistory leaves the history list or a review.
func (s *QuizService) ExitHistory(ctx context.Context, clientID string) (quiz.View, error) {
	return s.do(ctx, clientID, (*quiz.Machine).ExitHistory)
}

// History returns the client's completed quizzes, newest first, without
// changing the screen.
func (s *QuizService) History(ctx context.Context, clientID string) history.History {
	cs := s.session(ctx, clientID)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	h := cs.machine.History()
	out := make(history.History, len(h))
	for i := range h {
		out[len(h)-1-i] = h[i]
	}
	return out
}

// Subscribe streams the client's view after every change, starting with the
// current one. The returned func unsubscribes and closes the channel.
func (s *QuizService) Subscribe(ctx context.Context, clientID string) (<-chan quiz.View, func()) {
	cs := s.session(ctx, clientID)
	ch := make(chan quiz.View, subscriberBuffer)

	cs.mu.Lock()
	cs.subs[ch] = struct{}{}
	ch <- cs.machine.Snapshot()
	cs.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			cs.mu.Lock()
			if _, ok := cs.subs[ch]; ok {
				delete(cs.subs, ch)
				close(ch)
			}
			cs.mu.Unlock()
		})
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ────────────────────────────────────────────────────────────────────────────

// RunJanitor evicts clients idle for longer than idle until ctx is cancelled.
func (s *QuizService) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Evict(idle); n > 0 {
				s.log.Debug().Int("evicted", n).Msg("Evicted idle clients")
			}
		}
	}
}

// Evict drops clients idle for longer than idle that have no subscriber and no
// running countdown. Their history stays in the store. Clients holding quizzes
// that could not be written yet are kept.
func (s *QuizService) Evict(idle time.Duration) int {
	cutoff := s.clock().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, cs := range s.clients {
		cs.mu.Lock()
		evict := cs.lastSeen.Before(cutoff) && len(cs.subs) == 0 && cs.stopTimer == nil && !cs.historyStale
		cs.mu.Unlock()
		if evict {
			delete(s.clients, id)
			n++
		}
	}
	return n
}

// Shutdown stops every countdown and closes every subscription.
func (s *QuizService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cs := range s.clients {
		cs.mu.Lock()
		cs.stopCountdown()
		for ch := range cs.subs {
			delete(cs.subs, ch)
			close(ch)
		}
		cs.mu.Unlock()
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func (s *QuizService) do(ctx context.Context, clientID string, fn func(*quiz.Machine) error) (quiz.View, error) {
	cs := s.session(ctx, clientID)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	err := fn(cs.machine)
	return cs.snapshot(s.clock()), err
}

// session returns the client's session, loading its history on first use.
func (s *QuizService) session(ctx context.Context, clientID string) *clientSession {
	s.mu.Lock()
	cs, ok := s.clients[clientID]
	s.mu.Unlock()
	if ok {
		s.recoverHistory(ctx, clientID, cs)
		return cs
	}

	h, loadErr := s.histories.Load(ctx, config.CacheKey.HistoryKey(clientID))

	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.clients[clientID]; ok {
		return cs
	}

	cs = &clientSession{
		subs:         make(map[chan quiz.View]struct{}),
		lastSeen:     s.clock(),
		historyStale: loadErr != nil,
	}
	cs.machine = quiz.NewMachine(s.provider, h, s.historyWriter(clientID, cs), quiz.Options{
		MaxQuestions: s.cfg.MaxQuestions,
		Clock:        s.clock,
		OnFinish:     s.onFinish(clientID, cs),
		Logger:       s.log.With().Str("client_id", clientID).Logger(),
	})
	s.clients[clientID] = cs
	return cs
}

// recoverHistory retries the load for a session whose history could not be
// read. Quizzes finished in the meantime are merged after the stored ones and
// written back.
func (s *QuizService) recoverHistory(ctx context.Context, clientID string, cs *clientSession) {
	cs.mu.Lock()
	stale := cs.historyStale
	cs.mu.Unlock()
	if !stale {
		return
	}

	key := config.CacheKey.HistoryKey(clientID)
	stored, err := s.histories.Load(ctx, key)
	if err != nil {
		return
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if !cs.historyStale {
		return
	}
	merged := stored.Merge(cs.machine.History())
	cs.machine.ReplaceHistory(merged)
	cs.historyStale = false

	if len(merged) > len(stored) {
		if err := s.histories.Save(ctx, key, merged); err != nil {
			s.log.Error().Err(err).Str("client_id", clientID).Msg("Failed to persist recovered history")
		}
	}
	s.log.Info().Str("client_id", clientID).Int("quizzes", len(merged)).Msg("History recovered")
}

// historyWriter runs under the client lock.
func (s *QuizService) historyWriter(clientID string, cs *clientSession) quiz.HistoryWriter {
	key := config.CacheKey.HistoryKey(clientID)
	return quiz.HistoryWriterFunc(func(ctx context.Context, h history.History) error {
		if cs.historyStale {
			return fmt.Errorf("%w: write held until the stored history is read", history.ErrUnavailable)
		}
		return s.histories.Save(ctx, key, h)
	})
}

// onFinish runs under the client lock.
func (s *QuizService) onFinish(clientID string, cs *clientSession) quiz.FinishFunc {
	return func(q model.CompletedQuiz, timedOut bool) {
		cs.stopCountdown()

		if s.results == nil {
			return
		}
		rec := model.ResultRecord{
			ClientID:       clientID,
			QuizID:         q.ID,
			Score:          q.Score,
			TotalQuestions: q.TotalQuestions,
			DocumentCount:  len(q.FileNames),
			TimerMinutes:   q.Timer,
			TimedOut:       timedOut,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
			defer cancel()
			if err := s.results.Enqueue(ctx, rec); err != nil {
				s.log.Warn().Err(err).Str("client_id", clientID).Int64("quiz_id", rec.QuizID).Msg("Failed to queue result")
			}
		}()
	}
}

// startCountdown runs under the client lock.
func (s *QuizService) startCountdown(cs *clientSession) {
	cs.stopCountdown()
	if _, running := cs.machine.Remaining(); !running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	cs.stopTimer = cancel

	go quiz.RunCountdown(ctx, s.tick, func() bool {
		cs.mu.Lock()
		defer cs.mu.Unlock()
		if ctx.Err() != nil {
			return true
		}
		finished := cs.machine.Tick(ctx)
		cs.publish(cs.machine.Snapshot())
		_, running := cs.machine.Remaining()
		return finished || !running
	})
}

// snapshot records activity and pushes the view to subscribers.
func (cs *clientSession) snapshot(now time.Time) quiz.View {
	cs.lastSeen = now
	v := cs.machine.Snapshot()
	cs.publish(v)
	return v
}

// publish never blocks; a slow subscriber loses its oldest pending view.
func (cs *clientSession) publish(v quiz.View) {
	for ch := range cs.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

func (cs *clientSession) stopCountdown() {
	if cs.stopTimer != nil {
		cs.stopTimer()
		cs.stopTimer = nil
	}
}

// ActiveClients reports how many clients are held in memory.
func (s *QuizService) ActiveClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
