package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/polytech/coursedesk/internal/gateway"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/polytech/coursedesk/internal/testrun"
	"github.com/rs/zerolog"
)

// Attempt errors.
var (
	ErrAttemptNotFound      = errors.New("no attempt in progress")
	ErrAlreadyTaken         = errors.New("test already has a result")
	ErrQuestionsUnavailable = errors.New("test questions could not be loaded")
)

// NavigateRequest moves inside an attempt. Direction is next, prev or jump.
type NavigateRequest struct {
	Direction string `json:"direction" binding:"required,oneof=next prev jump"`
	Index     int    `json:"index" binding:"min=0"`
}

// SelectRequest records a choice.
type SelectRequest struct {
	QuestionID model.ID `json:"questionId" binding:"required"`
	AnswerID   model.ID `json:"answerId" binding:"required"`
}

// ResultGrace is how long a finished attempt stays readable before it is
// evicted.
const ResultGrace = 10 * time.Minute

type attemptKey struct {
	sessionID string
	testID    model.ID
}

type attemptEntry struct {
	attempt    *testrun.Attempt
	expiresAt  time.Time
	finishedAt time.Time
}

// stale reports whether the entry outlived its session or its result grace.
func (e *attemptEntry) stale(now time.Time) bool {
	if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
		return true
	}
	return !e.finishedAt.IsZero() && now.Sub(e.finishedAt) >= ResultGrace
}

// AttemptService runs timed test attempts, one per session and test.
type AttemptService struct {
	api      *gateway.Client
	limit    time.Duration
	interval time.Duration
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	attempts map[attemptKey]*attemptEntry
}

// NewAttemptService creates a new AttemptService. Attempts of a session are
// torn down when the bus reports it signed out or expired.
func NewAttemptService(api *gateway.Client, bus *session.Bus, limit time.Duration, log zerolog.Logger) *AttemptService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &AttemptService{
		api:      api,
		limit:    limit,
		interval: time.Second,
		log:      log.With().Str("component", "attempt_service").Logger(),
		ctx:      ctx,
		cancel:   cancel,
		attempts: make(map[attemptKey]*attemptEntry),
	}
	bus.Subscribe(s.onSessionEvent)
	return s
}

func (s *AttemptService) onSessionEvent(ev session.Event) {
	if !ev.Ends() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for k, e := range s.attempts {
		if k.sessionID == ev.SessionID {
			e.attempt.Close()
			delete(s.attempts, k)
			dropped++
		}
	}
	if dropped > 0 {
		s.log.Debug().
			Str("session_id", ev.SessionID).
			Str("kind", string(ev.Kind)).
			Int("attempts", dropped).
			Msg("Closed attempts of ended session")
	}
}

// Reap closes attempts whose session has expired and finished attempts
// older than ResultGrace. It returns how many were evicted.
func (s *AttemptService) Reap(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, e := range s.attempts {
		if e.stale(now) {
			e.attempt.Close()
			delete(s.attempts, k)
			n++
		}
	}
	return n
}

// Shutdown stops every countdown.
func (s *AttemptService) Shutdown() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.attempts {
		e.attempt.Close()
		delete(s.attempts, k)
	}
}

// Start opens an attempt, or returns the one already running. A test that
// already has a result cannot be started again.
func (s *AttemptService) Start(ctx context.Context, sess *session.Session, testID model.ID) (*testrun.State, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthorized
	}
	key := attemptKey{sessionID: sess.ID, testID: testID}

	if a := s.lookup(key); a != nil {
		st := a.Snapshot()
		return &st, nil
	}

	if res, err := s.api.TestResultByTest(ctx, sess, testID); err == nil && res != nil {
		return nil, ErrAlreadyTaken
	}

	questions, err := s.api.GetTestQuestions(ctx, sess, testID)
	if err != nil {
		if gateway.StatusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("load questions: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrQuestionsUnavailable, err)
	}

	s.mu.Lock()
	e, ok := s.attempts[key]
	if !ok {
		e = &attemptEntry{attempt: testrun.New(testID, questions, s.limit), expiresAt: sess.ExpiresAt}
		s.attempts[key] = e
		e.attempt.Start(s.ctx, s.interval)
	}
	a := e.attempt
	s.mu.Unlock()

	if !ok {
		s.log.Info().
			Str("session_id", sess.ID).
			Str("test_id", testID.String()).
			Int("questions", len(questions)).
			Msg("Attempt started")
	}

	st := a.Snapshot()
	return &st, nil
}

// State returns the running attempt.
func (s *AttemptService) State(sess *session.Session, testID model.ID) (*testrun.State, error) {
	a, err := s.get(sess, testID)
	if err != nil {
		return nil, err
	}
	st := a.Snapshot()
	return &st, nil
}

// Select records an answer.
func (s *AttemptService) Select(sess *session.Session, testID model.ID, req SelectRequest) (*testrun.State, error) {
	a, err := s.get(sess, testID)
	if err != nil {
		return nil, err
	}
	if err := a.Select(req.QuestionID, req.AnswerID); err != nil {
		return nil, err
	}
	st := a.Snapshot()
	return &st, nil
}

// Navigate moves between questions.
func (s *AttemptService) Navigate(sess *session.Session, testID model.ID, req NavigateRequest) (*testrun.State, error) {
	a, err := s.get(sess, testID)
	if err != nil {
		return nil, err
	}
	switch req.Direction {
	case "next":
		a.Next()
	case "prev":
		a.Prev()
	default:
		if err := a.Jump(req.Index); err != nil {
			return nil, err
		}
	}
	st := a.Snapshot()
	return &st, nil
}

// Submit sends the answers once. A failed call leaves the attempt running
// with its inline error.
func (s *AttemptService) Submit(ctx context.Context, sess *session.Session, testID model.ID) (*testrun.State, error) {
	a, err := s.get(sess, testID)
	if err != nil {
		return nil, err
	}

	choices, err := a.BeginSubmit()
	if err != nil {
		return nil, err
	}

	resp, submitErr := s.api.SubmitTest(ctx, sess, testID, choices)
	res, err := a.FinishSubmit(resp, submitErr)
	if err != nil {
		return nil, err
	}

	if submitErr != nil {
		s.log.Error().Err(submitErr).Str("test_id", testID.String()).Msg("Failed to submit answers")
	} else {
		s.markFinished(attemptKey{sessionID: sess.ID, testID: testID}, a)
		s.log.Info().
			Str("session_id", sess.ID).
			Str("test_id", testID.String()).
			Int("score", res.Score).
			Bool("passed", res.Passed).
			Str("elapsed", res.Clock).
			Msg("Attempt submitted")
	}

	st := a.Snapshot()
	return &st, nil
}

// Abandon tears the attempt down.
func (s *AttemptService) Abandon(sess *session.Session, testID model.ID) error {
	if !sess.Authenticated() {
		return ErrUnauthorized
	}
	key := attemptKey{sessionID: sess.ID, testID: testID}
	s.mu.Lock()
	e, ok := s.attempts[key]
	delete(s.attempts, key)
	s.mu.Unlock()
	if !ok {
		return ErrAttemptNotFound
	}
	e.attempt.Close()
	return nil
}

// Watch subscribes to the countdown of a running attempt.
func (s *AttemptService) Watch(sess *session.Session, testID model.ID) (<-chan testrun.Event, func(), error) {
	a, err := s.get(sess, testID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := a.Watch()
	return ch, cancel, nil
}

// Result returns the stored upstream result of a test.
func (s *AttemptService) Result(ctx context.Context, sess *session.Session, testID model.ID) (*model.TestResult, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthorized
	}
	res, err := s.api.TestResultByTest(ctx, sess, testID)
	if err != nil {
		return nil, upstream("load test result", err)
	}
	return res, nil
}

func (s *AttemptService) lookup(key attemptKey) *testrun.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.attempts[key]; ok {
		return e.attempt
	}
	return nil
}

func (s *AttemptService) markFinished(key attemptKey, a *testrun.Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.attempts[key]; ok && e.attempt == a {
		e.finishedAt = time.Now()
	}
}

func (s *AttemptService) get(sess *session.Session, testID model.ID) (*testrun.Attempt, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthorized
	}
	a := s.lookup(attemptKey{sessionID: sess.ID, testID: testID})
	if a == nil {
		return nil, ErrAttemptNotFound
	}
	return a, nil
}
