// Package testrun holds the state of a student taking a timed test.
package testrun

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/polytech/coursedesk/internal/model"
)

// DefaultTimeLimit is the countdown budget of an attempt.
const DefaultTimeLimit = 1800 * time.Second

// MessageSubmitFailed is the inline message after a failed submission.
const MessageSubmitFailed = "Ошибка при отправке ответов"

var (
	ErrNoQuestions    = errors.New("test has no questions")
	ErrIncomplete     = errors.New("not every question is answered")
	ErrFinished       = errors.New("attempt already has a result")
	ErrSubmitting     = errors.New("submission already in progress")
	ErrNotSubmitting  = errors.New("no submission in progress")
	ErrNoSuchQuestion = errors.New("no such question")
	ErrNoSuchAnswer   = errors.New("answer does not belong to the question")
	ErrOutOfRange     = errors.New("question index out of range")
	ErrClosed         = errors.New("attempt is closed")
)

// Result is the scored outcome of an attempt.
type Result struct {
	Score   int           `json:"score"`
	Passed  bool          `json:"passed"`
	Elapsed time.Duration `json:"-"`
	Clock   string        `json:"elapsed"`
	Test    model.Test    `json:"test"`
	User    model.User    `json:"user"`
}

// Attempt is one run through a test. It is safe for concurrent use.
type Attempt struct {
	TestID model.ID

	mu         sync.Mutex
	questions  []model.Question
	index      int
	answers    map[model.ID]model.ID
	limit      time.Duration
	remaining  time.Duration
	result     *Result
	submitting bool
	errMsg     string
	closed     bool

	cancel context.CancelFunc
	done   chan struct{}
	subs   map[chan Event]struct{}
}

// New creates an attempt over questions with the given countdown budget.
// The countdown does not move until Start.
func New(testID model.ID, questions []model.Question, limit time.Duration) *Attempt {
	if limit <= 0 {
		limit = DefaultTimeLimit
	}
	return &Attempt{
		TestID:    testID,
		questions: questions,
		answers:   make(map[model.ID]model.ID, len(questions)),
		limit:     limit,
		remaining: limit,
		subs:      make(map[chan Event]struct{}),
	}
}

// Start runs the countdown, one second of budget per interval, until ctx is
// cancelled, the budget reaches zero, a result is stored or Close is called.
// Calling Start on a running attempt is a no-op.
func (a *Attempt) Start(ctx context.Context, interval time.Duration) {
	a.mu.Lock()
	if a.cancel != nil || a.closed || a.result != nil {
		a.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	done := a.done
	a.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if left := a.Tick(); left <= 0 {
					return
				}
			}
		}
	}()
}

// Done is closed when the countdown goroutine exits. It is nil before Start.
func (a *Attempt) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// Tick takes one second off the budget and returns what is left. The
// budget is frozen once it is spent, a result is stored or the attempt is
// closed.
func (a *Attempt) Tick() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.result != nil || a.closed {
		return a.remaining
	}
	if a.remaining > 0 {
		a.remaining -= time.Second
		if a.remaining < 0 {
			a.remaining = 0
		}
		a.broadcastLocked(tickEvent(a.remaining))
	}
	return a.remaining
}

// Close stops the countdown and disconnects watchers.
func (a *Attempt) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	a.closed = true
	a.stopLocked()
	for ch := range a.subs {
		close(ch)
		delete(a.subs, ch)
	}
}

func (a *Attempt) stopLocked() {
	if a.cancel != nil {
		a.cancel()
	}
}

// Next moves forward, staying on the last question.
func (a *Attempt) Next() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.index < len(a.questions)-1 {
		a.index++
	}
	return a.index
}

// Prev moves back, staying on the first question.
func (a *Attempt) Prev() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.index > 0 {
		a.index--
	}
	return a.index
}

// Jump moves to question i.
func (a *Attempt) Jump(i int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.questions) {
		return ErrOutOfRange
	}
	a.index = i
	return nil
}

// Select records answerID for questionID, replacing an earlier choice.
func (a *Attempt) Select(questionID, answerID model.ID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.closed:
		return ErrClosed
	case a.result != nil:
		return ErrFinished
	case a.submitting:
		return ErrSubmitting
	}

	for _, q := range a.questions {
		if q.ID != questionID {
			continue
		}
		for _, ans := range q.Answers {
			if ans.ID == answerID {
				a.answers[questionID] = answerID
				return nil
			}
		}
		return ErrNoSuchAnswer
	}
	return ErrNoSuchQuestion
}

// CanSubmit reports whether every question is answered and nothing blocks
// a submission.
func (a *Attempt) CanSubmit() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.checkSubmitLocked() == nil
}

func (a *Attempt) checkSubmitLocked() error {
	switch {
	case a.closed:
		return ErrClosed
	case a.result != nil:
		return ErrFinished
	case a.submitting:
		return ErrSubmitting
	case len(a.questions) == 0:
		return ErrNoQuestions
	case len(a.answers) != len(a.questions):
		return ErrIncomplete
	}
	return nil
}

// BeginSubmit marks the attempt as submitting and returns the choices in
// question order.
func (a *Attempt) BeginSubmit() ([]model.AnswerChoice, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkSubmitLocked(); err != nil {
		return nil, err
	}
	a.submitting = true
	a.errMsg = ""

	choices := make([]model.AnswerChoice, 0, len(a.questions))
	for _, q := range a.questions {
		choices = append(choices, model.AnswerChoice{QuestionID: q.ID, AnswerID: a.answers[q.ID]})
	}
	return choices, nil
}

// FinishSubmit ends a submission. On success the result is stored, the
// countdown stops and the attempt becomes read-only. On failure the inline
// error is set and answering continues.
func (a *Attempt) FinishSubmit(resp *model.SubmitTestResponse, err error) (*Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.submitting {
		return nil, ErrNotSubmitting
	}
	a.submitting = false

	if err != nil || resp == nil {
		a.errMsg = MessageSubmitFailed
		return nil, nil
	}

	elapsed := a.limit - a.remaining
	res := &Result{
		Score:   resp.Score,
		Passed:  resp.Score >= model.PassScore,
		Elapsed: elapsed,
		Clock:   FormatClock(elapsed),
		Test:    resp.Test,
		User:    resp.User,
	}
	a.result = res
	a.errMsg = ""
	a.stopLocked()
	a.finishLocked(Event{Kind: EventResult, Result: res})
	return res, nil
}

// Result returns the stored result, or nil.
func (a *Attempt) Result() *Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Remaining returns the countdown budget left.
func (a *Attempt) Remaining() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.remaining
}

// FormatClock renders d as MM:SS.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
