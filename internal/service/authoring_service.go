package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/polytech/coursedesk/internal/gateway"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/polytech/coursedesk/internal/wizard"
	"github.com/rs/zerolog"
)

// ErrDraftNotFound is returned when no wizard is open for the course.
var ErrDraftNotFound = errors.New("test draft not found")

// DraftAnswer is an answer row of the wizard.
type DraftAnswer struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// DraftQuestion is a question block of the wizard.
type DraftQuestion struct {
	Text            string        `json:"text"`
	Answers         []DraftAnswer `json:"answers"`
	CanAddAnswer    bool          `json:"canAddAnswer"`
	CanRemoveAnswer bool          `json:"canRemoveAnswer"`
}

// DraftView is the wizard screen.
type DraftView struct {
	AssignmentID      model.ID        `json:"assignmentId"`
	Step              string          `json:"step"`
	Title             string          `json:"title"`
	Questions         []DraftQuestion `json:"questions"`
	CanAddQuestion    bool            `json:"canAddQuestion"`
	CanRemoveQuestion bool            `json:"canRemoveQuestion"`
	CanAdvance        bool            `json:"canAdvance"`
	CanSubmit         bool            `json:"canSubmit"`
	Submitting        bool            `json:"submitting"`
	Error             string          `json:"error,omitempty"`
}

// SubmitOutcome tells the shell where to go after a submit attempt.
// On failure Draft holds the wizard with its inline error.
type SubmitOutcome struct {
	Created  bool       `json:"created"`
	Redirect string     `json:"redirect,omitempty"`
	Draft    *DraftView `json:"draft,omitempty"`
}

type draftKey struct {
	sessionID    string
	assignmentID model.ID
}

type draftEntry struct {
	mu        sync.Mutex
	draft     *wizard.Draft
	expiresAt time.Time
}

// AuthoringService keeps one test wizard per session and course in memory.
type AuthoringService struct {
	api *gateway.Client
	log zerolog.Logger

	mu     sync.Mutex
	drafts map[draftKey]*draftEntry
}

// NewAuthoringService creates a new AuthoringService. Drafts of a session
// are dropped when the bus reports it signed out or expired.
func NewAuthoringService(api *gateway.Client, bus *session.Bus, log zerolog.Logger) *AuthoringService {
	s := &AuthoringService{
		api:    api,
		log:    log.With().Str("component", "authoring_service").Logger(),
		drafts: make(map[draftKey]*draftEntry),
	}
	bus.Subscribe(s.onSessionEvent)
	return s
}

func (s *AuthoringService) onSessionEvent(ev session.Event) {
	if !ev.Ends() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for k := range s.drafts {
		if k.sessionID == ev.SessionID {
			delete(s.drafts, k)
			dropped++
		}
	}
	if dropped > 0 {
		s.log.Debug().
			Str("session_id", ev.SessionID).
			Str("kind", string(ev.Kind)).
			Int("drafts", dropped).
			Msg("Dropped drafts of ended session")
	}
}

// Reap drops drafts whose session has expired and returns how many went.
func (s *AuthoringService) Reap(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, e := range s.drafts {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(s.drafts, k)
			n++
		}
	}
	return n
}

// Open starts a fresh wizard for a course, replacing an idle one.
func (s *AuthoringService) Open(ctx context.Context, sess *session.Session, assignmentID model.ID) (*DraftView, error) {
	if !sess.IsTeacher() {
		return nil, ErrForbidden
	}
	if _, err := s.api.GetAssignment(ctx, sess, assignmentID); err != nil {
		return nil, upstream("open test draft", err)
	}

	key := draftKey{sessionID: sess.ID, assignmentID: assignmentID}
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.drafts[key]; ok {
		e.mu.Lock()
		busy := e.draft.Submitting()
		e.mu.Unlock()
		if busy {
			return nil, wizard.ErrSubmitting
		}
	}

	d := wizard.New(assignmentID)
	s.drafts[key] = &draftEntry{draft: d, expiresAt: sess.ExpiresAt}
	return viewDraft(d), nil
}

// Get returns the open wizard.
func (s *AuthoringService) Get(sess *session.Session, assignmentID model.ID) (*DraftView, error) {
	return s.edit(sess, assignmentID, func(*wizard.Draft) error { return nil })
}

// Discard closes the wizard without saving.
func (s *AuthoringService) Discard(sess *session.Session, assignmentID model.ID) error {
	if !sess.IsTeacher() {
		return ErrForbidden
	}
	key := draftKey{sessionID: sess.ID, assignmentID: assignmentID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[key]; !ok {
		return ErrDraftNotFound
	}
	delete(s.drafts, key)
	return nil
}

// SetTitle sets the test title.
func (s *AuthoringService) SetTitle(sess *session.Session, assignmentID model.ID, title string) (*DraftView, error) {
	return s.edit(sess, assignmentID, func(d *wizard.Draft) error { return d.SetTitle(title) })
}

// AddQuestion appends a question.
func (s *AuthoringService) AddQuestion(sess *session.Session, assignmentID model.ID) (*DraftView, error) {
	return s.edit(sess, assignmentID, func(d *wizard.Draft) error {
		_, err := d.AddQuestion()
		return err
	})
}

// SetQuestionText sets the text of question q.
func (s *AuthoringService) SetQuestionText(sess *session.Session, assignmentID model.ID, q int, text string) (*DraftView, error) {
	return s.edit(sess, assignmentID, func(d *wizard.Draft) error { return d.SetQuestionText(q, text) })
}

// RemoveQuestion deletes question q.
func (s *AuthoringService) RemoveQuestion(sess *session.Session, assignmentID model.ID, q int) (*DraftView, error) {
	return s.edit(sess, assignmentID, func(d *wizard.Draft) error { return d.RemoveQuestion(q) })
}

// AddAnswer appends an answer to question q.
func (s *AuthoringService) AddAnswer(sess *session.Session, assignmentID model.ID, q int) (*DraftView, error) {
	return s.edit(sess, assignmentID, func(d *wizard.Draft) error {
		_, err := d.AddAnswer(q)
		return err
	})
}

// SetAnswerText sets the text of answer a of question q.
func (s *AuthoringService) SetAnswerText(sess *session.Session, assignmentID model.ID, q, a int, text string) (*DraftView, error) {
	return s.edit(sess, assignmentID, func(d *wizard.Draft) error { return d.SetAnswerText(q, a, text) })
}

// RemoveAnswer deletes answer a of question q.
func (s *AuthoringService) RemoveAnswer(sess *session.Session, assignmentID model.ID, q, a int) (*DraftView, error) {
	return s.edit(sess, assignmentID, func(d *wizard.Draft) error { return d.RemoveAnswer(q, a) })
}

// SetCorrect marks answer a as the correct one of question q.
func (s *AuthoringService) SetCorrect(sess *session.Session, assignmentID model.ID, q, a int) (*DraftView, error) {
	return s.edit(sess, assignmentID, func(d *wizard.Draft) error { return d.SetCorrect(q, a) })
}

// Next advances the wizard. A failed guard is not an error for the caller;
// the returned view carries the inline message.
func (s *AuthoringService) Next(sess *session.Session, assignmentID model.ID) (*DraftView, error) {
	return s.edit(sess, assignmentID, func(d *wizard.Draft) error {
		err := d.Next()
		if errors.Is(err, wizard.ErrLastStep) || errors.Is(err, wizard.ErrSubmitting) {
			return err
		}
		return nil
	})
}

// Back returns to the previous step.
func (s *AuthoringService) Back(sess *session.Session, assignmentID model.ID) (*DraftView, error) {
	return s.edit(sess, assignmentID, func(d *wizard.Draft) error { return d.Back() })
}

// Submit creates the test upstream. On success the draft is discarded and
// the shell is sent back to the course.
func (s *AuthoringService) Submit(ctx context.Context, sess *session.Session, assignmentID model.ID) (*SubmitOutcome, error) {
	e, err := s.entry(sess, assignmentID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if err := e.draft.BeginSubmit(); err != nil {
		view := viewDraft(e.draft)
		e.mu.Unlock()
		if errors.Is(err, wizard.ErrSubmitting) || errors.Is(err, wizard.ErrNotOnReview) {
			return nil, err
		}
		return &SubmitOutcome{Draft: view}, nil
	}
	title := e.draft.Title
	payload := e.draft.Payload()
	e.mu.Unlock()

	createErr := s.api.CreateTest(ctx, sess, assignmentID, title, payload)

	e.mu.Lock()
	finishErr := e.draft.FinishSubmit(createErr)
	view := viewDraft(e.draft)
	e.mu.Unlock()

	if finishErr != nil {
		s.log.Error().Err(finishErr).Str("assignment_id", assignmentID.String()).Msg("Draft left submitting state unexpectedly")
		return nil, finishErr
	}

	if createErr != nil {
		s.log.Error().Err(createErr).Str("assignment_id", assignmentID.String()).Msg("Failed to create test")
		return &SubmitOutcome{Draft: view}, nil
	}

	key := draftKey{sessionID: sess.ID, assignmentID: assignmentID}
	s.mu.Lock()
	if s.drafts[key] == e {
		delete(s.drafts, key)
	}
	s.mu.Unlock()

	s.log.Info().
		Str("assignment_id", assignmentID.String()).
		Int("questions", len(payload)).
		Msg("Test created")

	return &SubmitOutcome{Created: true, Redirect: fmt.Sprintf("/assignments/%s", assignmentID)}, nil
}

func (s *AuthoringService) entry(sess *session.Session, assignmentID model.ID) (*draftEntry, error) {
	if !sess.IsTeacher() {
		return nil, ErrForbidden
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.drafts[draftKey{sessionID: sess.ID, assignmentID: assignmentID}]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return e, nil
}

func (s *AuthoringService) edit(sess *session.Session, assignmentID model.ID, fn func(*wizard.Draft) error) (*DraftView, error) {
	e, err := s.entry(sess, assignmentID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e.draft); err != nil {
		return nil, err
	}
	return viewDraft(e.draft), nil
}

func viewDraft(d *wizard.Draft) *DraftView {
	v := &DraftView{
		AssignmentID:      d.AssignmentID,
		Step:              d.Step.String(),
		Title:             d.Title,
		Questions:         make([]DraftQuestion, 0, len(d.Questions)),
		CanAddQuestion:    len(d.Questions) < wizard.MaxQuestions,
		CanRemoveQuestion: len(d.Questions) > 1,
		CanAdvance:        d.Step != wizard.StepReview && d.CheckAdvance() == nil,
		CanSubmit:         d.Step == wizard.StepReview && !d.Submitting() && d.CheckSubmit() == nil,
		Submitting:        d.Submitting(),
		Error:             d.Error,
	}
	for _, q := range d.Questions {
		dq := DraftQuestion{
			Text:            q.Text,
			Answers:         make([]DraftAnswer, 0, len(q.Answers)),
			CanAddAnswer:    len(q.Answers) < wizard.MaxAnswers,
			CanRemoveAnswer: len(q.Answers) > 1,
		}
		for _, a := range q.Answers {
			dq.Answers = append(dq.Answers, DraftAnswer{Text: a.Text, Correct: a.Correct})
		}
		v.Questions = append(v.Questions, dq)
	}
	return v
}
