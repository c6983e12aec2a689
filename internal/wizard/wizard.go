// Package wizard is the three-step test authoring flow:
// BasicInfo → Questions → Review → submit.
//
// A Draft is not safe for concurrent use; callers serialize access.
package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/polytech/coursedesk/internal/model"
)

// Limits of the authored structure.
const (
	MaxQuestions       = 20
	MaxAnswers         = 5
	MinAnswersToReview = 2
)

// Step is a wizard position.
type Step int

const (
	StepBasicInfo Step = iota
	StepQuestions
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepBasicInfo:
		return "basic_info"
	case StepQuestions:
		return "questions"
	case StepReview:
		return "review"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Inline messages shown above the form.
const (
	MessageRequiredFields = "Заполните все обязательные поля"
	MessageSubmitFailed   = "Ошибка при сохранении теста"
)

var (
	ErrTitleRequired         = errors.New("test title is required")
	ErrQuestionTextRequired  = errors.New("question text is required")
	ErrTooFewAnswers         = errors.New("question needs at least two answers")
	ErrAnswerTextRequired    = errors.New("answer text is required")
	ErrCorrectAnswerRequired = errors.New("question has no correct answer")

	ErrTooManyQuestions = errors.New("question limit reached")
	ErrLastQuestion     = errors.New("a test keeps at least one question")
	ErrTooManyAnswers   = errors.New("answer limit reached")
	ErrLastAnswer       = errors.New("a question keeps at least one answer")
	ErrNoSuchQuestion   = errors.New("no such question")
	ErrNoSuchAnswer     = errors.New("no such answer")

	ErrFirstStep     = errors.New("already at the first step")
	ErrLastStep      = errors.New("already at the last step")
	ErrNotOnReview   = errors.New("submit is only possible from review")
	ErrSubmitting    = errors.New("submission already in progress")
	ErrNotSubmitting = errors.New("no submission in progress")
)

// IssueError locates a validation failure. Answer is -1 when the issue is
// about the question as a whole.
type IssueError struct {
	Question int
	Answer   int
	Err      error
}

func (e *IssueError) Error() string {
	if e.Answer < 0 {
		return fmt.Sprintf("question %d: %v", e.Question+1, e.Err)
	}
	return fmt.Sprintf("question %d answer %d: %v", e.Question+1, e.Answer+1, e.Err)
}

func (e *IssueError) Unwrap() error { return e.Err }

// Answer is an authored answer option.
type Answer struct {
	Text    string
	Correct bool
}

// Question is an authored question.
type Question struct {
	Text    string
	Answers []Answer
}

// Draft is a test under construction for one assignment.
type Draft struct {
	AssignmentID model.ID
	Title        string
	Questions    []Question
	Step         Step
	// Error is the inline message of the last failed transition or submit.
	Error string

	submitting bool
}

// New starts a draft with one question holding one empty answer.
func New(assignmentID model.ID) *Draft {
	return &Draft{
		AssignmentID: assignmentID,
		Questions:    []Question{newQuestion()},
		Step:         StepBasicInfo,
	}
}

func newQuestion() Question {
	return Question{Answers: []Answer{{}}}
}

// Submitting reports whether a create call is in flight.
func (d *Draft) Submitting() bool { return d.submitting }

func (d *Draft) question(q int) (*Question, error) {
	if q < 0 || q >= len(d.Questions) {
		return nil, ErrNoSuchQuestion
	}
	return &d.Questions[q], nil
}

func (d *Draft) answer(q, a int) (*Answer, error) {
	qq, err := d.question(q)
	if err != nil {
		return nil, err
	}
	if a < 0 || a >= len(qq.Answers) {
		return nil, ErrNoSuchAnswer
	}
	return &qq.Answers[a], nil
}

func (d *Draft) editable() error {
	if d.submitting {
		return ErrSubmitting
	}
	return nil
}

// SetTitle replaces the test title.
func (d *Draft) SetTitle(title string) error {
	if err := d.editable(); err != nil {
		return err
	}
	d.Title = title
	return nil
}

// AddQuestion appends an empty question and returns its index.
func (d *Draft) AddQuestion() (int, error) {
	if err := d.editable(); err != nil {
		return 0, err
	}
	if len(d.Questions) >= MaxQuestions {
		return 0, ErrTooManyQuestions
	}
	d.Questions = append(d.Questions, newQuestion())
	return len(d.Questions) - 1, nil
}

// RemoveQuestion deletes question q; the last question cannot be removed.
func (d *Draft) RemoveQuestion(q int) error {
	if err := d.editable(); err != nil {
		return err
	}
	if _, err := d.question(q); err != nil {
		return err
	}
	if len(d.Questions) <= 1 {
		return ErrLastQuestion
	}
	d.Questions = append(d.Questions[:q], d.Questions[q+1:]...)
	return nil
}

// SetQuestionText replaces the text of question q.
func (d *Draft) SetQuestionText(q int, text string) error {
	if err := d.editable(); err != nil {
		return err
	}
	qq, err := d.question(q)
	if err != nil {
		return err
	}
	qq.Text = text
	return nil
}

// AddAnswer appends an empty, incorrect answer to question q and returns its index.
func (d *Draft) AddAnswer(q int) (int, error) {
	if err := d.editable(); err != nil {
		return 0, err
	}
	qq, err := d.question(q)
	if err != nil {
		return 0, err
	}
	if len(qq.Answers) >= MaxAnswers {
		return 0, ErrTooManyAnswers
	}
	qq.Answers = append(qq.Answers, Answer{})
	return len(qq.Answers) - 1, nil
}

// RemoveAnswer deletes answer a of question q; the last answer stays.
func (d *Draft) RemoveAnswer(q, a int) error {
	if err := d.editable(); err != nil {
		return err
	}
	if _, err := d.answer(q, a); err != nil {
		return err
	}
	qq := &d.Questions[q]
	if len(qq.Answers) <= 1 {
		return ErrLastAnswer
	}
	qq.Answers = append(qq.Answers[:a], qq.Answers[a+1:]...)
	return nil
}

// SetAnswerText replaces the text of answer a of question q.
func (d *Draft) SetAnswerText(q, a int, text string) error {
	if err := d.editable(); err != nil {
		return err
	}
	ans, err := d.answer(q, a)
	if err != nil {
		return err
	}
	ans.Text = text
	return nil
}

// SetCorrect marks answer a as the single correct answer of question q.
func (d *Draft) SetCorrect(q, a int) error {
	if err := d.editable(); err != nil {
		return err
	}
	if _, err := d.answer(q, a); err != nil {
		return err
	}
	for i := range d.Questions[q].Answers {
		d.Questions[q].Answers[i].Correct = i == a
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// CheckBasicInfo is the BasicInfo → Questions guard.
func (d *Draft) CheckBasicInfo() error {
	if blank(d.Title) {
		return ErrTitleRequired
	}
	return nil
}

// CheckQuestions is the Questions → Review guard.
func (d *Draft) CheckQuestions() error {
	for qi, q := range d.Questions {
		if blank(q.Text) {
			return &IssueError{Question: qi, Answer: -1, Err: ErrQuestionTextRequired}
		}
		if len(q.Answers) < MinAnswersToReview {
			return &IssueError{Question: qi, Answer: -1, Err: ErrTooFewAnswers}
		}
		for ai, a := range q.Answers {
			if blank(a.Text) {
				return &IssueError{Question: qi, Answer: ai, Err: ErrAnswerTextRequired}
			}
		}
	}
	return nil
}

// CheckSubmit is the Review → submit guard: every earlier guard plus a
// correct answer in each question.
func (d *Draft) CheckSubmit() error {
	if err := d.CheckBasicInfo(); err != nil {
		return err
	}
	if err := d.CheckQuestions(); err != nil {
		return err
	}
	for qi, q := range d.Questions {
		correct := false
		for _, a := range q.Answers {
			if a.Correct {
				correct = true
				break
			}
		}
		if !correct {
			return &IssueError{Question: qi, Answer: -1, Err: ErrCorrectAnswerRequired}
		}
	}
	return nil
}

// CheckAdvance applies the guard of the current step.
func (d *Draft) CheckAdvance() error {
	switch d.Step {
	case StepBasicInfo:
		return d.CheckBasicInfo()
	case StepQuestions:
		return d.CheckQuestions()
	default:
		return ErrLastStep
	}
}

// Next moves one step forward when the current step's guard passes.
// A failed guard leaves the step unchanged and sets the inline error.
func (d *Draft) Next() error {
	if err := d.editable(); err != nil {
		return err
	}
	if err := d.CheckAdvance(); err != nil {
		if !errors.Is(err, ErrLastStep) {
			d.Error = MessageRequiredFields
		}
		return err
	}
	d.Error = ""
	d.Step++
	return nil
}

// Back returns to the previous step and clears the inline error.
func (d *Draft) Back() error {
	if err := d.editable(); err != nil {
		return err
	}
	if d.Step == StepBasicInfo {
		return ErrFirstStep
	}
	d.Error = ""
	d.Step--
	return nil
}

// BeginSubmit checks the submit guard and marks the draft as submitting.
// Only one submission may be in flight.
func (d *Draft) BeginSubmit() error {
	if d.submitting {
		return ErrSubmitting
	}
	if d.Step != StepReview {
		return ErrNotOnReview
	}
	if err := d.CheckSubmit(); err != nil {
		d.Error = MessageRequiredFields
		return err
	}
	d.submitting = true
	d.Error = ""
	return nil
}

// FinishSubmit ends a submission. A failure keeps the draft on Review with
// the inline error so the user can retry.
func (d *Draft) FinishSubmit(err error) error {
	if !d.submitting {
		return ErrNotSubmitting
	}
	d.submitting = false
	if err != nil {
		d.Error = MessageSubmitFailed
		return nil
	}
	d.Error = ""
	return nil
}

// Payload converts the draft into the create-test body.
func (d *Draft) Payload() []model.NewQuestion {
	out := make([]model.NewQuestion, 0, len(d.Questions))
	for _, q := range d.Questions {
		nq := model.NewQuestion{
			QuestionText: strings.TrimSpace(q.Text),
			Answers:      make([]model.NewAnswer, 0, len(q.Answers)),
		}
		for _, a := range q.Answers {
			nq.Answers = append(nq.Answers, model.NewAnswer{
				AnswerText: strings.TrimSpace(a.Text),
				IsCorrect:  a.Correct,
			})
		}
		out = append(out, nq)
	}
	return out
}
