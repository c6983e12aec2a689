package testrun

import "github.com/polytech/coursedesk/internal/model"

// State is a read-only snapshot of an attempt for rendering.
type State struct {
	TestID     model.ID        `json:"testId"`
	Index      int             `json:"index"`
	Total      int             `json:"total"`
	Question   *model.Question `json:"question,omitempty"`
	Selected   model.ID        `json:"selectedAnswerId"`
	Answered   int             `json:"answered"`
	Remaining  int             `json:"remainingSeconds"`
	Clock      string          `json:"clock"`
	Expired    bool            `json:"expired"`
	CanSubmit  bool            `json:"canSubmit"`
	Submitting bool            `json:"submitting"`
	Error      string          `json:"error,omitempty"`
	Result     *Result         `json:"result,omitempty"`
}

// Snapshot captures the current state.
func (a *Attempt) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := State{
		TestID:     a.TestID,
		Index:      a.index,
		Total:      len(a.questions),
		Answered:   len(a.answers),
		Remaining:  int(a.remaining.Seconds()),
		Clock:      FormatClock(a.remaining),
		Expired:    a.remaining <= 0,
		CanSubmit:  a.checkSubmitLocked() == nil,
		Submitting: a.submitting,
		Error:      a.errMsg,
		Result:     a.result,
	}
	if len(a.questions) > 0 {
		q := a.questions[a.index]
		s.Question = &q
		s.Selected = a.answers[q.ID]
	}
	return s
}
