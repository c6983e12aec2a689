package model

// Test is an ordered set of multiple-choice questions of an assignment.
type Test struct {
	ID           ID     `json:"id" validate:"required"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	AssignmentID ID     `json:"assignmentId,omitempty"`
	CourseID     ID     `json:"courseId,omitempty"`
}

// OwnerID returns the assignment the test belongs to. Older payloads only
// carry courseId.
func (t Test) OwnerID() ID {
	if !t.AssignmentID.IsZero() {
		return t.AssignmentID
	}
	return t.CourseID
}

// Answer is a selectable option of a question being taken.
type Answer struct {
	ID   ID     `json:"id" validate:"required"`
	Text string `json:"text"`
}

// Question is a question being taken, as served by GET /api/tests/{id}/questions.
type Question struct {
	ID      ID       `json:"id" validate:"required"`
	Text    string   `json:"text"`
	Answers []Answer `json:"answers" validate:"dive"`
}

// NewAnswer is an answer authored in the test wizard.
type NewAnswer struct {
	AnswerText string `json:"answerText"`
	IsCorrect  bool   `json:"isCorrect"`
}

// NewQuestion is a question authored in the test wizard.
type NewQuestion struct {
	QuestionText string      `json:"questionText"`
	Answers      []NewAnswer `json:"answers"`
}

// AnswerChoice pairs a question with the chosen answer.
type AnswerChoice struct {
	QuestionID ID `json:"questionId"`
	AnswerID   ID `json:"answerId"`
}

// SubmitTestRequest is the body of POST /api/tests/{id}/submit.
type SubmitTestRequest struct {
	Answers []AnswerChoice `json:"answers"`
}

// SubmitTestResponse is the scored outcome of a submission.
type SubmitTestResponse struct {
	Score int  `json:"score" validate:"min=0,max=100"`
	Test  Test `json:"test"`
	User  User `json:"user"`
}
