package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
)

// ListTests returns the tests of a course.
func (c *Client) ListTests(ctx context.Context, sess *session.Session, assignmentID model.ID) ([]model.Test, error) {
	var out []model.Test
	err := c.do(ctx, sess, call{
		op: "list_tests", method: http.MethodGet, path: "/api/tests",
		query: url.Values{"assignmentId": {assignmentID.String()}}, out: &out,
	})
	return out, err
}

// CreateTest creates a test. The title travels in the query string and the
// body is the bare question array.
func (c *Client) CreateTest(ctx context.Context, sess *session.Session, assignmentID model.ID, title string, questions []model.NewQuestion) error {
	return c.do(ctx, sess, call{
		op: "create_test", method: http.MethodPost, path: "/api/tests",
		query: url.Values{"assignmentId": {assignmentID.String()}, "title": {title}},
		body:  questions,
	})
}

// GetTestQuestions returns the questions of a test, without correct flags.
func (c *Client) GetTestQuestions(ctx context.Context, sess *session.Session, testID model.ID) ([]model.Question, error) {
	var out []model.Question
	err := c.do(ctx, sess, call{
		op: "get_test_questions", method: http.MethodGet,
		path: "/api/tests/" + url.PathEscape(testID.String()) + "/questions", out: &out,
	})
	return out, err
}

// SubmitTest sends the chosen answers and returns the score.
func (c *Client) SubmitTest(ctx context.Context, sess *session.Session, testID model.ID, answers []model.AnswerChoice) (*model.SubmitTestResponse, error) {
	var out model.SubmitTestResponse
	err := c.do(ctx, sess, call{
		op: "submit_test", method: http.MethodPost,
		path: "/api/tests/" + url.PathEscape(testID.String()) + "/submit",
		body: model.SubmitTestRequest{Answers: answers}, out: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
