package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
)

// Progress returns the raw progress summary of the signed-in user. Its shape
// is owned by the upstream and passed through untouched.
func (c *Client) Progress(ctx context.Context, sess *session.Session) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, sess, call{op: "progress", method: http.MethodGet, path: "/api/progress", out: &out})
	return out, err
}

// TestResults returns every result of the signed-in user.
func (c *Client) TestResults(ctx context.Context, sess *session.Session) ([]model.TestResult, error) {
	var out []model.TestResult
	err := c.do(ctx, sess, call{op: "test_results", method: http.MethodGet, path: "/api/progress/test-results", out: &out})
	return out, err
}

// TestResultByTest returns the signed-in user's result for one test.
func (c *Client) TestResultByTest(ctx context.Context, sess *session.Session, testID model.ID) (*model.TestResult, error) {
	var out model.TestResult
	err := c.do(ctx, sess, call{
		op: "test_result_by_test", method: http.MethodGet,
		path: "/api/progress/test-results/by-test-id/" + url.PathEscape(testID.String()), out: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TestResultsByAssignment returns all results of a course's tests. The
// upstream parameter name is assignmentIdId.
func (c *Client) TestResultsByAssignment(ctx context.Context, sess *session.Session, assignmentID model.ID) ([]model.TestResult, error) {
	var out []model.TestResult
	err := c.do(ctx, sess, call{
		op: "test_results_by_assignment", method: http.MethodGet, path: "/api/progress/test-results/assignment",
		query: url.Values{"assignmentIdId": {assignmentID.String()}}, out: &out,
	})
	return out, err
}
