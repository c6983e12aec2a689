package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
)

// ListLessons returns the lessons of a course.
func (c *Client) ListLessons(ctx context.Context, sess *session.Session, assignmentID model.ID) ([]model.Lesson, error) {
	var out []model.Lesson
	err := c.do(ctx, sess, call{
		op: "list_lessons", method: http.MethodGet, path: "/api/lessons",
		query: url.Values{"assignmentId": {assignmentID.String()}}, out: &out,
	})
	return out, err
}

// GetLesson returns one lesson with its HTML content.
func (c *Client) GetLesson(ctx context.Context, sess *session.Session, id model.ID) (*model.Lesson, error) {
	var out model.Lesson
	err := c.do(ctx, sess, call{
		op: "get_lesson", method: http.MethodGet,
		path: "/api/lessons/" + url.PathEscape(id.String()), out: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateLesson adds a lesson to a course.
func (c *Client) CreateLesson(ctx context.Context, sess *session.Session, req model.CreateLessonRequest) error {
	return c.do(ctx, sess, call{op: "create_lesson", method: http.MethodPost, path: "/api/lessons", body: req})
}
