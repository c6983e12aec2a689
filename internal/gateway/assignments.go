package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
)

// ListAssignments returns every course visible to the session.
func (c *Client) ListAssignments(ctx context.Context, sess *session.Session) ([]model.Assignment, error) {
	var out []model.Assignment
	err := c.do(ctx, sess, call{op: "list_assignments", method: http.MethodGet, path: "/api/assignments", out: &out})
	return out, err
}

// GetAssignment returns one course.
func (c *Client) GetAssignment(ctx context.Context, sess *session.Session, id model.ID) (*model.Assignment, error) {
	var out model.Assignment
	err := c.do(ctx, sess, call{
		op: "get_assignment", method: http.MethodGet,
		path: "/api/assignments/" + url.PathEscape(id.String()), out: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAssignment creates a course from a subject and a group.
func (c *Client) CreateAssignment(ctx context.Context, sess *session.Session, req model.CreateAssignmentRequest) error {
	return c.do(ctx, sess, call{op: "create_assignment", method: http.MethodPost, path: "/api/assignments", body: req})
}

// ListMaterials returns the materials of a course.
func (c *Client) ListMaterials(ctx context.Context, sess *session.Session, assignmentID model.ID) ([]model.Material, error) {
	var out []model.Material
	err := c.do(ctx, sess, call{
		op: "list_materials", method: http.MethodGet,
		path: "/api/assignments/" + url.PathEscape(assignmentID.String()) + "/materials", out: &out,
	})
	return out, err
}

// AddMaterial attaches a material to a course.
func (c *Client) AddMaterial(ctx context.Context, sess *session.Session, assignmentID model.ID, req model.CreateMaterialRequest) error {
	return c.do(ctx, sess, call{
		op: "add_material", method: http.MethodPost,
		path: "/api/assignments/" + url.PathEscape(assignmentID.String()) + "/materials", body: req,
	})
}

// ListSubjects returns the subjects a course can be created for.
func (c *Client) ListSubjects(ctx context.Context, sess *session.Session) ([]model.Subject, error) {
	var out []model.Subject
	err := c.do(ctx, sess, call{op: "list_subjects", method: http.MethodGet, path: "/api/assignments/subjects", out: &out})
	return out, err
}

// ListTeachers returns the instructors known to the platform.
func (c *Client) ListTeachers(ctx context.Context, sess *session.Session) ([]model.Instructor, error) {
	var out []model.Instructor
	err := c.do(ctx, sess, call{op: "list_teachers", method: http.MethodGet, path: "/api/assignments/teachers", out: &out})
	return out, err
}

// ListGroups returns the student groups a course can be created for.
func (c *Client) ListGroups(ctx context.Context, sess *session.Session) ([]model.Group, error) {
	var out []model.Group
	err := c.do(ctx, sess, call{op: "list_groups", method: http.MethodGet, path: "/api/assignments/groups", out: &out})
	return out, err
}
