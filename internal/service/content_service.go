package service

import (
	"context"

	"github.com/polytech/coursedesk/internal/gateway"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/rs/zerolog"
)

// LessonView is the lesson screen. Content is HTML rendered by the shell.
type LessonView struct {
	Lesson model.Lesson `json:"lesson"`
}

// ContentService manages course materials and lessons.
type ContentService struct {
	api *gateway.Client
	log zerolog.Logger
}

// NewContentService creates a new ContentService.
func NewContentService(api *gateway.Client, log zerolog.Logger) *ContentService {
	return &ContentService{
		api: api,
		log: log.With().Str("component", "content_service").Logger(),
	}
}

// AddMaterial attaches a material to a course.
func (s *ContentService) AddMaterial(ctx context.Context, sess *session.Session, assignmentID model.ID, req model.CreateMaterialRequest) error {
	if !sess.IsTeacher() {
		return ErrForbidden
	}
	if err := s.api.AddMaterial(ctx, sess, assignmentID, req); err != nil {
		return upstream("add material", err)
	}
	s.log.Info().Str("assignment_id", assignmentID.String()).Str("title", req.Title).Msg("Material added")
	return nil
}

// AddLesson creates a lesson in a course.
func (s *ContentService) AddLesson(ctx context.Context, sess *session.Session, assignmentID model.ID, req model.CreateLessonRequest) error {
	if !sess.IsTeacher() {
		return ErrForbidden
	}
	req.AssignmentID = assignmentID
	if err := s.api.CreateLesson(ctx, sess, req); err != nil {
		return upstream("add lesson", err)
	}
	s.log.Info().Str("assignment_id", assignmentID.String()).Str("title", req.Title).Msg("Lesson added")
	return nil
}

// Lesson loads one lesson.
func (s *ContentService) Lesson(ctx context.Context, sess *session.Session, id model.ID) (*LessonView, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthorized
	}
	l, err := s.api.GetLesson(ctx, sess, id)
	if err != nil {
		return nil, upstream("load lesson", err)
	}
	return &LessonView{Lesson: *l}, nil
}
