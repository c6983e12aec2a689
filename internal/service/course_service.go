package service

import (
	"context"
	"fmt"

	"github.com/polytech/coursedesk/internal/catalog"
	"github.com/polytech/coursedesk/internal/gateway"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Empty-state messages of the course detail tabs.
const (
	EmptyMaterials = "Материалы не добавлены"
	EmptyLessons   = "Уроки не добавлены"
	EmptyTests     = "Тесты не добавлены"
)

// descriptionLimit is how many characters of a description the detail view shows.
const descriptionLimit = 100

// CourseList is the course list screen.
type CourseList struct {
	Courses     []model.Assignment `json:"courses"`
	Groups      []string           `json:"groups"`
	Instructors []string           `json:"instructors"`
	CanCreate   bool               `json:"canCreate"`
}

// CourseOptions feeds the create-course form.
type CourseOptions struct {
	Subjects []model.Subject    `json:"subjects"`
	Groups   []model.Group      `json:"groups"`
	Teachers []model.Instructor `json:"teachers"`
}

// Tab is one section of the course detail screen. Empty is set when Items is.
type Tab[T any] struct {
	Items []T    `json:"items"`
	Empty string `json:"emptyMessage,omitempty"`
}

func newTab[T any](items []T, empty string) Tab[T] {
	if len(items) == 0 {
		return Tab[T]{Items: []T{}, Empty: empty}
	}
	return Tab[T]{Items: items}
}

// MaterialItem is a material row with its upload date.
type MaterialItem struct {
	ID        model.ID `json:"id"`
	Title     string   `json:"title"`
	FileURL   string   `json:"fileUrl"`
	CreatedAt string   `json:"createdAt"`
}

// LessonItem is a lesson card.
type LessonItem struct {
	ID          model.ID `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
}

// TestItem is a test card.
type TestItem struct {
	ID          model.ID `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
}

// CourseDetail is the course detail screen.
type CourseDetail struct {
	Course    model.Assignment  `json:"course"`
	Materials Tab[MaterialItem] `json:"materials"`
	Lessons   Tab[LessonItem]   `json:"lessons"`
	Tests     Tab[TestItem]     `json:"tests"`

	CanAddMaterial bool `json:"canAddMaterial"`
	CanAddLesson   bool `json:"canAddLesson"`
	CanAddTest     bool `json:"canAddTest"`
	CanViewResults bool `json:"canViewResults"`
}

// CourseService builds the course list and course detail screens.
type CourseService struct {
	api *gateway.Client
	log zerolog.Logger
}

// NewCourseService creates a new CourseService.
func NewCourseService(api *gateway.Client, log zerolog.Logger) *CourseService {
	return &CourseService{
		api: api,
		log: log.With().Str("component", "course_service").Logger(),
	}
}

// List returns the courses matching q plus the filter option lists, which
// are always computed over the unfiltered set.
func (s *CourseService) List(ctx context.Context, sess *session.Session, q catalog.Query) (*CourseList, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthorized
	}

	all, err := s.api.ListAssignments(ctx, sess)
	if err != nil {
		return nil, upstream("list courses", err)
	}

	return &CourseList{
		Courses:     catalog.Apply(all, q),
		Groups:      catalog.Groups(all),
		Instructors: catalog.Instructors(all),
		CanCreate:   sess.IsTeacher(),
	}, nil
}

// Options loads the subject, group and teacher lists of the create form.
func (s *CourseService) Options(ctx context.Context, sess *session.Session) (*CourseOptions, error) {
	if !sess.IsTeacher() {
		return nil, ErrForbidden
	}

	var opts CourseOptions
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		subjects, err := s.api.ListSubjects(gctx, sess)
		opts.Subjects = subjects
		return err
	})
	g.Go(func() error {
		groups, err := s.api.ListGroups(gctx, sess)
		opts.Groups = groups
		return err
	})
	g.Go(func() error {
		teachers, err := s.api.ListTeachers(gctx, sess)
		opts.Teachers = teachers
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, upstream("load course options", err)
	}
	return &opts, nil
}

// Create adds a course for a subject and a group.
func (s *CourseService) Create(ctx context.Context, sess *session.Session, req model.CreateAssignmentRequest) error {
	if !sess.IsTeacher() {
		return ErrForbidden
	}
	if err := s.api.CreateAssignment(ctx, sess, req); err != nil {
		return upstream("create course", err)
	}
	s.log.Info().
		Str("subject_id", req.SubjectID.String()).
		Str("group_id", req.GroupID.String()).
		Msg("Course created")
	return nil
}

// Detail fetches the course and its three tabs concurrently. Any failed
// fetch fails the whole screen.
func (s *CourseService) Detail(ctx context.Context, sess *session.Session, id model.ID) (*CourseDetail, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthorized
	}

	var (
		course    *model.Assignment
		materials []model.Material
		lessons   []model.Lesson
		tests     []model.Test
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		course, err = s.api.GetAssignment(gctx, sess, id)
		return err
	})
	g.Go(func() (err error) {
		materials, err = s.api.ListMaterials(gctx, sess, id)
		return err
	})
	g.Go(func() (err error) {
		lessons, err = s.api.ListLessons(gctx, sess, id)
		return err
	})
	g.Go(func() (err error) {
		tests, err = s.api.ListTests(gctx, sess, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, upstream(fmt.Sprintf("load course %s", id), err)
	}

	teacher := sess.IsTeacher()
	return &CourseDetail{
		Course:         *course,
		Materials:      newTab(materialItems(materials), EmptyMaterials),
		Lessons:        newTab(lessonItems(lessons), EmptyLessons),
		Tests:          newTab(testItems(tests), EmptyTests),
		CanAddMaterial: teacher,
		CanAddLesson:   teacher,
		CanAddTest:     teacher,
		CanViewResults: teacher,
	}, nil
}

func materialItems(in []model.Material) []MaterialItem {
	out := make([]MaterialItem, 0, len(in))
	for _, m := range in {
		out = append(out, MaterialItem{ID: m.ID, Title: m.Title, FileURL: m.FileURL, CreatedAt: m.CreatedAt.Date()})
	}
	return out
}

func lessonItems(in []model.Lesson) []LessonItem {
	out := make([]LessonItem, 0, len(in))
	for _, l := range in {
		out = append(out, LessonItem{ID: l.ID, Title: l.Title, Description: Truncate(l.Description, descriptionLimit)})
	}
	return out
}

func testItems(in []model.Test) []TestItem {
	out := make([]TestItem, 0, len(in))
	for _, t := range in {
		out = append(out, TestItem{ID: t.ID, Title: t.Title, Description: Truncate(t.Description, descriptionLimit)})
	}
	return out
}

// Truncate shortens s to limit characters followed by "..." when it is longer.
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
