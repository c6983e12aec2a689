package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/polytech/coursedesk/internal/catalog"
	"github.com/polytech/coursedesk/internal/middleware"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/response"
	"github.com/polytech/coursedesk/internal/service"
	"github.com/polytech/coursedesk/internal/validator"
	"github.com/rs/zerolog"
)

// CourseHandler serves the course list, course detail and create-course form.
type CourseHandler struct {
	courseService *service.CourseService
	log           zerolog.Logger
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(courseService *service.CourseService, log zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		log:           log.With().Str("component", "course_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/assignments?search=&sortBy=&group=&instructor=
func (h *CourseHandler) List(c *gin.Context) {
	q := catalog.Query{
		Search:     c.Query("search"),
		Group:      c.Query("group"),
		Instructor: c.Query("instructor"),
		SortBy:     catalog.ParseSortField(c.Query("sortBy")),
	}

	list, err := h.courseService.List(c.Request.Context(), middleware.GetSession(c), q)
	if err != nil {
		failFrom(c, h.log, err, response.ErrLoadFailed)
		return
	}
	response.Success(c, http.StatusOK, list)
}

// Options godoc
// GET /api/v1/assignments/options
// Subjects, groups and teachers for the create-course form.
func (h *CourseHandler) Options(c *gin.Context) {
	opts, err := h.courseService.Options(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		failFrom(c, h.log, err, response.ErrLoadFailed)
		return
	}
	response.Success(c, http.StatusOK, opts)
}

// Create godoc
// POST /api/v1/assignments
func (h *CourseHandler) Create(c *gin.Context) {
	var req model.CreateAssignmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrSelectionMissing, fields)
		return
	}

	if err := h.courseService.Create(c.Request.Context(), middleware.GetSession(c), req); err != nil {
		failFrom(c, h.log, err, response.ErrCourseCreateFailed)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"redirect": "/"})
}

// Detail godoc
// GET /api/v1/assignments/:id
// Course with its materials, lessons and tests tabs.
func (h *CourseHandler) Detail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.courseService.Detail(c.Request.Context(), middleware.GetSession(c), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrCourseNotFound)
			return
		}
		failFrom(c, h.log, err, response.ErrLoadFailed)
		return
	}
	response.Success(c, http.StatusOK, detail)
}
