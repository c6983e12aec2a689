package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/polytech/coursedesk/internal/middleware"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/response"
	"github.com/polytech/coursedesk/internal/service"
	"github.com/polytech/coursedesk/internal/validator"
	"github.com/rs/zerolog"
)

// ContentHandler handles materials and lessons.
type ContentHandler struct {
	contentService *service.ContentService
	log            zerolog.Logger
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(contentService *service.ContentService, log zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		log:            log.With().Str("component", "content_handler").Logger(),
	}
}

// AddMaterial godoc
// POST /api/v1/assignments/:id/materials
func (h *ContentHandler) AddMaterial(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.CreateMaterialRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.contentService.AddMaterial(c.Request.Context(), middleware.GetSession(c), id, req); err != nil {
		failFrom(c, h.log, err, response.ErrMaterialFailed)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"redirect": "/assignments/" + id.String()})
}

// AddLesson godoc
// POST /api/v1/assignments/:id/lessons
func (h *ContentHandler) AddLesson(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.CreateLessonRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.contentService.AddLesson(c.Request.Context(), middleware.GetSession(c), id, req); err != nil {
		failFrom(c, h.log, err, response.ErrLessonFailed)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"redirect": "/assignments/" + id.String()})
}

// Lesson godoc
// GET /api/v1/lessons/:id
func (h *ContentHandler) Lesson(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.contentService.Lesson(c.Request.Context(), middleware.GetSession(c), id)
	if err != nil {
		failFrom(c, h.log, err, response.ErrLoadFailed)
		return
	}
	response.Success(c, http.StatusOK, view)
}
