package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/polytech/coursedesk/internal/middleware"
	"github.com/polytech/coursedesk/internal/response"
	"github.com/polytech/coursedesk/internal/service"
	"github.com/rs/zerolog"
)

// ProgressHandler serves the profile and course results screens.
type ProgressHandler struct {
	profileService *service.ProfileService
	resultService  *service.ResultService
	log            zerolog.Logger
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(profileService *service.ProfileService, resultService *service.ResultService, log zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		profileService: profileService,
		resultService:  resultService,
		log:            log.With().Str("component", "progress_handler").Logger(),
	}
}

// Profile godoc
// GET /api/v1/profile
func (h *ProgressHandler) Profile(c *gin.Context) {
	p, err := h.profileService.Get(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		failFrom(c, h.log, err, response.ErrLoadFailed)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// AssignmentResults godoc
// GET /api/v1/assignments/:id/results?filter=all|passed|failed
func (h *ProgressHandler) AssignmentResults(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := h.resultService.ForAssignment(c.Request.Context(), middleware.GetSession(c), id, service.ParseResultFilter(c.Query("filter")))
	if err != nil {
		failFrom(c, h.log, err, response.ErrLoadFailed)
		return
	}
	response.Success(c, http.StatusOK, out)
}
