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

type titleRequest struct {
	Title string `json:"title" binding:"max=255"`
}

type textRequest struct {
	Text string `json:"text" binding:"max=2000"`
}

// AuthoringHandler drives the create-test wizard.
// Routes live under /api/v1/assignments/:id/test-draft.
type AuthoringHandler struct {
	authoringService *service.AuthoringService
	log              zerolog.Logger
}

// NewAuthoringHandler creates a new AuthoringHandler.
func NewAuthoringHandler(authoringService *service.AuthoringService, log zerolog.Logger) *AuthoringHandler {
	return &AuthoringHandler{
		authoringService: authoringService,
		log:              log.With().Str("component", "authoring_handler").Logger(),
	}
}

func (h *AuthoringHandler) reply(c *gin.Context, view *service.DraftView, err error) {
	if err != nil {
		failFrom(c, h.log, err, response.ErrLoadFailed)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Open godoc
// POST /api/v1/assignments/:id/test-draft
func (h *AuthoringHandler) Open(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.authoringService.Open(c.Request.Context(), middleware.GetSession(c), id)
	if err != nil {
		failFrom(c, h.log, err, response.ErrLoadFailed)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

// Get godoc
// GET /api/v1/assignments/:id/test-draft
func (h *AuthoringHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.authoringService.Get(middleware.GetSession(c), id)
	h.reply(c, view, err)
}

// Discard godoc
// DELETE /api/v1/assignments/:id/test-draft
func (h *AuthoringHandler) Discard(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.authoringService.Discard(middleware.GetSession(c), id); err != nil {
		failFrom(c, h.log, err, response.ErrInternal)
		return
	}
	response.NoContent(c)
}

// SetTitle godoc
// PUT /api/v1/assignments/:id/test-draft/title
func (h *AuthoringHandler) SetTitle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req titleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	view, err := h.authoringService.SetTitle(middleware.GetSession(c), id, req.Title)
	h.reply(c, view, err)
}

// AddQuestion godoc
// POST /api/v1/assignments/:id/test-draft/questions
func (h *AuthoringHandler) AddQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.authoringService.AddQuestion(middleware.GetSession(c), id)
	h.reply(c, view, err)
}

// SetQuestion godoc
// PUT /api/v1/assignments/:id/test-draft/questions/:q
func (h *AuthoringHandler) SetQuestion(c *gin.Context) {
	id, q, ok := draftQuestion(c)
	if !ok {
		return
	}
	var req textRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	view, err := h.authoringService.SetQuestionText(middleware.GetSession(c), id, q, req.Text)
	h.reply(c, view, err)
}

// RemoveQuestion godoc
// DELETE /api/v1/assignments/:id/test-draft/questions/:q
func (h *AuthoringHandler) RemoveQuestion(c *gin.Context) {
	id, q, ok := draftQuestion(c)
	if !ok {
		return
	}
	view, err := h.authoringService.RemoveQuestion(middleware.GetSession(c), id, q)
	h.reply(c, view, err)
}

// AddAnswer godoc
// POST /api/v1/assignments/:id/test-draft/questions/:q/answers
func (h *AuthoringHandler) AddAnswer(c *gin.Context) {
	id, q, ok := draftQuestion(c)
	if !ok {
		return
	}
	view, err := h.authoringService.AddAnswer(middleware.GetSession(c), id, q)
	h.reply(c, view, err)
}

// SetAnswer godoc
// PUT /api/v1/assignments/:id/test-draft/questions/:q/answers/:a
func (h *AuthoringHandler) SetAnswer(c *gin.Context) {
	id, q, a, ok := draftAnswer(c)
	if !ok {
		return
	}
	var req textRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	view, err := h.authoringService.SetAnswerText(middleware.GetSession(c), id, q, a, req.Text)
	h.reply(c, view, err)
}

// RemoveAnswer godoc
// DELETE /api/v1/assignments/:id/test-draft/questions/:q/answers/:a
func (h *AuthoringHandler) RemoveAnswer(c *gin.Context) {
	id, q, a, ok := draftAnswer(c)
	if !ok {
		return
	}
	view, err := h.authoringService.RemoveAnswer(middleware.GetSession(c), id, q, a)
	h.reply(c, view, err)
}

// MarkCorrect godoc
// POST /api/v1/assignments/:id/test-draft/questions/:q/answers/:a/correct
func (h *AuthoringHandler) MarkCorrect(c *gin.Context) {
	id, q, a, ok := draftAnswer(c)
	if !ok {
		return
	}
	view, err := h.authoringService.SetCorrect(middleware.GetSession(c), id, q, a)
	h.reply(c, view, err)
}

// Next godoc
// POST /api/v1/assignments/:id/test-draft/next
// A failed step guard answers 200 with the inline error in the view.
func (h *AuthoringHandler) Next(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.authoringService.Next(middleware.GetSession(c), id)
	h.reply(c, view, err)
}

// Back godoc
// POST /api/v1/assignments/:id/test-draft/back
func (h *AuthoringHandler) Back(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.authoringService.Back(middleware.GetSession(c), id)
	h.reply(c, view, err)
}

// Submit godoc
// POST /api/v1/assignments/:id/test-draft/submit
// 201 with a redirect on success; 200 with the draft and its inline error
// when the upstream rejected it.
func (h *AuthoringHandler) Submit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := h.authoringService.Submit(c.Request.Context(), middleware.GetSession(c), id)
	if err != nil {
		failFrom(c, h.log, err, response.ErrInternal)
		return
	}
	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	response.Success(c, status, out)
}

func draftQuestion(c *gin.Context) (model.ID, int, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return "", 0, false
	}
	q, ok := pathIndex(c, "q")
	if !ok {
		return "", 0, false
	}
	return id, q, true
}

func draftAnswer(c *gin.Context) (model.ID, int, int, bool) {
	id, q, ok := draftQuestion(c)
	if !ok {
		return "", 0, 0, false
	}
	a, ok := pathIndex(c, "a")
	if !ok {
		return "", 0, 0, false
	}
	return id, q, a, true
}
