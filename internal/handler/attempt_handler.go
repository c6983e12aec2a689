package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/polytech/coursedesk/internal/middleware"
	"github.com/polytech/coursedesk/internal/response"
	"github.com/polytech/coursedesk/internal/service"
	"github.com/polytech/coursedesk/internal/testrun"
	"github.com/polytech/coursedesk/internal/validator"
	"github.com/rs/zerolog"
)

// AttemptHandler drives the timed test-taking screen.
// Routes live under /api/v1/tests/:id.
type AttemptHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService, log zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "attempt_handler").Logger(),
	}
}

func (h *AttemptHandler) reply(c *gin.Context, st *testrun.State, err error) {
	if err != nil {
		failFrom(c, h.log, err, response.ErrLoadFailed)
		return
	}
	response.Success(c, http.StatusOK, st)
}

// Start godoc
// POST /api/v1/tests/:id/attempt
// Loads the questions and starts the countdown. 409 if the test already
// has a result.
func (h *AttemptHandler) Start(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	st, err := h.attemptService.Start(c.Request.Context(), middleware.GetSession(c), id)
	if err != nil {
		failFrom(c, h.log, err, response.ErrQuestionsUnavailable)
		return
	}
	response.Success(c, http.StatusCreated, st)
}

// State godoc
// GET /api/v1/tests/:id/attempt
func (h *AttemptHandler) State(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	st, err := h.attemptService.State(middleware.GetSession(c), id)
	h.reply(c, st, err)
}

// Abandon godoc
// DELETE /api/v1/tests/:id/attempt
func (h *AttemptHandler) Abandon(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.attemptService.Abandon(middleware.GetSession(c), id); err != nil {
		failFrom(c, h.log, err, response.ErrInternal)
		return
	}
	response.NoContent(c)
}

// Answer godoc
// PUT /api/v1/tests/:id/attempt/answer
func (h *AttemptHandler) Answer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.SelectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	st, err := h.attemptService.Select(middleware.GetSession(c), id, req)
	h.reply(c, st, err)
}

// Navigate godoc
// POST /api/v1/tests/:id/attempt/navigate
func (h *AttemptHandler) Navigate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	st, err := h.attemptService.Navigate(middleware.GetSession(c), id, req)
	h.reply(c, st, err)
}

// Submit godoc
// POST /api/v1/tests/:id/attempt/submit
// A rejected submission answers 200 with the inline error in the state.
func (h *AttemptHandler) Submit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	st, err := h.attemptService.Submit(c.Request.Context(), middleware.GetSession(c), id)
	h.reply(c, st, err)
}

// Result godoc
// GET /api/v1/tests/:id/result
// The stored result of the caller for a test, 404 when there is none.
func (h *AttemptHandler) Result(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.attemptService.Result(c.Request.Context(), middleware.GetSession(c), id)
	if err != nil {
		failFrom(c, h.log, err, response.ErrLoadFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"result": res,
		"passed": res.Passed(),
		"band":   service.BandOf(res.Score),
	})
}
