package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/polytech/coursedesk/internal/gateway"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/response"
	"github.com/polytech/coursedesk/internal/service"
	"github.com/polytech/coursedesk/internal/testrun"
	"github.com/polytech/coursedesk/internal/wizard"
	"github.com/rs/zerolog"
)

// failFrom maps a service error onto the response envelope. upstreamCode is
// used when the course API itself failed.
func failFrom(c *gin.Context, log zerolog.Logger, err error, upstreamCode response.ErrCode) {
	status, code := classify(err, upstreamCode)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString(response.ContextKeyRequestID)).
			Msg("Request failed")
	}
	response.Fail(c, status, code)
}

func classify(err error, upstreamCode response.ErrCode) (int, response.ErrCode) {
	var issue *wizard.IssueError
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, response.ErrTokenInvalid
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, response.ErrInstructorOnly
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.ErrInvalidCredentials
	case errors.Is(err, service.ErrDraftNotFound):
		return http.StatusNotFound, response.ErrDraftNotFound
	case errors.Is(err, service.ErrAttemptNotFound), errors.Is(err, testrun.ErrClosed):
		return http.StatusNotFound, response.ErrAttemptNotFound
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, service.ErrAlreadyTaken):
		return http.StatusConflict, response.ErrTestAlreadyTaken
	case errors.Is(err, service.ErrQuestionsUnavailable):
		return http.StatusBadGateway, response.ErrQuestionsUnavailable

	case errors.As(err, &issue), errors.Is(err, wizard.ErrTitleRequired):
		return http.StatusUnprocessableEntity, response.ErrDraftIncomplete
	case errors.Is(err, wizard.ErrSubmitting), errors.Is(err, testrun.ErrSubmitting):
		return http.StatusConflict, response.ErrSubmitInProgress
	case errors.Is(err, wizard.ErrTooManyQuestions), errors.Is(err, wizard.ErrLastQuestion),
		errors.Is(err, wizard.ErrTooManyAnswers), errors.Is(err, wizard.ErrLastAnswer),
		errors.Is(err, wizard.ErrNoSuchQuestion), errors.Is(err, wizard.ErrNoSuchAnswer):
		return http.StatusUnprocessableEntity, response.ErrDraftRule
	case errors.Is(err, wizard.ErrFirstStep), errors.Is(err, wizard.ErrLastStep), errors.Is(err, wizard.ErrNotOnReview):
		return http.StatusConflict, response.ErrDraftRule

	case errors.Is(err, testrun.ErrIncomplete), errors.Is(err, testrun.ErrNoQuestions):
		return http.StatusUnprocessableEntity, response.ErrAnswersIncomplete
	case errors.Is(err, testrun.ErrNoSuchQuestion), errors.Is(err, testrun.ErrNoSuchAnswer), errors.Is(err, testrun.ErrOutOfRange):
		return http.StatusUnprocessableEntity, response.ErrAnswerInvalid
	case errors.Is(err, testrun.ErrFinished):
		return http.StatusConflict, response.ErrAttemptFinished
	}

	var ge *gateway.Error
	if errors.As(err, &ge) {
		return http.StatusBadGateway, upstreamCode
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// pathID reads a non-empty upstream id from the path.
func pathID(c *gin.Context, name string) (model.ID, bool) {
	raw := c.Param(name)
	if raw == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return model.ID(raw), true
}

// pathIndex reads a zero-based position from the path.
func pathIndex(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n < 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return n, true
}
