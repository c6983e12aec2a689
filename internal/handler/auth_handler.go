package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/polytech/coursedesk/internal/middleware"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/response"
	"github.com/polytech/coursedesk/internal/service"
	"github.com/polytech/coursedesk/internal/validator"
	"github.com/rs/zerolog"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// SignIn godoc
// POST /api/v1/auth/sign-in
// Exchanges email + password for a BFF session token.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req model.SignInRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	out, err := h.authService.SignIn(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		failFrom(c, h.log, err, response.ErrInvalidCredentials)
		return
	}

	response.Success(c, http.StatusOK, out)
}

// SignUp godoc
// POST /api/v1/auth/sign-up
// Registers an account and signs it in.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req model.SignUpRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	out, err := h.authService.SignUp(c.Request.Context(), req)
	if err != nil {
		h.log.Warn().Err(err).Str("email", req.Email).Msg("Sign-up rejected")
		response.Fail(c, http.StatusBadRequest, response.ErrSignUpFailed)
		return
	}

	response.Success(c, http.StatusCreated, out)
}

// Session godoc
// GET /api/v1/auth/session
// Reports the lifecycle state of the caller's session. Anonymous callers get
// {"state":"ANONYMOUS"} rather than an error.
func (h *AuthHandler) Session(c *gin.Context) {
	sess := middleware.GetSession(c)
	if !sess.Authenticated() {
		response.Success(c, http.StatusOK, gin.H{"state": sess.State, "isTeacher": false})
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"state":     sess.State,
		"userId":    sess.UserID,
		"role":      sess.Role,
		"isTeacher": sess.IsTeacher(),
		"expiresAt": sess.ExpiresAt,
	})
}

// SignOut godoc
// POST /api/v1/auth/sign-out
// Ends the session; drafts and attempts of the session are dropped.
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.authService.SignOut(c.Request.Context(), middleware.GetSession(c)); err != nil {
		failFrom(c, h.log, err, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": "ANONYMOUS"})
}

// Me godoc
// GET /api/v1/me
// Returns the header data: current user and role label.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.CurrentUser(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		failFrom(c, h.log, err, response.ErrLoadFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user":      user,
		"roleLabel": user.Role.Label(),
	})
}
