package gateway

import (
	"context"
	"net/http"

	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
)

// SignUp registers a new account. POST /users/security/sign-up
func (c *Client) SignUp(ctx context.Context, req model.SignUpRequest) (*model.AuthResponse, error) {
	var out model.AuthResponse
	err := c.do(ctx, session.Anonymous(), call{
		op: "sign_up", method: http.MethodPost, path: "/users/security/sign-up",
		body: req, out: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn exchanges credentials for an access token. POST /users/security/sign-in
func (c *Client) SignIn(ctx context.Context, req model.SignInRequest) (*model.AuthResponse, error) {
	var out model.AuthResponse
	err := c.do(ctx, session.Anonymous(), call{
		op: "sign_in", method: http.MethodPost, path: "/users/security/sign-in",
		body: req, out: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser returns the signed-in account. GET /api/users/me
func (c *Client) CurrentUser(ctx context.Context, sess *session.Session) (*model.User, error) {
	var out model.User
	err := c.do(ctx, sess, call{op: "current_user", method: http.MethodGet, path: "/api/users/me", out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
