package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/polytech/coursedesk/internal/gateway"
)

// Common service errors. Handlers map them to response codes.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("session is not authenticated")
	ErrForbidden          = errors.New("instructor role required")
	ErrNotFound           = errors.New("resource not found")
)

// upstream wraps a gateway failure, mapping a 404 to ErrNotFound.
func upstream(op string, err error) error {
	if gateway.StatusOf(err) == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
