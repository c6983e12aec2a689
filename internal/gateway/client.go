// Package gateway is the typed client of the course platform REST API.
// Every call takes the caller's session explicitly and attaches its bearer
// token when the session is authenticated. Responses are decoded into the
// model contracts and validated before they reach a view.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"time"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/rs/zerolog"
)

// maxErrorBody bounds how much of an upstream error body is kept for logs.
const maxErrorBody = 512

// Error is returned for every failed upstream call. Status is 0 when the
// request never produced a response.
type Error struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("%s: upstream status %d: %v", e.Op, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: upstream status %d", e.Op, e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Status
	}
	return 0
}

// ErrInvalidResponse marks a response that decoded but broke its contract.
var ErrInvalidResponse = errors.New("invalid upstream response")

// Client talks to the upstream course API.
type Client struct {
	baseURL  string
	http     *http.Client
	validate *govalidator.Validate
	metrics  *Metrics
	log      zerolog.Logger
}

// New creates a Client for baseURL (without trailing slash).
func New(baseURL string, timeout time.Duration, metrics *Metrics, log zerolog.Logger) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout}, metrics, log)
}

// NewWithHTTPClient creates a Client around an existing http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client, metrics *Metrics, log zerolog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     hc,
		validate: govalidator.New(govalidator.WithRequiredStructEnabled()),
		metrics:  metrics,
		log:      log.With().Str("component", "gateway").Logger(),
	}
}

// call is one upstream request description.
type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   interface{}
	out    interface{}
}

func (c *Client) do(ctx context.Context, sess *session.Session, cl call) error {
	start := time.Now()
	err := c.exchange(ctx, sess, cl)
	c.metrics.observe(cl.op, err, time.Since(start))

	if err != nil {
		c.log.Warn().Err(err).
			Str("op", cl.op).
			Dur("took", time.Since(start)).
			Msg("Upstream call failed")
	}
	return err
}

func (c *Client) exchange(ctx context.Context, sess *session.Session, cl call) error {
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return &Error{Op: cl.op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return &Error{Op: cl.op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := sess.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: cl.op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{Op: cl.op, Status: resp.StatusCode, Body: string(snippet)}
	}

	if cl.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
		return &Error{Op: cl.op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if err := c.check(cl.out); err != nil {
		return &Error{Op: cl.op, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// check validates a decoded struct or every struct element of a decoded slice.
func (c *Client) check(out interface{}) error {
	v := reflect.ValueOf(out)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		if err := c.validate.Struct(v.Interface()); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.Struct {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := c.validate.Struct(v.Index(i).Interface()); err != nil {
				return fmt.Errorf("%w: item %d: %v", ErrInvalidResponse, i, err)
			}
		}
	}
	return nil
}
