package service_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/polytech/coursedesk/internal/gateway"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/rs/zerolog"
)

// fakeUpstream is a scripted course API.
type fakeUpstream struct {
	*httptest.Server
	mux *http.ServeMux

	mu       sync.Mutex
	requests []*recorded
}

type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
}

func newUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	u := &fakeUpstream{mux: http.NewServeMux()}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.requests = append(u.requests, &recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		u.mu.Unlock()
		u.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(u.Close)
	return u
}

// reply registers a canned JSON response for a method+path pattern.
func (u *fakeUpstream) reply(pattern string, status int, body interface{}) {
	u.mux.HandleFunc(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	})
}

// last returns the most recent request to path, or nil.
func (u *fakeUpstream) last(method, path string) *recorded {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i := len(u.requests) - 1; i >= 0; i-- {
		if r := u.requests[i]; r.Method == method && r.Path == path {
			return r
		}
	}
	return nil
}

func (u *fakeUpstream) client() *gateway.Client {
	return gateway.New(u.URL, 5*time.Second, nil, zerolog.Nop())
}

func newSession(role model.Role) *session.Session {
	now := time.Now()
	return session.New(model.AuthResponse{AccessToken: "upstream-token", UserID: "42", Role: role}, now, now.Add(time.Hour))
}

func teacher() *session.Session { return newSession(model.RoleInstructor) }
func student() *session.Session { return newSession(model.RoleStudent) }
