package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/polytech/coursedesk/internal/gateway"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedIn() *session.Session {
	now := time.Now()
	return session.New(model.AuthResponse{AccessToken: "up-token", UserID: "42", Role: model.RoleStudent}, now, now.Add(time.Hour))
}

func TestClient_SendsBearerAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer up-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/assignments", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]model.Assignment{{ID: "1", Subject: model.Subject{ID: "s", Name: "Физика"}}})
	}))
	defer srv.Close()

	api := gateway.New(srv.URL, time.Second, nil, zerolog.Nop())
	out, err := api.ListAssignments(context.Background(), signedIn())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Физика", out[0].Subject.Name)
}

func TestClient_AnonymousCallsSendNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(model.AuthResponse{AccessToken: "t", UserID: "1", Role: model.RoleStudent})
	}))
	defer srv.Close()

	api := gateway.New(srv.URL, time.Second, nil, zerolog.Nop())
	_, err := api.SignIn(context.Background(), model.SignInRequest{Email: "a@b.ru", Password: "x"})
	require.NoError(t, err)
}

func TestClient_StatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	api := gateway.New(srv.URL, time.Second, nil, zerolog.Nop())
	_, err := api.GetAssignment(context.Background(), signedIn(), "7")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, gateway.StatusOf(err))

	var ge *gateway.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "get_assignment", ge.Op)
	assert.Contains(t, ge.Body, "nope")
}

func TestClient_RejectsBrokenContract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Role outside the known set.
		_, _ = w.Write([]byte(`{"accessToken":"t","userId":"1","role":"ADMIN"}`))
	}))
	defer srv.Close()

	api := gateway.New(srv.URL, time.Second, nil, zerolog.Nop())
	_, err := api.SignIn(context.Background(), model.SignInRequest{Email: "a@b.ru", Password: "x"})
	assert.ErrorIs(t, err, gateway.ErrInvalidResponse)
}

func TestClient_CreateTestQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "7", r.URL.Query().Get("assignmentId"))
		assert.Equal(t, "Закон Ома", r.URL.Query().Get("title"))
		var body []model.NewQuestion
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body, 1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	api := gateway.New(srv.URL, time.Second, nil, zerolog.Nop())
	err := api.CreateTest(context.Background(), signedIn(), "7", "Закон Ома", []model.NewQuestion{{QuestionText: "q"}})
	require.NoError(t, err)
}

func TestMetrics_CountOutcomes(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(model.User{ID: "1"})
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	api := gateway.New(srv.URL, time.Second, gateway.NewMetrics(reg), zerolog.Nop())

	_, _ = api.CurrentUser(context.Background(), signedIn())
	fail.Store(false)
	_, _ = api.CurrentUser(context.Background(), signedIn())

	expected := `
# HELP coursedesk_upstream_requests_total Upstream course API calls by operation and outcome.
# TYPE coursedesk_upstream_requests_total counter
coursedesk_upstream_requests_total{op="current_user",outcome="error"} 1
coursedesk_upstream_requests_total{op="current_user",outcome="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "coursedesk_upstream_requests_total"))
}
