package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polytech/coursedesk/internal/config"
	"github.com/polytech/coursedesk/internal/gateway"
	"github.com/polytech/coursedesk/internal/handler"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/response"
	"github.com/polytech/coursedesk/internal/router"
	"github.com/polytech/coursedesk/internal/service"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/polytech/coursedesk/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

type app struct {
	t   *testing.T
	srv *httptest.Server
}

// upstreamAPI scripts the course platform: teacher@ accounts are
// instructors, everyone else a student.
func upstreamAPI(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if v != nil {
			_ = json.NewEncoder(w).Encode(v)
		}
	}

	mux.HandleFunc("POST /users/security/sign-in", func(w http.ResponseWriter, r *http.Request) {
		var req model.SignInRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			reply(w, http.StatusUnauthorized, nil)
			return
		}
		role := model.RoleStudent
		if strings.HasPrefix(req.Email, "teacher@") {
			role = model.RoleInstructor
		}
		reply(w, http.StatusOK, model.AuthResponse{AccessToken: "up-" + req.Email, UserID: "42", Role: role})
	})
	mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, model.User{ID: "42", FullName: "Иванов Иван", Email: "teacher@poly.ru", Role: model.RoleInstructor})
	})
	mux.HandleFunc("GET /api/assignments/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "7" {
			reply(w, http.StatusNotFound, nil)
			return
		}
		reply(w, http.StatusOK, model.Assignment{ID: "7", Subject: model.Subject{ID: "1", Name: "Физика"}})
	})
	mux.HandleFunc("POST /api/tests", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusCreated, nil)
	})
	mux.HandleFunc("GET /api/progress/test-results/by-test-id/{id}", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusNotFound, nil)
	})
	mux.HandleFunc("GET /api/tests/3/questions", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, []model.Question{
			{ID: "10", Text: "Сила тока?", Answers: []model.Answer{{ID: "100", Text: "Ампер"}, {ID: "101", Text: "Вольт"}}},
		})
	})
	mux.HandleFunc("POST /api/tests/3/submit", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusOK, model.SubmitTestResponse{Score: 100, Test: model.Test{ID: "3"}, User: model.User{ID: "42"}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newApp(t *testing.T, signInRate int) *app {
	t.Helper()
	up := upstreamAPI(t)
	log := zerolog.Nop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	api := gateway.New(up.URL, 5*time.Second, gateway.NewMetrics(reg), log)
	bus := session.NewBus()
	store := session.NewMemoryStore()

	authService := service.NewAuthService(api, store, bus, session.NewSigner("test-secret"), time.Hour, log)
	attemptService := service.NewAttemptService(api, bus, 30*time.Minute, log)
	t.Cleanup(attemptService.Shutdown)

	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, log),
		Course:    handler.NewCourseHandler(service.NewCourseService(api, log), log),
		Content:   handler.NewContentHandler(service.NewContentService(api, log), log),
		Authoring: handler.NewAuthoringHandler(service.NewAuthoringService(api, bus, log), log),
		Attempt:   handler.NewAttemptHandler(attemptService, log),
		Progress:  handler.NewProgressHandler(service.NewProfileService(api, log), service.NewResultService(api, log), log),
		Stream:    handler.NewAttemptStreamHandler(attemptService, log, nil),
		System:    handler.NewSystemHandler("memory", nil, log),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := &config.Config{GinMode: gin.TestMode, SignInRatePerMinute: signInRate}

	srv := httptest.NewServer(router.SetupRouter(ctx, authService, handlers, cfg, reg))
	t.Cleanup(srv.Close)
	return &app{t: t, srv: srv}
}

func (a *app) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.srv.URL+path, &buf)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&env)
	}
	return resp.StatusCode, env
}

func (a *app) signIn(email string) string {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/v1/auth/sign-in", "", model.SignInRequest{Email: email, Password: "secret"})
	require.Equal(a.t, http.StatusOK, status)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(a.t, out.Token)
	return out.Token
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	a := newApp(t, 30)

	resp, err := a.srv.Client().Get(a.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "memory", health["session_backend"])

	// One upstream call so the gateway series exist.
	a.signIn("student@poly.ru")

	resp, err = a.srv.Client().Get(a.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	assert.Contains(t, body.String(), "coursedesk_upstream_requests_total")
}

func TestSessionLifecycle(t *testing.T) {
	a := newApp(t, 30)

	status, env := a.do(http.MethodGet, "/api/v1/auth/session", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ANONYMOUS", decode[map[string]interface{}](t, env)["state"])

	status, env = a.do(http.MethodPost, "/api/v1/auth/sign-in", "", model.SignInRequest{Email: "teacher@poly.ru", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, response.ErrInvalidCredentials, env.Error.Code)

	status, env = a.do(http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, response.ErrValidation, env.Error.Code)
	assert.NotEmpty(t, env.Error.Fields)

	token := a.signIn("teacher@poly.ru")

	status, env = a.do(http.MethodGet, "/api/v1/auth/session", token, nil)
	require.Equal(t, http.StatusOK, status)
	st := decode[map[string]interface{}](t, env)
	assert.Equal(t, "AUTHENTICATED", st["state"])
	assert.Equal(t, true, st["isTeacher"])

	status, env = a.do(http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Преподаватель", decode[map[string]interface{}](t, env)["roleLabel"])

	status, _ = a.do(http.MethodPost, "/api/v1/auth/sign-out", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = a.do(http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, response.ErrTokenInvalid, env.Error.Code)
}

func TestAuthGuards(t *testing.T) {
	a := newApp(t, 30)

	status, env := a.do(http.MethodGet, "/api/v1/assignments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, response.ErrTokenRequired, env.Error.Code)

	status, _ = a.do(http.MethodGet, "/api/v1/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	token := a.signIn("student@poly.ru")
	status, env = a.do(http.MethodPost, "/api/v1/assignments/7/test-draft", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, response.ErrInstructorOnly, env.Error.Code)
}

func TestSignInRateLimit(t *testing.T) {
	a := newApp(t, 2)

	for i := 0; i < 2; i++ {
		status, _ := a.do(http.MethodPost, "/api/v1/auth/sign-in", "", model.SignInRequest{Email: "student@poly.ru", Password: "secret"})
		require.Equal(t, http.StatusOK, status)
	}
	status, env := a.do(http.MethodPost, "/api/v1/auth/sign-in", "", model.SignInRequest{Email: "student@poly.ru", Password: "secret"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, response.ErrRateLimitExceeded, env.Error.Code)
}

func TestWizardOverHTTP(t *testing.T) {
	a := newApp(t, 30)
	token := a.signIn("teacher@poly.ru")
	base := "/api/v1/assignments/7/test-draft"

	status, _ := a.do(http.MethodPost, "/api/v1/assignments/99/test-draft", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env := a.do(http.MethodPost, base, token, nil)
	require.Equal(t, http.StatusCreated, status)
	view := decode[service.DraftView](t, env)
	assert.Equal(t, "basic_info", view.Step)
	require.Len(t, view.Questions, 1)

	// Empty title: the guard keeps the step and reports inline.
	status, env = a.do(http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusOK, status)
	view = decode[service.DraftView](t, env)
	assert.Equal(t, "basic_info", view.Step)
	assert.Equal(t, "Заполните все обязательные поля", view.Error)

	status, _ = a.do(http.MethodPut, base+"/title", token, map[string]string{"title": "Закон Ома"})
	require.Equal(t, http.StatusOK, status)
	status, env = a.do(http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "questions", decode[service.DraftView](t, env).Step)

	a.do(http.MethodPut, base+"/questions/0", token, map[string]string{"text": "Единица силы тока?"})
	a.do(http.MethodPost, base+"/questions/0/answers", token, nil)
	a.do(http.MethodPut, base+"/questions/0/answers/0", token, map[string]string{"text": "Ампер"})
	a.do(http.MethodPut, base+"/questions/0/answers/1", token, map[string]string{"text": "Вольт"})
	status, _ = a.do(http.MethodPost, base+"/questions/0/answers/0/correct", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = a.do(http.MethodPut, base+"/questions/5", token, map[string]string{"text": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, response.ErrDraftRule, env.Error.Code)

	status, env = a.do(http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusOK, status)
	view = decode[service.DraftView](t, env)
	assert.Equal(t, "review", view.Step)
	assert.True(t, view.CanSubmit)

	status, env = a.do(http.MethodPost, base+"/submit", token, nil)
	require.Equal(t, http.StatusCreated, status)
	out := decode[service.SubmitOutcome](t, env)
	assert.True(t, out.Created)
	assert.Equal(t, "/assignments/7", out.Redirect)

	// The draft is gone after a successful submit.
	status, env = a.do(http.MethodGet, base, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, response.ErrDraftNotFound, env.Error.Code)
}

func TestAttemptWithCountdownStream(t *testing.T) {
	a := newApp(t, 30)
	token := a.signIn("student@poly.ru")
	base := "/api/v1/tests/3/attempt"

	status, _ := a.do(http.MethodGet, base, token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env := a.do(http.MethodPost, base, token, nil)
	require.Equal(t, http.StatusCreated, status)
	st := decode[map[string]interface{}](t, env)
	assert.EqualValues(t, 1, st["total"])
	assert.Equal(t, false, st["canSubmit"])

	wsURL := "ws" + strings.TrimPrefix(a.srv.URL, "http") + "/ws/v1/tests/3/attempt/stream?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first map[string]interface{}
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "tick", first["event"])
	assert.Regexp(t, `^\d\d:\d\d$`, first["clock"])

	status, env = a.do(http.MethodPost, base+"/submit", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, response.ErrAnswersIncomplete, env.Error.Code)

	status, env = a.do(http.MethodPut, base+"/answer", token, service.SelectRequest{QuestionID: "10", AnswerID: "999"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, response.ErrAnswerInvalid, env.Error.Code)

	status, env = a.do(http.MethodPut, base+"/answer", token, service.SelectRequest{QuestionID: "10", AnswerID: "100"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, decode[map[string]interface{}](t, env)["canSubmit"])

	status, env = a.do(http.MethodPost, base+"/submit", token, nil)
	require.Equal(t, http.StatusOK, status)
	result := decode[map[string]interface{}](t, env)["result"].(map[string]interface{})
	assert.EqualValues(t, 100, result["score"])
	assert.Equal(t, true, result["passed"])

	// The stream ends with the result event, skipping any ticks before it.
	for {
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg["event"] == "result" {
			assert.NotNil(t, msg["result"])
			break
		}
		require.Equal(t, "tick", msg["event"])
	}
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))

	// A stream opened on a finished attempt sends the result and closes.
	late, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer late.Close()
	_ = late.SetReadDeadline(time.Now().Add(5 * time.Second))

	var only map[string]interface{}
	require.NoError(t, late.ReadJSON(&only))
	assert.Equal(t, "result", only["event"])
	_, _, err = late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))

	// Without a token the upgrade is refused before the handshake.
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(a.srv.URL, "http")+"/ws/v1/tests/3/attempt/stream", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
