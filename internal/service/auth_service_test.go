package service_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/service"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	up     *fakeUpstream
	store  *session.MemoryStore
	bus    *session.Bus
	svc    *service.AuthService
	mu     sync.Mutex
	events []session.Event
}

func newAuthFixture(t *testing.T) *authFixture {
	f := &authFixture{up: newUpstream(t), store: session.NewMemoryStore(), bus: session.NewBus()}
	f.bus.Subscribe(func(ev session.Event) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.events = append(f.events, ev)
	})
	f.svc = service.NewAuthService(f.up.client(), f.store, f.bus, session.NewSigner("test-secret"), 24*time.Hour, zerolog.Nop())
	return f
}

func (f *authFixture) kinds() []session.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]session.EventKind, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestSignIn_StudentIsNotTeacher(t *testing.T) {
	f := newAuthFixture(t)
	f.up.reply("POST /users/security/sign-in", http.StatusOK, model.AuthResponse{
		AccessToken: "abc", UserID: "7", Role: model.RoleStudent,
	})

	out, err := f.svc.SignIn(context.Background(), model.SignInRequest{Email: "s@example.com", Password: "secret"})
	require.NoError(t, err)

	assert.False(t, out.Session.IsTeacher())
	assert.Equal(t, model.RoleStudent, out.Role)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, []session.EventKind{session.EventSignedIn}, f.kinds())

	sess, err := f.svc.Resolve(context.Background(), out.Token)
	require.NoError(t, err)
	assert.Equal(t, "abc", sess.Token())
	assert.Equal(t, model.ID("7"), sess.UserID)
}

func TestSignIn_RejectedCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.up.reply("POST /users/security/sign-in", http.StatusUnauthorized, map[string]string{"message": "bad"})

	_, err := f.svc.SignIn(context.Background(), model.SignInRequest{Email: "s@example.com", Password: "nope"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.Empty(t, f.kinds())
}

func TestSignIn_InvalidAuthResponse(t *testing.T) {
	f := newAuthFixture(t)
	f.up.reply("POST /users/security/sign-in", http.StatusOK, map[string]string{"accessToken": "abc", "userId": "7", "role": "ADMIN"})

	_, err := f.svc.SignIn(context.Background(), model.SignInRequest{Email: "s@example.com", Password: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestSignUp_OpensSession(t *testing.T) {
	f := newAuthFixture(t)
	f.up.reply("POST /users/security/sign-up", http.StatusOK, model.AuthResponse{
		AccessToken: "new", UserID: "9", Role: model.RoleInstructor,
	})

	out, err := f.svc.SignUp(context.Background(), model.SignUpRequest{FirstName: "Анна", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, out.Session.IsTeacher())
	assert.Contains(t, string(f.up.last(http.MethodPost, "/users/security/sign-up").Body), `"firstName":"Анна"`)
}

func TestSignOut_DeletesSessionAndPublishes(t *testing.T) {
	f := newAuthFixture(t)
	f.up.reply("POST /users/security/sign-in", http.StatusOK, model.AuthResponse{
		AccessToken: "abc", UserID: "7", Role: model.RoleStudent,
	})
	out, err := f.svc.SignIn(context.Background(), model.SignInRequest{Email: "s@example.com", Password: "secret"})
	require.NoError(t, err)

	sess, err := f.svc.Resolve(context.Background(), out.Token)
	require.NoError(t, err)
	require.NoError(t, f.svc.SignOut(context.Background(), sess))

	assert.False(t, sess.Authenticated())
	assert.Equal(t, []session.EventKind{session.EventSignedIn, session.EventSignedOut}, f.kinds())

	_, err = f.svc.Resolve(context.Background(), out.Token)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.SignOut(context.Background(), sess), service.ErrUnauthorized)
}

func TestResolve_RejectsForeignToken(t *testing.T) {
	f := newAuthFixture(t)
	other := session.NewSigner("other-secret")
	token, err := other.Sign(student())
	require.NoError(t, err)

	_, err = f.svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestCurrentUser_SendsBearer(t *testing.T) {
	f := newAuthFixture(t)
	f.up.reply("GET /api/users/me", http.StatusOK, model.User{ID: "42", FullName: "Иван Иванов", Role: model.RoleStudent})

	u, err := f.svc.CurrentUser(context.Background(), student())
	require.NoError(t, err)
	assert.Equal(t, "Иван Иванов", u.FullName)
	assert.Equal(t, "Bearer upstream-token", f.up.last(http.MethodGet, "/api/users/me").Auth)

	_, err = f.svc.CurrentUser(context.Background(), session.Anonymous())
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}
