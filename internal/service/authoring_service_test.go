package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/service"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/polytech/coursedesk/internal/wizard"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthoring(t *testing.T) (*fakeUpstream, *session.Bus, *service.AuthoringService) {
	up := newUpstream(t)
	up.reply("GET /api/assignments/5", http.StatusOK, courseFixture())
	bus := session.NewBus()
	return up, bus, service.NewAuthoringService(up.client(), bus, zerolog.Nop())
}

// fillDraft walks a fresh draft to Review with one two-answer question.
func fillDraft(t *testing.T, svc *service.AuthoringService, sess *session.Session) {
	t.Helper()
	_, err := svc.Open(context.Background(), sess, "5")
	require.NoError(t, err)

	_, err = svc.SetTitle(sess, "5", "Контрольная")
	require.NoError(t, err)
	v, err := svc.Next(sess, "5")
	require.NoError(t, err)
	require.Equal(t, "questions", v.Step)

	_, err = svc.SetQuestionText(sess, "5", 0, "Сколько будет 2+2?")
	require.NoError(t, err)
	_, err = svc.SetAnswerText(sess, "5", 0, 0, "4")
	require.NoError(t, err)
	_, err = svc.AddAnswer(sess, "5", 0)
	require.NoError(t, err)
	_, err = svc.SetAnswerText(sess, "5", 0, 1, "5")
	require.NoError(t, err)
	_, err = svc.SetCorrect(sess, "5", 0, 0)
	require.NoError(t, err)

	v, err = svc.Next(sess, "5")
	require.NoError(t, err)
	require.Equal(t, "review", v.Step)
	require.True(t, v.CanSubmit)
}

func TestAuthoring_StudentsCannotOpen(t *testing.T) {
	_, _, svc := newAuthoring(t)
	_, err := svc.Open(context.Background(), student(), "5")
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestAuthoring_FreshDraft(t *testing.T) {
	_, _, svc := newAuthoring(t)
	sess := teacher()

	v, err := svc.Open(context.Background(), sess, "5")
	require.NoError(t, err)
	assert.Equal(t, "basic_info", v.Step)
	require.Len(t, v.Questions, 1)
	assert.Len(t, v.Questions[0].Answers, 1)
	assert.False(t, v.CanRemoveQuestion)
	assert.False(t, v.CanAdvance)

	v, err = svc.Next(sess, "5")
	require.NoError(t, err)
	assert.Equal(t, "basic_info", v.Step)
	assert.Equal(t, wizard.MessageRequiredFields, v.Error)
}

func TestAuthoring_SubmitCreatesTestAndDiscardsDraft(t *testing.T) {
	up, _, svc := newAuthoring(t)
	up.reply("POST /api/tests", http.StatusCreated, nil)
	sess := teacher()
	fillDraft(t, svc, sess)

	out, err := svc.Submit(context.Background(), sess, "5")
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.Equal(t, "/assignments/5", out.Redirect)

	req := up.last(http.MethodPost, "/api/tests")
	require.NotNil(t, req)
	q, err := url.ParseQuery(req.Query)
	require.NoError(t, err)
	assert.Equal(t, "5", q.Get("assignmentId"))
	assert.Equal(t, "Контрольная", q.Get("title"))

	var body []model.NewQuestion
	require.NoError(t, json.Unmarshal(req.Body, &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Сколько будет 2+2?", body[0].QuestionText)
	assert.Equal(t, []model.NewAnswer{{AnswerText: "4", IsCorrect: true}, {AnswerText: "5"}}, body[0].Answers)

	_, err = svc.Get(sess, "5")
	assert.ErrorIs(t, err, service.ErrDraftNotFound)
}

func TestAuthoring_SubmitFailureKeepsReview(t *testing.T) {
	up, _, svc := newAuthoring(t)
	up.reply("POST /api/tests", http.StatusInternalServerError, nil)
	sess := teacher()
	fillDraft(t, svc, sess)

	out, err := svc.Submit(context.Background(), sess, "5")
	require.NoError(t, err)
	assert.False(t, out.Created)
	require.NotNil(t, out.Draft)
	assert.Equal(t, "review", out.Draft.Step)
	assert.Equal(t, wizard.MessageSubmitFailed, out.Draft.Error)
	assert.True(t, out.Draft.CanSubmit)

	v, err := svc.Get(sess, "5")
	require.NoError(t, err)
	assert.Equal(t, "Контрольная", v.Title)
}

func TestAuthoring_SubmitOutsideReview(t *testing.T) {
	_, _, svc := newAuthoring(t)
	sess := teacher()
	_, err := svc.Open(context.Background(), sess, "5")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), sess, "5")
	assert.ErrorIs(t, err, wizard.ErrNotOnReview)
}

func TestAuthoring_SignOutDropsDrafts(t *testing.T) {
	_, bus, svc := newAuthoring(t)
	sess := teacher()
	other := teacher()

	_, err := svc.Open(context.Background(), sess, "5")
	require.NoError(t, err)
	_, err = svc.Open(context.Background(), other, "5")
	require.NoError(t, err)

	bus.Dispatch(session.Event{Kind: session.EventSignedOut, SessionID: sess.ID})

	_, err = svc.Get(sess, "5")
	assert.ErrorIs(t, err, service.ErrDraftNotFound)
	_, err = svc.Get(other, "5")
	assert.NoError(t, err)
}

func TestAuthoring_ExpiryDropsDrafts(t *testing.T) {
	_, bus, svc := newAuthoring(t)
	sess := teacher()
	other := teacher()

	_, err := svc.Open(context.Background(), sess, "5")
	require.NoError(t, err)
	_, err = svc.Open(context.Background(), other, "5")
	require.NoError(t, err)

	bus.Dispatch(session.Event{Kind: session.EventExpired, SessionID: sess.ID})
	_, err = svc.Get(sess, "5")
	assert.ErrorIs(t, err, service.ErrDraftNotFound)

	// Sessions that expire without any event are reaped by their deadline.
	assert.Equal(t, 0, svc.Reap(time.Now()))
	assert.Equal(t, 1, svc.Reap(other.ExpiresAt))
	_, err = svc.Get(other, "5")
	assert.ErrorIs(t, err, service.ErrDraftNotFound)
}

func TestAuthoring_Discard(t *testing.T) {
	_, _, svc := newAuthoring(t)
	sess := teacher()
	_, err := svc.Open(context.Background(), sess, "5")
	require.NoError(t, err)

	require.NoError(t, svc.Discard(sess, "5"))
	assert.ErrorIs(t, svc.Discard(sess, "5"), service.ErrDraftNotFound)
}
