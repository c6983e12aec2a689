package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/polytech/coursedesk/internal/gateway"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/rs/zerolog"
)

// SignedIn is the outcome of a successful sign-in or sign-up.
type SignedIn struct {
	Token   string           `json:"token"`
	Session *session.Session `json:"-"`
	UserID  model.ID         `json:"userId"`
	Role    model.Role       `json:"role"`
	Expires time.Time        `json:"expiresAt"`
}

// AuthService signs users in against the upstream API and owns the BFF
// session lifecycle.
type AuthService struct {
	api    *gateway.Client
	store  session.Store
	events session.Publisher
	signer *session.Signer
	ttl    time.Duration
	log    zerolog.Logger
	now    func() time.Time
}

// NewAuthService creates a new AuthService. ttl is used when the upstream
// token carries no expiry.
func NewAuthService(
	api *gateway.Client,
	store session.Store,
	events session.Publisher,
	signer *session.Signer,
	ttl time.Duration,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		api:    api,
		store:  store,
		events: events,
		signer: signer,
		ttl:    ttl,
		log:    log.With().Str("component", "auth_service").Logger(),
		now:    time.Now,
	}
}

// SignIn exchanges credentials for an upstream token and opens a session.
// Signing in again always opens a fresh session.
func (s *AuthService) SignIn(ctx context.Context, req model.SignInRequest) (*SignedIn, error) {
	auth, err := s.api.SignIn(ctx, req)
	if err != nil {
		switch gateway.StatusOf(err) {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest, http.StatusNotFound:
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return s.open(ctx, auth)
}

// SignUp registers an account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, req model.SignUpRequest) (*SignedIn, error) {
	auth, err := s.api.SignUp(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return s.open(ctx, auth)
}

func (s *AuthService) open(ctx context.Context, auth *model.AuthResponse) (*SignedIn, error) {
	now := s.now()
	sess := session.New(*auth, now, session.Expiry(auth.AccessToken, now, s.ttl))

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	token, err := s.signer.Sign(sess)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, session.Event{Kind: session.EventSignedIn, SessionID: sess.ID, UserID: sess.UserID, At: now})
	s.log.Info().
		Str("session_id", sess.ID).
		Str("user_id", sess.UserID.String()).
		Str("role", string(sess.Role)).
		Msg("Session opened")

	return &SignedIn{
		Token:   token,
		Session: sess,
		UserID:  sess.UserID,
		Role:    sess.Role,
		Expires: sess.ExpiresAt,
	}, nil
}

// SignOut deletes the session and announces it so per-session state is dropped.
func (s *AuthService) SignOut(ctx context.Context, sess *session.Session) error {
	if !sess.Authenticated() {
		return ErrUnauthorized
	}
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.publish(ctx, session.Event{Kind: session.EventSignedOut, SessionID: sess.ID, UserID: sess.UserID, At: s.now()})
	s.log.Info().Str("session_id", sess.ID).Msg("Session closed")

	sess.SignOut()
	return nil
}

// Resolve turns a BFF token into its live session.
func (s *AuthService) Resolve(ctx context.Context, token string) (*session.Session, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	sess, err := s.store.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !sess.Authenticated() || sess.UserID.String() != claims.Subject {
		return nil, ErrUnauthorized
	}
	return sess, nil
}

// CurrentUser returns the signed-in account.
func (s *AuthService) CurrentUser(ctx context.Context, sess *session.Session) (*model.User, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthorized
	}
	u, err := s.api.CurrentUser(ctx, sess)
	if err != nil {
		return nil, upstream("current user", err)
	}
	return u, nil
}

func (s *AuthService) publish(ctx context.Context, ev session.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("Failed to publish session event")
	}
}
