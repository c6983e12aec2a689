package service

import (
	"context"
	"encoding/json"
	"math"

	"github.com/polytech/coursedesk/internal/gateway"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Profile is the profile screen.
type Profile struct {
	User      model.User      `json:"user"`
	RoleLabel string          `json:"roleLabel"`
	Results   []ResultRow     `json:"results"`
	Completed int             `json:"completed"`
	Average   float64         `json:"averageScore"`
	Progress  json.RawMessage `json:"progress,omitempty"`
}

// ProfileService builds the profile screen.
type ProfileService struct {
	api *gateway.Client
	log zerolog.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(api *gateway.Client, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		api: api,
		log: log.With().Str("component", "profile_service").Logger(),
	}
}

// Get loads the user and their results together. The progress summary is
// best effort.
func (s *ProfileService) Get(ctx context.Context, sess *session.Session) (*Profile, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthorized
	}

	var (
		user     *model.User
		results  []model.TestResult
		progress json.RawMessage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		user, err = s.api.CurrentUser(gctx, sess)
		return err
	})
	g.Go(func() (err error) {
		results, err = s.api.TestResults(gctx, sess)
		return err
	})
	g.Go(func() error {
		raw, err := s.api.Progress(gctx, sess)
		if err != nil {
			s.log.Debug().Err(err).Msg("Progress summary unavailable")
			return nil
		}
		progress = raw
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, upstream("load profile", err)
	}

	completed, average := Stats(results)
	p := &Profile{
		User:      *user,
		RoleLabel: user.Role.Label(),
		Results:   make([]ResultRow, 0, len(results)),
		Completed: completed,
		Average:   average,
		Progress:  progress,
	}
	for _, r := range results {
		p.Results = append(p.Results, resultRow(r))
	}
	return p, nil
}

// Stats returns how many results passed and the mean score rounded to one
// decimal, 0 when there are none.
func Stats(results []model.TestResult) (completed int, average float64) {
	if len(results) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range results {
		sum += r.Score
		if r.Passed() {
			completed++
		}
	}
	average = math.Round(float64(sum)/float64(len(results))*10) / 10
	return completed, average
}
