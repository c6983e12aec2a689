package service

import (
	"context"

	"github.com/polytech/coursedesk/internal/gateway"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/rs/zerolog"
)

// ResultFilter narrows the results screen.
type ResultFilter string

const (
	FilterAll    ResultFilter = "all"
	FilterPassed ResultFilter = "passed"
	FilterFailed ResultFilter = "failed"
)

// ParseResultFilter maps a query value to a filter, defaulting to all.
func ParseResultFilter(raw string) ResultFilter {
	switch ResultFilter(raw) {
	case FilterPassed, FilterFailed:
		return ResultFilter(raw)
	default:
		return FilterAll
	}
}

// Keep reports whether a result passes the filter.
func (f ResultFilter) Keep(r model.TestResult) bool {
	switch f {
	case FilterPassed:
		return r.Passed()
	case FilterFailed:
		return !r.Passed()
	default:
		return true
	}
}

// ScoreBand colours a score badge.
type ScoreBand string

const (
	BandHigh   ScoreBand = "high"
	BandMedium ScoreBand = "medium"
	BandLow    ScoreBand = "low"
)

// BandOf returns the band of a score.
func BandOf(score int) ScoreBand {
	switch {
	case score >= 80:
		return BandHigh
	case score >= 60:
		return BandMedium
	default:
		return BandLow
	}
}

// ResultRow is one result line.
type ResultRow struct {
	ID        model.ID  `json:"id"`
	Student   string    `json:"student,omitempty"`
	Email     string    `json:"email,omitempty"`
	TestID    model.ID  `json:"testId"`
	TestTitle string    `json:"testTitle"`
	Score     int       `json:"score"`
	Passed    bool      `json:"passed"`
	Band      ScoreBand `json:"band"`
	Date      string    `json:"date"`
}

func resultRow(r model.TestResult) ResultRow {
	return ResultRow{
		ID:        r.ID,
		Student:   r.User.FullName,
		Email:     r.User.Email,
		TestID:    r.Test.ID,
		TestTitle: r.Test.Title,
		Score:     r.Score,
		Passed:    r.Passed(),
		Band:      BandOf(r.Score),
		Date:      r.CreatedAt.Date(),
	}
}

// AssignmentResults is the instructor's results screen of a course.
type AssignmentResults struct {
	Filter  ResultFilter `json:"filter"`
	Results []ResultRow  `json:"results"`
	Total   int          `json:"total"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
}

// ResultService builds the course results screen.
type ResultService struct {
	api *gateway.Client
	log zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(api *gateway.Client, log zerolog.Logger) *ResultService {
	return &ResultService{
		api: api,
		log: log.With().Str("component", "result_service").Logger(),
	}
}

// ForAssignment lists the results of a course's tests. Counts cover the
// unfiltered set.
func (s *ResultService) ForAssignment(ctx context.Context, sess *session.Session, assignmentID model.ID, filter ResultFilter) (*AssignmentResults, error) {
	if !sess.IsTeacher() {
		return nil, ErrForbidden
	}

	all, err := s.api.TestResultsByAssignment(ctx, sess, assignmentID)
	if err != nil {
		return nil, upstream("load course results", err)
	}

	out := &AssignmentResults{Filter: filter, Results: []ResultRow{}, Total: len(all)}
	for _, r := range all {
		if r.Passed() {
			out.Passed++
		} else {
			out.Failed++
		}
		if filter.Keep(r) {
			out.Results = append(out.Results, resultRow(r))
		}
	}
	return out, nil
}
