// Package catalog narrows and orders the course list.
package catalog

import (
	"sort"
	"strings"

	"github.com/polytech/coursedesk/internal/model"
)

// SortField selects the course attribute the list is ordered by.
type SortField string

const (
	SortBySubject    SortField = "subject"
	SortByGroup      SortField = "group"
	SortByInstructor SortField = "instructor"
)

// ParseSortField maps a query value to a SortField, defaulting to subject.
func ParseSortField(raw string) SortField {
	switch SortField(strings.ToLower(strings.TrimSpace(raw))) {
	case SortByGroup:
		return SortByGroup
	case SortByInstructor:
		return SortByInstructor
	default:
		return SortBySubject
	}
}

// Query is the state of the list screen's search, filter and sort controls.
type Query struct {
	Search     string
	Group      string
	Instructor string
	SortBy     SortField
}

// Apply returns the courses matching q in q.SortBy order. The input slice is
// left untouched.
func Apply(courses []model.Assignment, q Query) []model.Assignment {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]model.Assignment, 0, len(courses))
	for _, c := range courses {
		if needle != "" && !matches(c, needle) {
			continue
		}
		if q.Group != "" && c.Group.Name != q.Group {
			continue
		}
		if q.Instructor != "" && c.Instructor.FullName != q.Instructor {
			continue
		}
		out = append(out, c)
	}

	key := keyFunc(q.SortBy)
	sort.SliceStable(out, func(i, j int) bool {
		return key(out[i]) < key(out[j])
	})
	return out
}

func matches(c model.Assignment, needle string) bool {
	return strings.Contains(strings.ToLower(c.Subject.Name), needle) ||
		strings.Contains(strings.ToLower(c.Group.Name), needle) ||
		strings.Contains(strings.ToLower(c.Instructor.FullName), needle)
}

func keyFunc(field SortField) func(model.Assignment) string {
	switch field {
	case SortByGroup:
		return func(c model.Assignment) string { return c.Group.Name }
	case SortByInstructor:
		return func(c model.Assignment) string { return c.Instructor.FullName }
	default:
		return func(c model.Assignment) string { return c.Subject.Name }
	}
}

// Groups returns the distinct group names in first-seen order.
func Groups(courses []model.Assignment) []string {
	return distinct(courses, func(c model.Assignment) string { return c.Group.Name })
}

// Instructors returns the distinct instructor names in first-seen order.
func Instructors(courses []model.Assignment) []string {
	return distinct(courses, func(c model.Assignment) string { return c.Instructor.FullName })
}

func distinct(courses []model.Assignment, field func(model.Assignment) string) []string {
	seen := make(map[string]struct{}, len(courses))
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		v := field(c)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
