package catalog_test

import (
	"strings"
	"testing"

	"github.com/polytech/coursedesk/internal/catalog"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func course(id, subject, group, instructor string) model.Assignment {
	return model.Assignment{
		ID:         model.ID(id),
		Subject:    model.Subject{ID: model.ID(id), Name: subject},
		Group:      model.Group{ID: model.ID(id), Name: group},
		Instructor: model.Instructor{FullName: instructor},
	}
}

func fixtures() []model.Assignment {
	return []model.Assignment{
		course("1", "Тактика", "К-21", "Иванов Иван"),
		course("2", "Право", "К-22", "Петров Пётр"),
		course("3", "Физика", "К-21", "Сидорова Анна"),
		course("4", "Строевая подготовка", "К-23", "Иванов Иван"),
		course("5", "История права", "К-22", "Орлова Мария"),
	}
}

func TestApply_SearchMatchesAnyField(t *testing.T) {
	courses := fixtures()

	for _, search := range []string{"ПРАВ", "к-21", "иванов", "а"} {
		got := catalog.Apply(courses, catalog.Query{Search: search})
		needle := strings.ToLower(search)
		require.NotEmpty(t, got, "search %q", search)
		for _, c := range got {
			hit := strings.Contains(strings.ToLower(c.Subject.Name), needle) ||
				strings.Contains(strings.ToLower(c.Group.Name), needle) ||
				strings.Contains(strings.ToLower(c.Instructor.FullName), needle)
			assert.True(t, hit, "course %s does not contain %q", c.ID, search)
		}
	}
}

func TestApply_SearchIsCaseInsensitive(t *testing.T) {
	got := catalog.Apply(fixtures(), catalog.Query{Search: "ПРАВ"})

	ids := make([]model.ID, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []model.ID{"2", "5"}, ids)
}

func TestApply_SortIsNonDecreasing(t *testing.T) {
	fields := map[catalog.SortField]func(model.Assignment) string{
		catalog.SortBySubject:    func(c model.Assignment) string { return c.Subject.Name },
		catalog.SortByGroup:      func(c model.Assignment) string { return c.Group.Name },
		catalog.SortByInstructor: func(c model.Assignment) string { return c.Instructor.FullName },
	}

	for field, key := range fields {
		got := catalog.Apply(fixtures(), catalog.Query{SortBy: field})
		require.Len(t, got, 5)
		for i := 1; i < len(got); i++ {
			assert.LessOrEqual(t, key(got[i-1]), key(got[i]), "sort by %s at %d", field, i)
		}
	}
}

func TestApply_ExactFilters(t *testing.T) {
	got := catalog.Apply(fixtures(), catalog.Query{Group: "К-21", Instructor: "Иванов Иван"})
	require.Len(t, got, 1)
	assert.Equal(t, model.ID("1"), got[0].ID)

	assert.Empty(t, catalog.Apply(fixtures(), catalog.Query{Group: "К-2"}))
}

func TestApply_DoesNotReorderInput(t *testing.T) {
	courses := fixtures()
	_ = catalog.Apply(courses, catalog.Query{SortBy: catalog.SortByInstructor})
	assert.Equal(t, fixtures(), courses)
}

func TestParseSortField(t *testing.T) {
	assert.Equal(t, catalog.SortByGroup, catalog.ParseSortField("Group"))
	assert.Equal(t, catalog.SortByInstructor, catalog.ParseSortField(" instructor "))
	assert.Equal(t, catalog.SortBySubject, catalog.ParseSortField(""))
	assert.Equal(t, catalog.SortBySubject, catalog.ParseSortField("rating"))
}

func TestGroupsAndInstructors_FirstSeenOrder(t *testing.T) {
	assert.Equal(t, []string{"К-21", "К-22", "К-23"}, catalog.Groups(fixtures()))
	assert.Equal(t, []string{"Иванов Иван", "Петров Пётр", "Сидорова Анна", "Орлова Мария"}, catalog.Instructors(fixtures()))
}
