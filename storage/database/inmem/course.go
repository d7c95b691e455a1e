package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course}
}

func cloneCourse(c course.Course) course.Course {
	c.Tags = cloneStrings(c.Tags)
	c.ChapterIDs = cloneStrings(c.ChapterIDs)
	c.QuizIDs = cloneStrings(c.QuizIDs)
	c.ContentOrder = cloneStrings(c.ContentOrder)
	return c
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c.Version == 0 {
		c.Version = 1
	}
	c = cloneCourse(c)
	repo.db.table[c.ID] = &c
	return cloneCourse(c), nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return cloneCourse(*c), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter, _ ...core.DBExecutor) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var ids map[string]struct{}
	if len(filter.IDs) > 0 {
		ids = idSet(filter.IDs)
	}
	courses := make([]course.Course, 0)
	for _, c := range repo.db.table {
		if ids != nil {
			if _, ok := ids[c.ID]; !ok {
				continue
			}
		}
		if filter.Creator != "" && c.Creator != filter.Creator {
			continue
		}
		courses = append(courses, cloneCourse(*c))
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses, nil
}

func matchesSearch(c *course.Course, filter course.SearchFilter) bool {
	if !c.IsPublished {
		return false
	}
	if filter.Category != "" && string(c.Category) != filter.Category {
		return false
	}
	if len(filter.Tags) > 0 {
		found := false
		for _, t := range filter.Tags {
			if core.ContainsString(c.Tags, t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Keyword != "" {
		kw := strings.ToLower(filter.Keyword)
		hit := strings.Contains(strings.ToLower(c.Title), kw) || strings.Contains(strings.ToLower(c.Description), kw)
		for _, t := range c.Tags {
			if hit {
				break
			}
			hit = strings.Contains(strings.ToLower(t), kw)
		}
		if !hit {
			return false
		}
	}
	return true
}

// lessByOrdering compares two courses on the given orderings; newest first when none is given.
func lessByOrdering(a, b course.Course, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var cmp int
		switch ord.Field {
		case "title":
			cmp = strings.Compare(a.Title, b.Title)
		case "price":
			cmp = a.Price.Cmp(b.Price)
		case "updated_at":
			cmp = compareTime(a.UpdatedAt.UnixNano(), b.UpdatedAt.UnixNano())
		default:
			cmp = compareTime(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
		}
		if cmp == 0 {
			continue
		}
		if ord.Ascending {
			return cmp < 0
		}
		return cmp > 0
	}
	if len(ordering) == 0 && !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

func compareTime(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (repo *courseRepository) search(filter course.SearchFilter) []course.Course {
	courses := make([]course.Course, 0)
	for _, c := range repo.db.table {
		if matchesSearch(c, filter) {
			courses = append(courses, cloneCourse(*c))
		}
	}
	return courses
}

func (repo *courseRepository) SearchCourses(_ context.Context, filter course.SearchFilter) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := repo.search(filter)
	sort.Slice(courses, func(i, j int) bool { return lessByOrdering(courses[i], courses[j], filter.Ordering) })

	skip := filter.Skip()
	if skip >= len(courses) {
		return []course.Course{}, nil
	}
	end := len(courses)
	if filter.Limit > 0 && skip+filter.Limit < end {
		end = skip + filter.Limit
	}
	return courses[skip:end], nil
}

func (repo *courseRepository) CountCourses(_ context.Context, filter course.SearchFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.search(filter)), nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[c.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	if orig.Version != c.Version {
		return course.Course{}, course.ErrVersionConflict
	}
	c = cloneCourse(c)
	c.Creator = orig.Creator
	c.QuizIDs = cloneStrings(orig.QuizIDs)
	c.CreatedAt = orig.CreatedAt
	c.Version++
	repo.db.table[c.ID] = &c
	return cloneCourse(c), nil
}

func (repo *courseRepository) LinkContent(_ context.Context, courseID string, kind course.ContentKind, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.table[courseID]
	if !ok {
		return course.ErrNotFound
	}
	refs := &c.ChapterIDs
	if kind == course.ContentQuiz {
		refs = &c.QuizIDs
	}
	if core.ContainsString(*refs, id) {
		return nil
	}
	*refs = append(*refs, id)
	if len(c.ContentOrder) > 0 {
		c.ContentOrder = append(c.ContentOrder, id)
	}
	c.Version++
	c.UpdatedAt = core.NowFunc()
	return nil
}

func (repo *courseRepository) UnlinkContent(_ context.Context, courseID string, kind course.ContentKind, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.table[courseID]
	if !ok {
		return course.ErrNotFound
	}
	if kind == course.ContentQuiz {
		c.QuizIDs = core.RemoveStrings(c.QuizIDs, id)
	} else {
		c.ChapterIDs = core.RemoveStrings(c.ChapterIDs, id)
	}
	c.ContentOrder = core.RemoveStrings(c.ContentOrder, id)
	c.Version++
	c.UpdatedAt = core.NowFunc()
	return nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
