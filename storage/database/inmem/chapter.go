package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/chapter"
)

type chapterRepository struct {
	db *chapterTable
}

var _ chapter.Repository = (*chapterRepository)(nil) // interface compliance check

func NewChapterRepository(db *DB) *chapterRepository {
	return &chapterRepository{db: db.chapter}
}

func (repo *chapterRepository) CreateChapter(_ context.Context, ch chapter.Chapter, _ ...core.DBExecutor) (chapter.Chapter, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, c := range repo.db.table {
		if c.CourseID == ch.CourseID && c.Number == ch.Number {
			return chapter.Chapter{}, chapter.ErrNumberTaken
		}
	}
	repo.db.table[ch.ID] = &ch
	return ch, nil
}

func (repo *chapterRepository) GetChapter(_ context.Context, id string, _ ...core.DBExecutor) (chapter.Chapter, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ch, ok := repo.db.table[id]; ok {
		return *ch, nil
	}
	return chapter.Chapter{}, chapter.ErrNotFound
}

func (repo *chapterRepository) QueryChapters(_ context.Context, filter chapter.QueryFilter, _ ...core.DBExecutor) ([]chapter.Chapter, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var ids map[string]struct{}
	if len(filter.IDs) > 0 {
		ids = idSet(filter.IDs)
	}
	chs := make([]chapter.Chapter, 0)
	for _, ch := range repo.db.table {
		if ids != nil {
			if _, ok := ids[ch.ID]; !ok {
				continue
			}
		}
		if filter.CourseID != "" && ch.CourseID != filter.CourseID {
			continue
		}
		chs = append(chs, *ch)
	}
	sort.Slice(chs, func(i, j int) bool {
		if chs[i].CourseID != chs[j].CourseID {
			return chs[i].CourseID < chs[j].CourseID
		}
		return chs[i].Number < chs[j].Number
	})
	return chs, nil
}

func (repo *chapterRepository) CountChapters(_ context.Context, courseID string, _ ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	n := 0
	for _, ch := range repo.db.table {
		if ch.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (repo *chapterRepository) UpdateChapter(_ context.Context, ch chapter.Chapter, _ ...core.DBExecutor) (chapter.Chapter, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[ch.ID]
	if !ok {
		return chapter.Chapter{}, chapter.ErrNotFound
	}
	ch.CourseID = orig.CourseID
	ch.CreatorID = orig.CreatorID
	ch.Number = orig.Number
	ch.CreatedAt = orig.CreatedAt
	repo.db.table[ch.ID] = &ch
	return ch, nil
}

func (repo *chapterRepository) RenumberChapter(_ context.Context, id string, number int, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	ch, ok := repo.db.table[id]
	if !ok {
		return chapter.ErrNotFound
	}
	ch.Number = number
	ch.UpdatedAt = core.NowFunc()
	return nil
}

func (repo *chapterRepository) DeleteChapter(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return chapter.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *chapterRepository) ShiftNumbersAfter(_ context.Context, courseID string, number int, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n := 0
	now := core.NowFunc()
	for _, ch := range repo.db.table {
		if ch.CourseID == courseID && ch.Number > number {
			ch.Number--
			ch.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (repo *chapterRepository) DeleteChaptersByCourse(_ context.Context, courseID string, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n := 0
	for id, ch := range repo.db.table {
		if ch.CourseID == courseID {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}
