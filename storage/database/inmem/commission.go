package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/elimu/core/course"
)

type commissionRepository struct {
	db *commissionTable
}

var _ course.CommissionRepository = (*commissionRepository)(nil) // interface compliance check

func NewCommissionRepository(db *DB) *commissionRepository {
	return &commissionRepository{db: db.commission}
}

func (repo *commissionRepository) CreateCommission(_ context.Context, c course.Commission) (course.Commission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[c.CourseID]; ok {
		return course.Commission{}, course.ErrCommissionExists
	}
	repo.db.table[c.CourseID] = &c
	return c, nil
}

func (repo *commissionRepository) GetCommission(_ context.Context, courseID string) (course.Commission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[courseID]; ok {
		return *c, nil
	}
	return course.Commission{}, course.ErrCommissionNotFound
}

func (repo *commissionRepository) QueryCommissions(_ context.Context, creatorID string) ([]course.Commission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	comms := make([]course.Commission, 0)
	for _, c := range repo.db.table {
		if creatorID == "" || c.CreatorID == creatorID {
			comms = append(comms, *c)
		}
	}
	sort.Slice(comms, func(i, j int) bool { return comms[i].CreatedAt.Before(comms[j].CreatedAt) })
	return comms, nil
}
