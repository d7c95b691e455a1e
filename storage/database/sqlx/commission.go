package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

const commissionColumns = `id, course_id, creator_id, creator_share, created_at`

type commissionRow struct {
	ID           string          `db:"id"`
	CourseID     string          `db:"course_id"`
	CreatorID    string          `db:"creator_id"`
	CreatorShare decimal.Decimal `db:"creator_share"`
	CreatedAt    time.Time       `db:"created_at"`
}

func (r commissionRow) toCommission() course.Commission {
	return course.Commission{
		ID:           r.ID,
		CourseID:     r.CourseID,
		CreatorID:    r.CreatorID,
		CreatorShare: r.CreatorShare,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

type commissionRepository struct {
	base
}

var _ course.CommissionRepository = (*commissionRepository)(nil) // interface compliance check

func NewCommissionRepository(exec core.DBExecutor) *commissionRepository {
	return &commissionRepository{base{exec: exec}}
}

func (repo commissionRepository) CreateCommission(ctx context.Context, c course.Commission) (course.Commission, error) {
	q := `INSERT INTO commissions (` + commissionColumns + `) VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.exec.ExecContext(ctx, q, c.ID, c.CourseID, c.CreatorID, c.CreatorShare, c.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return course.Commission{}, course.ErrCommissionExists
	}
	if err != nil {
		return course.Commission{}, errors.Wrap(err, "inserting commission")
	}
	return c, nil
}

func (repo commissionRepository) GetCommission(ctx context.Context, courseID string) (course.Commission, error) {
	var row commissionRow
	q := `SELECT ` + commissionColumns + ` FROM commissions WHERE course_id = $1`
	if err := repo.exec.GetContext(ctx, &row, q, courseID); err != nil {
		return course.Commission{}, trapNoRowsErr(err, course.ErrCommissionNotFound, "selecting commission")
	}
	return row.toCommission(), nil
}

func (repo commissionRepository) QueryCommissions(ctx context.Context, creatorID string) ([]course.Commission, error) {
	var w whereBuilder
	if creatorID != "" {
		w.add("creator_id = " + w.arg(creatorID))
	}
	var rows []commissionRow
	q := `SELECT ` + commissionColumns + ` FROM commissions` + w.String() + ` ORDER BY created_at ASC`
	if err := repo.exec.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting commissions")
	}
	comms := make([]course.Commission, 0, len(rows))
	for _, r := range rows {
		comms = append(comms, r.toCommission())
	}
	return comms, nil
}
