package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/elimu/core"
)

func (cli *commandLine) setCommission(courseID, share string) error {
	pct, err := decimal.NewFromString(share)
	if err != nil {
		return errors.Wrapf(err, "parsing share %q", share)
	}
	comm, err := cli.courseSvc.SetCommission(context.Background(), courseID, pct)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "commission set: course %s, creator %s gets %s%%\n", comm.CourseID, comm.CreatorID, comm.CreatorShare)
	return nil
}

func (cli *commandLine) deleteCourse(courseID string) error {
	if !core.IsObjectID(courseID) {
		return core.InvalidArgument("course must be a 24 characters hexadecimal identifier")
	}
	res, err := cli.courseSvc.DeleteAsAdmin(context.Background(), courseID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "deleted course %s (%d chapters, %d quizzes, %d learners)\n",
		res.Course.ID, len(res.Course.ChapterIDs), len(res.Course.QuizIDs), len(res.Enrollment.LearnerIDs))
	return nil
}

func (cli *commandLine) reconcile(fix bool) error {
	rep, err := cli.reconcileSvc.Run(context.Background(), fix)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
