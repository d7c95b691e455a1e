package main

import (
	"bufio"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/reconcile"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db           *sql.DB // nil with the inmem engine
	courseSvc    *course.Service
	reconcileSvc *reconcile.Service
	in           io.Reader
	out          io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) on the embedded migrations")
	fmt.Fprintln(cli.out, "  setcommission -course ID -share PERCENT - set the creator share of a course")
	fmt.Fprintln(cli.out, "  deletecourse -course ID [-yes] - delete a course with its chapters, quizzes and enrollment")
	fmt.Fprintln(cli.out, "  reconcile [-fix] - report (and optionally repair) leftovers of interrupted writes")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	setCommissionCmd := flag.NewFlagSet("setcommission", flag.ContinueOnError)
	setCommissionCmd.SetOutput(cli.out)
	setCommissionCourse := setCommissionCmd.String("course", "", "The course ID.")
	setCommissionShare := setCommissionCmd.String("share", "", "The creator share, in percent (0 < share <= 100).")

	deleteCourseCmd := flag.NewFlagSet("deletecourse", flag.ContinueOnError)
	deleteCourseCmd.SetOutput(cli.out)
	deleteCourseID := deleteCourseCmd.String("course", "", "The course ID.")
	deleteCourseYes := deleteCourseCmd.Bool("yes", false, "Do not ask for confirmation.")

	reconcileCmd := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	reconcileCmd.SetOutput(cli.out)
	reconcileFix := reconcileCmd.Bool("fix", false, "Repair the issues found.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "setcommission":
		if err := setCommissionCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setCommissionCourse == "" || *setCommissionShare == "" {
			setCommissionCmd.Usage()
			return errHelp
		}
		return cli.setCommission(*setCommissionCourse, *setCommissionShare)
	case "deletecourse":
		if err := deleteCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *deleteCourseID == "" {
			deleteCourseCmd.Usage()
			return errHelp
		}
		if !*deleteCourseYes {
			if err := cli.confirm(*deleteCourseID); err != nil {
				return err
			}
		}
		return cli.deleteCourse(*deleteCourseID)
	case "reconcile":
		if err := reconcileCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.reconcile(*reconcileFix)
	default:
		cli.printUsage()
		return errHelp
	}
}

var errNotConfirmed = errors.New("not confirmed")

// confirm asks the operator to type the course ID back; without a terminal -yes is required.
func (cli *commandLine) confirm(courseID string) error {
	if !isTerminalFunc(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal: pass -yes to confirm")
	}
	fmt.Fprintf(cli.out, "This permanently deletes course %s and everything it contains.\nType the course ID to confirm: ", courseID)
	line, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	if strings.TrimSpace(line) != courseID {
		return errNotConfirmed
	}
	return nil
}
