package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/tests"
)

func setup(t *testing.T, stdin string) (*commandLine, *testutil.Env, *bytes.Buffer) {
	t.Helper()
	env := testutil.NewEnv()
	out := new(bytes.Buffer)
	return &commandLine{
		courseSvc:    env.CourseSvc,
		reconcileSvc: env.ReconcileSvc,
		in:           strings.NewReader(stdin),
		out:          out,
	}, env, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func (tc cliTest) check(t *testing.T, err error, out string) {
	t.Helper()
	switch {
	case tc.wantErr != nil:
		assert.ErrorIs(t, err, tc.wantErr)
	case tc.wantErrStr != "":
		assert.ErrorContains(t, err, tc.wantErrStr)
	default:
		assert.NoError(t, err)
	}
	if tc.wantOut != "" {
		assert.Contains(t, out, tc.wantOut)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _, out := setup(t, "")

	tests := []cliTest{
		{name: "no command", args: nil, wantErr: errHelp, wantOut: "Usage:"},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp, wantOut: "Usage:"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(append([]string{"admin"}, tc.args...))
			tc.check(t, err, out.String())
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t, "")
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cli.db = db

	orig := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = orig })
	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		if dir != "migrations" {
			return fmt.Errorf("unexpected dir %q", dir)
		}
		if _, err := fs.Stat(fsys, dir); err != nil {
			return err
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "add_index", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tc.args...))
			tc.check(t, err, "")
		})
	}

	t.Run("inmem engine", func(t *testing.T) {
		cli.db = nil
		err := cli.run([]string{"admin", "migrate", "up"})
		assert.ErrorIs(t, err, errNoDatabase)
	})
}

func Test_commandLine_setcommission(t *testing.T) {
	cli, env, out := setup(t, "")
	creatorID := testutil.NewUserID()
	c := testutil.CreateCourse(t, env, creatorID, "Go Concurrency", testutil.Published)

	tests := []cliTest{
		{name: "no flags", args: []string{"setcommission"}, wantErr: errHelp},
		{name: "missing share", args: []string{"setcommission", "-course", c.ID}, wantErr: errHelp},
		{name: "bad share", args: []string{"setcommission", "-course", c.ID, "-share", "lots"}, wantErrStr: `parsing share "lots"`},
		{name: "share too high", args: []string{"setcommission", "-course", c.ID, "-share", "150"}, wantErrStr: "creatorShare must be greater than 0 and at most 100"},
		{name: "unknown course", args: []string{"setcommission", "-course", core.NewID(), "-share", "70"}, wantErr: course.ErrNotFound},
		{
			name:    "ok",
			args:    []string{"setcommission", "-course", c.ID, "-share", "70"},
			wantOut: fmt.Sprintf("commission set: course %s, creator %s gets 70%%", c.ID, creatorID),
		},
		{name: "already set", args: []string{"setcommission", "-course", c.ID, "-share", "50"}, wantErr: course.ErrCommissionExists},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(append([]string{"admin"}, tc.args...))
			tc.check(t, err, out.String())
		})
	}
}

func Test_commandLine_deletecourse(t *testing.T) {
	orig := isTerminalFunc
	t.Cleanup(func() { isTerminalFunc = orig })

	tests := []struct {
		cliTest
		stdin    string
		terminal bool
		deleted  bool
	}{
		{cliTest: cliTest{name: "no flags", args: []string{"deletecourse"}, wantErr: errHelp}},
		{
			cliTest: cliTest{name: "no terminal", args: []string{"deletecourse", "-course", "%s"}, wantErrStr: "stdin is not a terminal: pass -yes to confirm"},
		},
		{
			cliTest:  cliTest{name: "not confirmed", args: []string{"deletecourse", "-course", "%s"}, wantErr: errNotConfirmed},
			stdin:    "nope\n",
			terminal: true,
		},
		{
			cliTest:  cliTest{name: "confirmed", args: []string{"deletecourse", "-course", "%s"}, wantOut: "(2 chapters, 0 quizzes, 1 learners)"},
			stdin:    "%s\n",
			terminal: true,
			deleted:  true,
		},
		{
			cliTest: cliTest{name: "yes", args: []string{"deletecourse", "-yes", "-course", "%s"}, wantOut: "deleted course"},
			deleted: true,
		},
		{
			cliTest: cliTest{name: "malformed id", args: []string{"deletecourse", "-yes", "-course", "lol"}, wantErrStr: "course must be a 24 characters hexadecimal identifier"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := testutil.NewEnv()
			c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Intro to Go", testutil.Published)
			testutil.CreateChapters(t, env, c, 2)
			testutil.Enroll(t, env, c, testutil.NewUserID())

			out := new(bytes.Buffer)
			cli := &commandLine{
				courseSvc:    env.CourseSvc,
				reconcileSvc: env.ReconcileSvc,
				in:           strings.NewReader(strings.ReplaceAll(tc.stdin, "%s", c.ID)),
				out:          out,
			}
			isTerminalFunc = func(int) bool { return tc.terminal }

			args := []string{"admin"}
			for _, a := range tc.args {
				args = append(args, strings.ReplaceAll(a, "%s", c.ID))
			}
			err := cli.run(args)
			tc.check(t, err, out.String())

			_, err = env.CourseRepo.GetCourse(context.Background(), c.ID)
			if tc.deleted {
				assert.ErrorIs(t, err, course.ErrNotFound)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_reconcile(t *testing.T) {
	cli, env, out := setup(t, "")
	c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Clean course")
	testutil.CreateChapters(t, env, c, 2)

	for _, args := range [][]string{{"reconcile"}, {"reconcile", "-fix"}} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			out.Reset()
			err := cli.run(append([]string{"admin"}, args...))
			require.NoError(t, err)
			assert.Contains(t, out.String(), `"coursesScanned": 1`)
			assert.Contains(t, out.String(), `"issues": []`)
		})
	}
}
