package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/chapter"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/question"
	"github.com/trezcool/elimu/core/quiz"
)

type (
	DB struct {
		course     *courseTable
		enrollment *enrollmentTable
		commission *commissionTable
		chapter    *chapterTable
		quiz       *quizTable
		question   *questionTable
		submission *submissionTable
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[string]*course.Enrollment // by course
	}

	commissionTable struct {
		sync.RWMutex
		table map[string]*course.Commission // by course
	}

	chapterTable struct {
		sync.RWMutex
		table map[string]*chapter.Chapter
	}

	quizTable struct {
		sync.RWMutex
		table map[string]*quiz.Quiz
	}

	questionTable struct {
		sync.RWMutex
		table map[string]*question.Question
	}

	submissionTable struct {
		sync.RWMutex
		rows []quiz.Submission
	}
)

func Open() *DB {
	return &DB{
		course:     &courseTable{table: make(map[string]*course.Course)},
		enrollment: &enrollmentTable{table: make(map[string]*course.Enrollment)},
		commission: &commissionTable{table: make(map[string]*course.Commission)},
		chapter:    &chapterTable{table: make(map[string]*chapter.Chapter)},
		quiz:       &quizTable{table: make(map[string]*quiz.Quiz)},
		question:   &questionTable{table: make(map[string]*question.Question)},
		submission: &submissionTable{},
	}
}

// TxRunner runs fn directly: the in-memory store has no transactions, callers rely on their locks.
type TxRunner struct{}

var _ core.TxRunner = TxRunner{} // interface compliance check

func (TxRunner) InTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	return fn(nil)
}

func cloneStrings(ss []string) []string {
	out := make([]string, len(ss))
	copy(out, ss)
	return out
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
